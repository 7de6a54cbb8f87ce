package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"

	"expensetrack/internal/core"
	"expensetrack/internal/log"
)

type createCategoryRequest struct {
	Name string `json:"name"`
}

// ListCategories fetches the user-defined category labels. Categories are
// not scoped to a user and not linked to expenses.
func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	if cached, ok := c.categories.Get(categoriesCacheKey); ok {
		return slices.Clone(cached), nil
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/categories", "", nil, &raw); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(strings.TrimSpace(string(raw)), "[") {
		return nil, requestError(errors.New("invalid response from server"))
	}
	var list []core.Category
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, requestError(errors.New("invalid response from server"))
	}

	c.categories.Set(categoriesCacheKey, slices.Clone(list))
	return list, nil
}

// CreateCategory adds a label and returns it with its server-assigned id.
func (c *Client) CreateCategory(ctx context.Context, name string) (core.Category, error) {
	if strings.TrimSpace(name) == "" {
		return core.Category{}, core.ErrEmptyCategory
	}

	var created core.Category
	body := createCategoryRequest{Name: strings.TrimSpace(name)}
	if err := c.do(ctx, http.MethodPost, "/categories", "", body, &created); err != nil {
		return core.Category{}, err
	}

	if cached, ok := c.categories.Get(categoriesCacheKey); ok {
		c.categories.Set(categoriesCacheKey, append(cached, created))
	}
	c.logger.Info("Created category", log.FieldOperation, log.OpCreate)
	return created, nil
}
