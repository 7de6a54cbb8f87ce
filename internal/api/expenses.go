package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"expensetrack/internal/core"
	"expensetrack/internal/log"
)

type createExpenseRequest struct {
	Name   string      `json:"name"`
	Amount core.Amount `json:"amount"`
	Date   string      `json:"date"`
}

// ListExpenses fetches the user's expenses. The response body must be a
// JSON array; anything else is rejected as a malformed response, never
// silently coerced. Server dates may carry a time component and are
// truncated to YYYY-MM-DD before they are stored anywhere.
func (c *Client) ListExpenses(ctx context.Context, userID core.ID) ([]core.Expense, error) {
	if cached, ok := c.expenses.Get(userID.String()); ok {
		return slices.Clone(cached), nil
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/expenses", userID, nil, &raw); err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "[") {
		return nil, requestError(errors.New("invalid response from server"))
	}
	var list []core.Expense
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, requestError(errors.New("invalid response from server"))
	}
	for i := range list {
		list[i].Date = core.TruncateDate(list[i].Date)
	}

	c.expenses.Set(userID.String(), slices.Clone(list))
	c.logger.Debug("Listed expenses",
		log.FieldOperation, log.OpList,
		log.FieldUserID, userID.String(),
		log.FieldCount, len(list))
	return list, nil
}

// CreateExpense sends a validated draft and returns the created record
// with its server-assigned id. The draft must already have passed
// Validate; it is checked again here so the contract cannot be bypassed.
func (c *Client) CreateExpense(ctx context.Context, userID core.ID, draft core.Draft) (core.Expense, error) {
	if err := draft.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("invalid draft: %w", err)
	}

	body := createExpenseRequest{
		Name:   strings.TrimSpace(draft.Name),
		Amount: core.AmountFromCents(draft.Amount.Cents),
		Date:   draft.Date,
	}
	var created core.Expense
	if err := c.do(ctx, http.MethodPost, "/expenses", userID, body, &created); err != nil {
		return core.Expense{}, err
	}
	created.Date = core.TruncateDate(created.Date)

	if cached, ok := c.expenses.Get(userID.String()); ok {
		c.expenses.Set(userID.String(), append([]core.Expense{created}, cached...))
	}
	c.logger.Info("Created expense",
		log.FieldOperation, log.OpCreate,
		log.FieldUserID, userID.String(),
		log.FieldExpenseID, created.ID.String())
	return created, nil
}

// DeleteExpense removes the record remotely, then drops it from the
// cached list so it cannot resurface before the cache expires.
func (c *Client) DeleteExpense(ctx context.Context, userID, id core.ID) error {
	path := "/expenses/" + url.PathEscape(id.String())
	if err := c.do(ctx, http.MethodDelete, path, userID, nil, nil); err != nil {
		return err
	}

	if cached, ok := c.expenses.Get(userID.String()); ok {
		c.expenses.Set(userID.String(), slices.DeleteFunc(cached, func(e core.Expense) bool {
			return e.ID == id
		}))
	}
	c.logger.Info("Deleted expense",
		log.FieldOperation, log.OpDelete,
		log.FieldUserID, userID.String(),
		log.FieldExpenseID, id.String())
	return nil
}
