package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// UnknownDate is the series bucket for expenses whose date is missing or
// not a calendar date.
const UnknownDate = "Unknown"

const dateLayout = "2006-01-02"

type (
	// ID is an opaque, server-assigned identifier. The backend emits ids
	// as JSON numbers; string ids are accepted too and the literal text is
	// kept either way.
	ID string

	// Expense is one dated, named, amount-bearing entry owned by a user.
	// Records are immutable once created: the client only lists, creates
	// and deletes them.
	Expense struct {
		ID     ID     `json:"id"`
		Name   string `json:"name"`
		Amount Amount `json:"amount"`
		Date   string `json:"date"`
	}

	// Draft is a new expense as entered in the form, validated locally
	// before it is ever sent to the API.
	Draft struct {
		Name   string
		Amount Money
		Date   string
	}

	// Session identifies the logged-in user. It is either fully present
	// or fully absent; there is no partial session.
	Session struct {
		ID       ID     `json:"id"`
		Username string `json:"username"`
	}

	// Category is a user-defined label. Categories are an independent
	// sub-feature and are not linked to expenses.
	Category struct {
		ID   ID     `json:"id"`
		Name string `json:"name"`
	}

	// Credentials is the login/signup form payload.
	Credentials struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
)

var (
	ErrEmptyName     = errors.New("empty name")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrEmptyCategory = errors.New("empty category name")
	ErrEmptyUsername = errors.New("empty username")
	ErrEmptyPassword = errors.New("empty password")
)

func (id *ID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

func (id ID) String() string {
	return string(id)
}

// Validate checks the field rules for a new expense: non-empty name,
// positive amount, valid calendar date. It never touches the network.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	if len(d.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if !ValidDate(d.Date) {
		return ErrInvalidDate
	}
	return nil
}

// Validate checks that both credential fields are filled in. It never
// touches the network.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return ErrEmptyUsername
	}
	if c.Password == "" {
		return ErrEmptyPassword
	}
	return nil
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	if len(s) != len(dateLayout) {
		return false
	}
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// TruncateDate keeps the YYYY-MM-DD prefix of a server date, which may
// carry a time component.
func TruncateDate(s string) string {
	if len(s) > len(dateLayout) {
		return s[:len(dateLayout)]
	}
	return s
}
