package app

import (
	"context"

	"expensetrack/internal/core"
)

// Ports to the remote API. *api.Client satisfies all three; tests plug in
// fakes.
type (
	AuthClient interface {
		Login(ctx context.Context, creds core.Credentials) (core.Session, error)
		Signup(ctx context.Context, creds core.Credentials) (core.Session, error)
	}

	ExpenseClient interface {
		ListExpenses(ctx context.Context, userID core.ID) ([]core.Expense, error)
		CreateExpense(ctx context.Context, userID core.ID, draft core.Draft) (core.Expense, error)
		DeleteExpense(ctx context.Context, userID, id core.ID) error
	}

	CategoryClient interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
		CreateCategory(ctx context.Context, name string) (core.Category, error)
	}
)

// SessionStore is the persisted single-session slot.
type SessionStore interface {
	Restore() (core.Session, bool)
	Set(sess core.Session) error
	Clear() error
	Current() (core.Session, bool)
}
