package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"expensetrack/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory fakes for the controller's ports.

type memStore struct {
	mu     sync.Mutex
	sess   *core.Session
	setErr error
}

func (m *memStore) Restore() (core.Session, bool) {
	return m.Current()
}

func (m *memStore) Set(sess core.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.sess = &sess
	return nil
}

func (m *memStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = nil
	return nil
}

func (m *memStore) Current() (core.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return core.Session{}, false
	}
	return *m.sess, true
}

type fakeAuth struct {
	loginFunc  func(core.Credentials) (core.Session, error)
	signupFunc func(core.Credentials) (core.Session, error)
}

func (f *fakeAuth) Login(_ context.Context, creds core.Credentials) (core.Session, error) {
	return f.loginFunc(creds)
}

func (f *fakeAuth) Signup(_ context.Context, creds core.Credentials) (core.Session, error) {
	return f.signupFunc(creds)
}

type fakeExpenses struct {
	listFunc   func(core.ID) ([]core.Expense, error)
	createFunc func(core.ID, core.Draft) (core.Expense, error)
	deleteFunc func(core.ID, core.ID) error
	calls      atomic.Int32
}

func (f *fakeExpenses) ListExpenses(_ context.Context, userID core.ID) ([]core.Expense, error) {
	f.calls.Add(1)
	if f.listFunc == nil {
		return nil, nil
	}
	return f.listFunc(userID)
}

func (f *fakeExpenses) CreateExpense(_ context.Context, userID core.ID, draft core.Draft) (core.Expense, error) {
	f.calls.Add(1)
	return f.createFunc(userID, draft)
}

func (f *fakeExpenses) DeleteExpense(_ context.Context, userID, id core.ID) error {
	f.calls.Add(1)
	return f.deleteFunc(userID, id)
}

type fakeCategories struct {
	listFunc   func() ([]core.Category, error)
	createFunc func(string) (core.Category, error)
}

func (f *fakeCategories) ListCategories(_ context.Context) ([]core.Category, error) {
	if f.listFunc == nil {
		return nil, nil
	}
	return f.listFunc()
}

func (f *fakeCategories) CreateCategory(_ context.Context, name string) (core.Category, error) {
	return f.createFunc(name)
}

func expense(id core.ID, name string, cents int64, date string) core.Expense {
	return core.Expense{ID: id, Name: name, Amount: core.AmountFromCents(cents), Date: date}
}

func okAuth(sess core.Session) *fakeAuth {
	f := func(core.Credentials) (core.Session, error) { return sess, nil }
	return &fakeAuth{loginFunc: f, signupFunc: f}
}

func newTestApp(store SessionStore, auth AuthClient, exp ExpenseClient, cats CategoryClient) *App {
	if cats == nil {
		cats = &fakeCategories{}
	}
	return New(store, auth, exp, cats, nil)
}

func TestBootstrapWithoutSession(t *testing.T) {
	a := newTestApp(&memStore{}, okAuth(core.Session{}), &fakeExpenses{}, nil)
	a.Bootstrap(context.Background())

	snap := a.Snapshot()
	assert.Equal(t, PhaseAnonymous, snap.Phase)
	assert.False(t, snap.LoggedIn)
}

func TestBootstrapRestoresSessionAndLoads(t *testing.T) {
	store := &memStore{}
	require.NoError(t, store.Set(core.Session{ID: "1", Username: "ada"}))
	exp := &fakeExpenses{listFunc: func(core.ID) ([]core.Expense, error) {
		return []core.Expense{expense("10", "coffee", 350, "2024-01-02")}, nil
	}}

	a := newTestApp(store, okAuth(core.Session{}), exp, nil)
	a.Bootstrap(context.Background())

	snap := a.Snapshot()
	assert.Equal(t, PhaseReady, snap.Phase)
	assert.True(t, snap.LoggedIn)
	assert.Equal(t, "ada", snap.Session.Username)
	require.Len(t, snap.Expenses, 1)
	assert.Equal(t, int64(350), snap.Aggregate.Total.Cents)
}

func TestLoginSuccessLoadsExpenses(t *testing.T) {
	store := &memStore{}
	exp := &fakeExpenses{listFunc: func(core.ID) ([]core.Expense, error) {
		return []core.Expense{expense("1", "a", 100, "2024-01-01")}, nil
	}}
	a := newTestApp(store, okAuth(core.Session{ID: "3", Username: "ada"}), exp, nil)

	res := a.Login(context.Background(), core.Credentials{Username: "ada", Password: "pw"})
	assert.True(t, res.Success)

	snap := a.Snapshot()
	assert.Equal(t, PhaseReady, snap.Phase)
	require.Len(t, snap.Expenses, 1)

	persisted, ok := store.Current()
	require.True(t, ok, "session must be persisted on login")
	assert.Equal(t, core.ID("3"), persisted.ID)
}

func TestLoginRejectedStaysAnonymous(t *testing.T) {
	store := &memStore{}
	auth := &fakeAuth{loginFunc: func(core.Credentials) (core.Session, error) {
		return core.Session{}, errors.New("Server responded with status 401: bad credentials")
	}}
	exp := &fakeExpenses{}
	a := newTestApp(store, auth, exp, nil)

	res := a.Login(context.Background(), core.Credentials{Username: "a", Password: "x"})
	assert.False(t, res.Success)
	assert.Equal(t, "Server responded with status 401: bad credentials", res.Message)

	snap := a.Snapshot()
	assert.Equal(t, PhaseAnonymous, snap.Phase)
	_, ok := store.Current()
	assert.False(t, ok)
	assert.Equal(t, int32(0), exp.calls.Load(), "no fetch without a session")
}

func TestLoginValidatesLocally(t *testing.T) {
	exp := &fakeExpenses{}
	a := newTestApp(&memStore{}, okAuth(core.Session{ID: "1", Username: "u"}), exp, nil)

	res := a.Login(context.Background(), core.Credentials{Username: " ", Password: "pw"})
	assert.False(t, res.Success)
	assert.Equal(t, "Please provide a username.", res.Message)

	res = a.Login(context.Background(), core.Credentials{Username: "u", Password: ""})
	assert.Equal(t, "Please provide a password.", res.Message)
	assert.Equal(t, int32(0), exp.calls.Load())
}

func TestLoginSucceedsButListFails(t *testing.T) {
	exp := &fakeExpenses{listFunc: func(core.ID) ([]core.Expense, error) {
		return nil, errors.New("No response received from server. Is the backend running?")
	}}
	a := newTestApp(&memStore{}, okAuth(core.Session{ID: "3", Username: "ada"}), exp, nil)

	res := a.Login(context.Background(), core.Credentials{Username: "ada", Password: "pw"})
	assert.True(t, res.Success, "login itself succeeded")

	snap := a.Snapshot()
	assert.Equal(t, PhaseError, snap.Phase)
	assert.Empty(t, snap.Expenses, "list failure leaves the list empty")
	assert.Contains(t, snap.Err, "No response received")
}

func TestSignupFailureIsNotSuccess(t *testing.T) {
	auth := &fakeAuth{signupFunc: func(core.Credentials) (core.Session, error) {
		// Account creation may have succeeded; the chained login failed.
		return core.Session{}, errors.New("Server responded with status 401: not active")
	}}
	a := newTestApp(&memStore{}, auth, &fakeExpenses{}, nil)

	res := a.Signup(context.Background(), core.Credentials{Username: "new", Password: "pw"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "401")
	assert.Equal(t, PhaseAnonymous, a.Snapshot().Phase)
}

func TestLogoutClearsEverything(t *testing.T) {
	store := &memStore{}
	exp := &fakeExpenses{listFunc: func(core.ID) ([]core.Expense, error) {
		return []core.Expense{expense("1", "a", 100, "2024-01-01")}, nil
	}}
	a := newTestApp(store, okAuth(core.Session{ID: "3", Username: "ada"}), exp, nil)
	a.Login(context.Background(), core.Credentials{Username: "ada", Password: "pw"})

	require.NoError(t, a.Logout())

	snap := a.Snapshot()
	assert.Equal(t, PhaseAnonymous, snap.Phase)
	assert.False(t, snap.LoggedIn)
	assert.Empty(t, snap.Expenses)
	assert.Empty(t, snap.Err)
	_, ok := store.Current()
	assert.False(t, ok)
}

func TestAddExpenseValidation(t *testing.T) {
	exp := &fakeExpenses{}
	a := newTestApp(&memStore{}, okAuth(core.Session{ID: "3", Username: "u"}), exp, nil)
	a.Login(context.Background(), core.Credentials{Username: "u", Password: "pw"})
	before := exp.calls.Load()

	cases := []struct {
		name, amount, date, want string
	}{
		{"", "10", "2024-01-01", "Please provide a name for the expense."},
		{"x", "0", "2024-01-01", "Amount must be a number greater than 0."},
		{"x", "-5", "2024-01-01", "Amount must be a number greater than 0."},
		{"x", "abc", "2024-01-01", "Amount must be a number greater than 0."},
		{"x", "10", "01/01/2024", "Please provide a valid date."},
	}
	for _, tc := range cases {
		res := a.AddExpense(context.Background(), tc.name, tc.amount, tc.date)
		assert.False(t, res.Success)
		assert.Equal(t, tc.want, res.Message)
	}
	assert.Equal(t, before, exp.calls.Load(), "validation failures never reach the network")
}

func TestAddExpensePrepends(t *testing.T) {
	exp := &fakeExpenses{
		listFunc: func(core.ID) ([]core.Expense, error) {
			return []core.Expense{expense("1", "old", 100, "2024-01-01")}, nil
		},
		createFunc: func(_ core.ID, draft core.Draft) (core.Expense, error) {
			return expense("2", draft.Name, draft.Amount.Cents, draft.Date), nil
		},
	}
	a := newTestApp(&memStore{}, okAuth(core.Session{ID: "3", Username: "u"}), exp, nil)
	a.Login(context.Background(), core.Credentials{Username: "u", Password: "pw"})

	res := a.AddExpense(context.Background(), "lunch", "12.50", "2024-01-02")
	assert.True(t, res.Success)

	snap := a.Snapshot()
	assert.Equal(t, PhaseReady, snap.Phase)
	require.Len(t, snap.Expenses, 2)
	assert.Equal(t, core.ID("2"), snap.Expenses[0].ID, "new record is prepended")
	assert.Equal(t, int64(1350), snap.Aggregate.Total.Cents)
}

func TestAddExpenseFailureKeepsList(t *testing.T) {
	exp := &fakeExpenses{
		listFunc: func(core.ID) ([]core.Expense, error) {
			return []core.Expense{expense("1", "old", 100, "2024-01-01")}, nil
		},
		createFunc: func(core.ID, core.Draft) (core.Expense, error) {
			return core.Expense{}, errors.New("Server responded with status 500: boom")
		},
	}
	a := newTestApp(&memStore{}, okAuth(core.Session{ID: "3", Username: "u"}), exp, nil)
	a.Login(context.Background(), core.Credentials{Username: "u", Password: "pw"})

	res := a.AddExpense(context.Background(), "lunch", "12.50", "2024-01-02")
	assert.False(t, res.Success)

	snap := a.Snapshot()
	assert.Equal(t, PhaseError, snap.Phase)
	require.Len(t, snap.Expenses, 1, "list unchanged on failure")
	assert.Contains(t, snap.Err, "status 500")
}

func TestDeleteExpenseRemovesExactlyOne(t *testing.T) {
	exp := &fakeExpenses{
		listFunc: func(core.ID) ([]core.Expense, error) {
			return []core.Expense{
				expense("1", "a", 100, "2024-01-01"),
				expense("2", "b", 200, "2024-01-02"),
			}, nil
		},
		deleteFunc: func(_ core.ID, id core.ID) error { return nil },
	}
	a := newTestApp(&memStore{}, okAuth(core.Session{ID: "3", Username: "u"}), exp, nil)
	a.Login(context.Background(), core.Credentials{Username: "u", Password: "pw"})

	res := a.DeleteExpense(context.Background(), "1")
	assert.True(t, res.Success)

	snap := a.Snapshot()
	require.Len(t, snap.Expenses, 1)
	assert.Equal(t, core.ID("2"), snap.Expenses[0].ID)
}

func TestDeleteExpenseFailureKeepsList(t *testing.T) {
	exp := &fakeExpenses{
		listFunc: func(core.ID) ([]core.Expense, error) {
			return []core.Expense{expense("1", "a", 100, "2024-01-01")}, nil
		},
		deleteFunc: func(core.ID, core.ID) error {
			return errors.New("Server responded with status 403: not yours")
		},
	}
	a := newTestApp(&memStore{}, okAuth(core.Session{ID: "3", Username: "u"}), exp, nil)
	a.Login(context.Background(), core.Credentials{Username: "u", Password: "pw"})

	res := a.DeleteExpense(context.Background(), "1")
	assert.False(t, res.Success)

	snap := a.Snapshot()
	require.Len(t, snap.Expenses, 1, "record stays on failed delete")
	assert.Contains(t, snap.Err, "status 403")
}

func TestStaleListResponseIsDropped(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var first atomic.Bool
	exp := &fakeExpenses{listFunc: func(core.ID) ([]core.Expense, error) {
		if first.CompareAndSwap(false, true) {
			close(started)
			<-release
			return []core.Expense{expense("1", "stale", 100, "2024-01-01")}, nil
		}
		return []core.Expense{expense("2", "fresh", 200, "2024-01-02")}, nil
	}}

	store := &memStore{}
	require.NoError(t, store.Set(core.Session{ID: "3", Username: "u"}))
	a := newTestApp(store, okAuth(core.Session{}), exp, nil)
	a.mu.Lock()
	sess, _ := store.Current()
	a.session = &sess
	a.phase = PhaseLoading
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.Refresh(context.Background()) // slow fetch
	}()
	<-started

	require.NoError(t, a.Refresh(context.Background())) // newer fetch wins
	close(release)
	<-done

	snap := a.Snapshot()
	require.Len(t, snap.Expenses, 1)
	assert.Equal(t, "fresh", snap.Expenses[0].Name, "stale response must not overwrite newer data")
	assert.Equal(t, PhaseReady, snap.Phase)
}

func TestSlowFetchForPreviousSessionIsDropped(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	exp := &fakeExpenses{listFunc: func(userID core.ID) ([]core.Expense, error) {
		if userID == "1" {
			close(started)
			<-release
			return []core.Expense{expense("10", "first-user", 100, "2024-01-01")}, nil
		}
		return []core.Expense{expense("20", "second-user", 200, "2024-01-02")}, nil
	}}

	seq := 0
	auth := &fakeAuth{loginFunc: func(creds core.Credentials) (core.Session, error) {
		seq++
		if seq == 1 {
			return core.Session{ID: "1", Username: "first"}, nil
		}
		return core.Session{ID: "2", Username: "second"}, nil
	}}
	a := newTestApp(&memStore{}, auth, exp, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.Login(context.Background(), core.Credentials{Username: "first", Password: "pw"})
	}()
	<-started

	res := a.Login(context.Background(), core.Credentials{Username: "second", Password: "pw"})
	require.True(t, res.Success)
	close(release)
	<-done

	snap := a.Snapshot()
	assert.Equal(t, "second", snap.Session.Username)
	require.Len(t, snap.Expenses, 1)
	assert.Equal(t, "second-user", snap.Expenses[0].Name,
		"a slow fetch for the previous session must not land on the new one")
}

func TestCategories(t *testing.T) {
	cats := &fakeCategories{
		listFunc: func() ([]core.Category, error) {
			return []core.Category{{ID: "1", Name: "food"}}, nil
		},
		createFunc: func(name string) (core.Category, error) {
			return core.Category{ID: "2", Name: name}, nil
		},
	}
	a := newTestApp(&memStore{}, okAuth(core.Session{ID: "3", Username: "u"}), &fakeExpenses{}, cats)
	a.Login(context.Background(), core.Credentials{Username: "u", Password: "pw"})

	snap := a.Snapshot()
	require.Len(t, snap.Categories, 1)

	res := a.AddCategory(context.Background(), "travel")
	assert.True(t, res.Success)
	assert.Len(t, a.Snapshot().Categories, 2)

	res = a.AddCategory(context.Background(), "  ")
	assert.False(t, res.Success)
}

func TestCategoryFailureHasOwnErrorSlot(t *testing.T) {
	cats := &fakeCategories{
		listFunc: func() ([]core.Category, error) { return nil, errors.New("down") },
		createFunc: func(string) (core.Category, error) {
			return core.Category{}, errors.New("down")
		},
	}
	exp := &fakeExpenses{listFunc: func(core.ID) ([]core.Expense, error) { return nil, nil }}
	a := newTestApp(&memStore{}, okAuth(core.Session{ID: "3", Username: "u"}), exp, cats)
	a.Login(context.Background(), core.Credentials{Username: "u", Password: "pw"})

	snap := a.Snapshot()
	assert.Equal(t, PhaseReady, snap.Phase, "category failure does not touch the expense state")
	assert.Equal(t, "Failed to fetch categories. Please try again later.", snap.CategoryErr)

	res := a.AddCategory(context.Background(), "x")
	assert.False(t, res.Success)
	assert.Equal(t, "Failed to add category. Please try again.", a.Snapshot().CategoryErr)
}
