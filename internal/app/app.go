// Package app holds the view-model controller: the single owner of the
// session, the loaded expense list and the loading/error flags. The
// presentation layer only forwards intents here and renders snapshots.
package app

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"expensetrack/internal/core"
	"expensetrack/internal/log"

	"golang.org/x/sync/errgroup"
)

// Phase is the controller's state: anonymous, or authenticated with a
// loading/ready/error sub-state. There is no terminal state; every
// failure leaves the controller in a state that allows retry.
type Phase string

const (
	PhaseAnonymous Phase = "anonymous"
	PhaseLoading   Phase = "loading"
	PhaseReady     Phase = "ready"
	PhaseError     Phase = "error"
)

// Result is the outcome of a user intent, ready for display.
type Result struct {
	Success bool
	Message string
}

// Snapshot is the derived state the UI renders. Expenses and Categories
// are copies; Aggregate is recomputed from the current list on every
// call, never stored.
type Snapshot struct {
	Phase       Phase
	LoggedIn    bool
	Session     core.Session
	Expenses    []core.Expense
	Err         string
	Aggregate   core.AggregateView
	Categories  []core.Category
	CategoryErr string
}

// App wires the session store and the API clients into the state the UI
// renders. All state is guarded by one mutex; network calls run outside
// it so a slow backend never blocks rendering.
type App struct {
	store      SessionStore
	auth       AuthClient
	expenses   ExpenseClient
	categories CategoryClient
	logger     *log.Logger

	mu      sync.Mutex
	phase   Phase
	session *core.Session
	list    []core.Expense
	errMsg  string
	cats    []core.Category
	catErr  string

	// listSeq numbers expense fetches. A completion that does not carry
	// the latest number is stale and gets dropped, so a slow fetch for a
	// previous session can never overwrite a fresher one.
	listSeq uint64
}

func New(store SessionStore, auth AuthClient, expenses ExpenseClient, categories CategoryClient, logger *log.Logger) *App {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &App{
		store:      store,
		auth:       auth,
		expenses:   expenses,
		categories: categories,
		logger:     logger.WithComponent(log.ComponentController),
		phase:      PhaseAnonymous,
	}
}

// Bootstrap seeds the controller at startup: a restored session moves
// straight to loading and triggers the initial fetches.
func (a *App) Bootstrap(ctx context.Context) {
	sess, ok := a.store.Restore()
	if !ok {
		return
	}
	a.logger.Info("Session restored",
		log.FieldOperation, log.OpRestore,
		log.FieldUsername, sess.Username)

	a.mu.Lock()
	a.session = &sess
	a.phase = PhaseLoading
	a.mu.Unlock()

	a.loadAll(ctx)
}

// Login authenticates and, on success, persists the session and loads the
// user's data. A failed list fetch afterwards does not fail the login; it
// shows up as the controller error instead.
func (a *App) Login(ctx context.Context, creds core.Credentials) Result {
	if err := creds.Validate(); err != nil {
		return Result{Message: credsMessage(err)}
	}
	sess, err := a.auth.Login(ctx, creds)
	if err != nil {
		return Result{Message: err.Error()}
	}
	return a.establish(ctx, sess)
}

// Signup creates the account and rides the client's chained login. The
// UI must not claim success when the chained login fails, even though the
// account may have been created.
func (a *App) Signup(ctx context.Context, creds core.Credentials) Result {
	if err := creds.Validate(); err != nil {
		return Result{Message: credsMessage(err)}
	}
	sess, err := a.auth.Signup(ctx, creds)
	if err != nil {
		return Result{Message: err.Error()}
	}
	return a.establish(ctx, sess)
}

func (a *App) establish(ctx context.Context, sess core.Session) Result {
	if err := a.store.Set(sess); err != nil {
		a.logger.Error("Failed to persist session", log.FieldError, err.Error())
		return Result{Message: fmt.Sprintf("could not save session: %v", err)}
	}

	a.mu.Lock()
	a.session = &sess
	a.list = nil
	a.errMsg = ""
	a.phase = PhaseLoading
	a.listSeq++ // anything still in flight belongs to a previous session
	a.mu.Unlock()

	a.loadAll(ctx)
	return Result{Success: true}
}

// Logout clears the persisted session, the in-memory list and any error.
func (a *App) Logout() error {
	if err := a.store.Clear(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = nil
	a.list = nil
	a.errMsg = ""
	a.phase = PhaseAnonymous
	a.listSeq++
	a.logger.Info("Logged out", log.FieldOperation, log.OpLogout)
	return nil
}

// Refresh refetches the expense list for the active session.
func (a *App) Refresh(ctx context.Context) error {
	return a.refreshExpenses(ctx)
}

// loadAll fans out the initial fetches. Each refresh records its own
// error state; the group only joins them.
func (a *App) loadAll(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error { return a.refreshExpenses(ctx) })
	g.Go(func() error { return a.refreshCategories(ctx) })
	if err := g.Wait(); err != nil {
		a.logger.Warn("Initial load finished with errors", log.FieldError, err.Error())
	}
}

func (a *App) refreshExpenses(ctx context.Context) error {
	a.mu.Lock()
	if a.session == nil {
		a.mu.Unlock()
		return nil
	}
	a.listSeq++
	seq := a.listSeq
	userID := a.session.ID
	a.phase = PhaseLoading
	a.errMsg = ""
	a.mu.Unlock()

	list, err := a.expenses.ListExpenses(ctx, userID)

	a.mu.Lock()
	defer a.mu.Unlock()
	if seq != a.listSeq {
		a.logger.Warn("Discarding stale expense list",
			log.FieldSeq, seq,
			log.FieldUserID, userID.String())
		return nil
	}
	if a.session == nil || a.session.ID != userID {
		return nil
	}
	if err != nil {
		a.list = nil
		a.phase = PhaseError
		a.errMsg = err.Error()
		return err
	}
	a.list = list
	a.phase = PhaseReady
	return nil
}

// AddExpense validates the form fields locally, then creates the record.
// Success prepends it to the list; failure keeps the list and retains the
// error for display.
func (a *App) AddExpense(ctx context.Context, name, amount, date string) Result {
	draft, msg := buildDraft(name, amount, date)
	if msg != "" {
		return Result{Message: msg}
	}

	a.mu.Lock()
	if a.session == nil {
		a.mu.Unlock()
		return Result{Message: "Not logged in."}
	}
	userID := a.session.ID
	a.mu.Unlock()

	created, err := a.expenses.CreateExpense(ctx, userID, draft)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		if a.session != nil {
			a.errMsg = err.Error()
			a.phase = PhaseError
		}
		return Result{Message: err.Error()}
	}
	if a.session != nil && a.session.ID == userID {
		a.list = append([]core.Expense{created}, a.list...)
		a.errMsg = ""
		a.phase = PhaseReady
	}
	return Result{Success: true, Message: "Expense added."}
}

// DeleteExpense removes exactly the record with the given id. Failure
// keeps the loaded list and retains the error.
func (a *App) DeleteExpense(ctx context.Context, id core.ID) Result {
	a.mu.Lock()
	if a.session == nil {
		a.mu.Unlock()
		return Result{Message: "Not logged in."}
	}
	userID := a.session.ID
	a.mu.Unlock()

	err := a.expenses.DeleteExpense(ctx, userID, id)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		if a.session != nil {
			a.errMsg = err.Error()
			a.phase = PhaseError
		}
		return Result{Message: err.Error()}
	}
	if a.session != nil && a.session.ID == userID {
		a.list = slices.DeleteFunc(a.list, func(e core.Expense) bool { return e.ID == id })
		a.errMsg = ""
		a.phase = PhaseReady
	}
	return Result{Success: true}
}

// AddCategory creates a label; categories keep their own error slot,
// independent from the expense list state.
func (a *App) AddCategory(ctx context.Context, name string) Result {
	if strings.TrimSpace(name) == "" {
		return Result{Message: "Please provide a category name."}
	}

	created, err := a.categories.CreateCategory(ctx, name)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.catErr = "Failed to add category. Please try again."
		return Result{Message: a.catErr}
	}
	a.cats = append(a.cats, created)
	a.catErr = ""
	return Result{Success: true}
}

func (a *App) refreshCategories(ctx context.Context) error {
	cats, err := a.categories.ListCategories(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.catErr = "Failed to fetch categories. Please try again later."
		return err
	}
	a.cats = cats
	a.catErr = ""
	return nil
}

// Snapshot returns the current state for rendering.
func (a *App) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := Snapshot{
		Phase:       a.phase,
		Err:         a.errMsg,
		Expenses:    slices.Clone(a.list),
		Aggregate:   core.Aggregate(a.list),
		Categories:  slices.Clone(a.cats),
		CategoryErr: a.catErr,
	}
	if a.session != nil {
		snap.LoggedIn = true
		snap.Session = *a.session
	}
	return snap
}

// buildDraft turns raw form input into a validated draft, or a form-local
// message when a field is malformed. Nothing here touches the network.
func buildDraft(name, amount, date string) (core.Draft, string) {
	if strings.TrimSpace(name) == "" {
		return core.Draft{}, "Please provide a name for the expense."
	}
	cents, err := core.ParseDecimalToCents(amount)
	if err != nil {
		return core.Draft{}, "Amount must be a number greater than 0."
	}
	if !core.ValidDate(date) {
		return core.Draft{}, "Please provide a valid date."
	}
	draft := core.Draft{Name: strings.TrimSpace(name), Amount: core.Money{Cents: cents}, Date: date}
	if err := draft.Validate(); err != nil {
		return core.Draft{}, err.Error()
	}
	return draft, ""
}

func credsMessage(err error) string {
	switch err {
	case core.ErrEmptyUsername:
		return "Please provide a username."
	case core.ErrEmptyPassword:
		return "Please provide a password."
	default:
		return err.Error()
	}
}
