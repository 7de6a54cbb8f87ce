package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"expensetrack/internal/api"
	"expensetrack/internal/app"
	"expensetrack/internal/cli"
	"expensetrack/internal/core"
	"expensetrack/internal/session"
	"expensetrack/internal/ui"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	client := api.New(api.Options{
		BaseURL:  cfg.APIBaseURL,
		Timeout:  cfg.HTTPTimeout,
		CacheTTL: cfg.CacheTTL,
		Logger:   logger,
	})
	store := session.NewStore(cfg.SessionFile, logger)
	ctrl := app.New(store, client, client, client, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting expensetrack", "api", cfg.APIBaseURL)
	ctrl.Bootstrap(ctx)

	if err := run(ctx, ctrl, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the command loop: read a line, forward the intent to the
// controller, render the outcome.
func run(ctx context.Context, ctrl *app.App, stdin io.Reader, stdout io.Writer) error {
	fmt.Fprintln(stdout, `Expense tracker. Type "help" for commands.`)
	scanner := bufio.NewScanner(stdin)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(stdout, prompt(ctrl.Snapshot()))
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}
		dispatch(ctx, ctrl, fields[0], fields[1:], stdin, stdout)
	}
}

func prompt(snap app.Snapshot) string {
	if snap.LoggedIn {
		return snap.Session.Username + "> "
	}
	return "guest> "
}

func dispatch(ctx context.Context, ctrl *app.App, cmd string, args []string, stdin io.Reader, stdout io.Writer) {
	switch cmd {
	case "help":
		printHelp(stdout)
	case "login", "signup":
		authenticate(ctx, ctrl, cmd, args, stdin, stdout)
	case "logout":
		if err := ctrl.Logout(); err != nil {
			fmt.Fprintln(stdout, "Error:", err)
			return
		}
		fmt.Fprintln(stdout, "Logged out.")
	case "list":
		// A failed refresh lands in the snapshot as the error phase.
		_ = ctrl.Refresh(ctx)
		ui.ExpenseTable(stdout, ctrl.Snapshot())
	case "show":
		ui.ExpenseTable(stdout, ctrl.Snapshot())
	case "chart":
		ui.Chart(stdout, ctrl.Snapshot().Aggregate, 0)
	case "add":
		if len(args) < 3 {
			fmt.Fprintln(stdout, "Usage: add <date YYYY-MM-DD> <amount> <name...>")
			return
		}
		res := ctrl.AddExpense(ctx, strings.Join(args[2:], " "), args[1], args[0])
		printResult(stdout, res)
	case "rm":
		if len(args) != 1 {
			fmt.Fprintln(stdout, "Usage: rm <id>")
			return
		}
		res := ctrl.DeleteExpense(ctx, core.ID(args[0]))
		if res.Success {
			fmt.Fprintln(stdout, "Deleted.")
			return
		}
		fmt.Fprintln(stdout, res.Message)
	case "cats":
		ui.Categories(stdout, ctrl.Snapshot())
	case "addcat":
		res := ctrl.AddCategory(ctx, strings.Join(args, " "))
		printResult(stdout, res)
	default:
		fmt.Fprintf(stdout, "Unknown command %q. Type \"help\" for commands.\n", cmd)
	}
}

func authenticate(ctx context.Context, ctrl *app.App, cmd string, args []string, stdin io.Reader, stdout io.Writer) {
	if len(args) != 1 {
		fmt.Fprintf(stdout, "Usage: %s <username>\n", cmd)
		return
	}
	fmt.Fprint(stdout, "Password: ")
	password, err := readPassword(stdin)
	fmt.Fprintln(stdout)
	if err != nil {
		fmt.Fprintln(stdout, "Error:", err)
		return
	}

	creds := core.Credentials{Username: args[0], Password: password}
	var res app.Result
	if cmd == "signup" {
		res = ctrl.Signup(ctx, creds)
	} else {
		res = ctrl.Login(ctx, creds)
	}
	if !res.Success {
		fmt.Fprintln(stdout, res.Message)
		return
	}
	fmt.Fprintf(stdout, "Welcome, %s.\n", ctrl.Snapshot().Session.Username)
	ui.ExpenseTable(stdout, ctrl.Snapshot())
}

// readPassword reads without echo on a terminal, with a plain-line
// fallback for pipes and tests.
func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func printResult(w io.Writer, res app.Result) {
	if res.Success {
		if res.Message != "" {
			fmt.Fprintln(w, res.Message)
		} else {
			fmt.Fprintln(w, "Done.")
		}
		return
	}
	fmt.Fprintln(w, res.Message)
}

func printHelp(w io.Writer) {
	fmt.Fprint(w, `Commands:
  login <username>                 log in (password prompted)
  signup <username>                create an account and log in
  logout                           log out and forget the session
  list                             refresh and show expenses with total
  show                             show expenses without refreshing
  add <date> <amount> <name...>    add an expense, e.g. add 2024-01-02 12.50 lunch
  rm <id>                          delete an expense
  chart                            per-date totals as a bar chart
  cats                             list categories
  addcat <name...>                 add a category
  quit                             exit
`)
}
