package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. *App satisfies
// it; tests use a stub.
type execIface interface {
	isLoggedIn() bool
	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context) error
	Budget(ctx context.Context) error
	SetBudget(ctx context.Context, args []string) error
	AddEntry(ctx context.Context, kind string) error
	List(ctx context.Context, kind string) error
	Delete(ctx context.Context, args []string) error
	Summary(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
}

var errLoginRequired = errors.New("please log in first")

// runREPL reads commands line by line from reader until EOF or exit. Command
// errors are printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "finctl %s> ", statusFn())
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}
		if err := dispatch(ctx, a, cmd, args); err != nil {
			printlnFn("Error:", err)
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			printlnFn("Available commands: profile, budget, setbudget <amount>, addincome, addexpense, incomes, expenses, " +
				"delete <income|expense> <id>, summary [year], export <incomes|expenses> [year], logout, exit")
		} else {
			printlnFn("Available commands: signup, login, exit")
		}
		return nil
	case "signup":
		return a.Signup(ctx)
	case "login":
		return a.Login(ctx)
	}

	if !a.isLoggedIn() {
		switch cmd {
		case "logout", "profile", "budget", "setbudget", "addincome", "addexpense",
			"incomes", "expenses", "delete", "summary", "export":
			return errLoginRequired
		}
	}

	switch cmd {
	case "logout":
		return a.Logout(ctx)
	case "profile":
		return a.Profile(ctx)
	case "budget":
		return a.Budget(ctx)
	case "setbudget":
		return a.SetBudget(ctx, args)
	case "addincome":
		return a.AddEntry(ctx, "income")
	case "addexpense":
		return a.AddEntry(ctx, "expense")
	case "incomes":
		return a.List(ctx, "income")
	case "expenses":
		return a.List(ctx, "expense")
	case "delete":
		return a.Delete(ctx, args)
	case "summary":
		return a.Summary(ctx, args)
	case "export":
		return a.Export(ctx, args)
	default:
		printlnFn("Unknown command:", cmd)
		return nil
	}
}
