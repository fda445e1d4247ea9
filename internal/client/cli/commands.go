package cli

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/dmitrijs2005/fintrack/internal/client/api"
	"github.com/dmitrijs2005/fintrack/internal/client/services"
	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/filex"
	"github.com/dmitrijs2005/fintrack/internal/netx"
)

const exportDir = "exports"

func (a *App) prompt(label string) (string, error) {
	return GetSimpleText(a.reader, label, a.out)
}

// expired drops a session the server no longer accepts.
func (a *App) expired(ctx context.Context, err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		if lerr := a.session.Logout(ctx); lerr != nil {
			return lerr
		}
		return fmt.Errorf("session expired, please log in again: %w", err)
	}
	return err
}

func (a *App) Signup(ctx context.Context) error {
	var req api.SignupRequest
	var err error

	if req.Name, err = a.prompt("Enter name:"); err != nil {
		return err
	}
	if req.UserName, err = a.prompt("Enter username:"); err != nil {
		return err
	}
	if req.Email, err = a.prompt("Enter email:"); err != nil {
		return err
	}
	pw, err := GetPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	req.Password = string(pw)
	common.WipeByteArray(pw)

	u, err := a.session.Signup(ctx, req)
	if err != nil {
		return err
	}
	printlnFn("Signup successful, welcome", u.Name)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := a.prompt("Enter email:")
	if err != nil {
		return err
	}
	pw, err := GetPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	u, err := a.session.Login(ctx, email, pw)
	if err != nil {
		return err
	}
	printlnFn("Login successful, welcome back", u.Name)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	printlnFn("Logged out")
	return nil
}

func (a *App) Profile(ctx context.Context) error {
	u, err := a.ledger.Profile(ctx)
	if err != nil {
		return a.expired(ctx, err)
	}
	printUser(a.out, u)
	return nil
}

func (a *App) Budget(ctx context.Context) error {
	b, err := a.ledger.Budget(ctx)
	if err != nil {
		return a.expired(ctx, err)
	}
	fmt.Fprintf(a.out, "Budget: %s\n", b.StringFixed(2))
	return nil
}

func (a *App) SetBudget(ctx context.Context, args []string) error {
	raw := strings.Join(args, "")
	if raw == "" {
		var err error
		if raw, err = a.prompt("Enter budget:"); err != nil {
			return err
		}
	}
	u, err := a.ledger.SetBudget(ctx, raw)
	if err != nil {
		return a.expired(ctx, err)
	}
	fmt.Fprintf(a.out, "Budget updated: %s\n", u.Budget.StringFixed(2))
	return nil
}

func (a *App) AddEntry(ctx context.Context, kind string) error {
	var f services.EntryForm
	fields := []struct {
		label string
		dst   *string
	}{
		{"Enter title:", &f.Title},
		{"Enter amount:", &f.Amount},
		{"Enter category:", &f.Category},
		{"Enter description:", &f.Description},
		{"Enter date (YYYY-MM-DD, empty for today):", &f.Date},
	}
	for _, fl := range fields {
		v, err := a.prompt(fl.label)
		if err != nil {
			return err
		}
		*fl.dst = v
	}

	e, err := a.ledger.Add(ctx, kind, f)
	if err != nil {
		return a.expired(ctx, err)
	}
	fmt.Fprintf(a.out, "Added %s %s\n", kind, e.ID)
	return nil
}

func (a *App) List(ctx context.Context, kind string) error {
	entries, err := a.ledger.List(ctx, kind)
	if err != nil {
		return a.expired(ctx, err)
	}
	if len(entries) == 0 {
		fmt.Fprintf(a.out, "No %ss found\n", kind)
		return nil
	}
	printEntries(a.out, entries)
	return nil
}

// Delete expects "delete <income|expense> <id>".
func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: delete <income|expense> <id>")
	}
	kind, err := services.ParseKind(args[0])
	if err != nil {
		return err
	}
	e, err := a.ledger.Delete(ctx, kind, args[1])
	if err != nil {
		return a.expired(ctx, err)
	}
	fmt.Fprintf(a.out, "Deleted %s %q\n", kind, e.Title)
	return nil
}

func (a *App) Summary(ctx context.Context, args []string) error {
	year, err := services.ParseYear(strings.Join(args, ""))
	if err != nil {
		return err
	}
	d, err := a.ledger.Summary(ctx, year)
	if err != nil {
		return a.expired(ctx, err)
	}
	printDashboard(a.out, d)
	return nil
}

// Export asks the server for a CSV export and downloads it into ./exports.
func (a *App) Export(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: export <incomes|expenses> [year]")
	}
	kind, err := services.ParseKind(args[0])
	if err != nil {
		return err
	}
	var year *int
	if len(args) == 2 {
		if year, err = services.ParseYear(args[1]); err != nil {
			return err
		}
	}

	link, err := a.ledger.Export(ctx, kind, year)
	if err != nil {
		return a.expired(ctx, err)
	}

	dir, err := filex.EnsureSubdDir(exportDir)
	if err != nil {
		return err
	}
	target, err := filex.UniquePath(dir, path.Base(link.Key))
	if err != nil {
		return err
	}
	n, err := netx.DownloadToFile(ctx, link.URL, target)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Exported %d rows (%d bytes) to %s\n", link.Rows, n, target)
	return nil
}
