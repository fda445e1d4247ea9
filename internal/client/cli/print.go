package cli

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/dmitrijs2005/fintrack/internal/client/api"
)

func printUser(w io.Writer, u *api.User) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", u.Name)
	fmt.Fprintf(tw, "Username:\t%s\n", u.UserName)
	fmt.Fprintf(tw, "Email:\t%s\n", u.Email)
	fmt.Fprintf(tw, "Budget:\t%s\n", u.Budget.StringFixed(2))
	tw.Flush()
}

func printEntries(w io.Writer, entries []api.Entry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTITLE\tCATEGORY\tAMOUNT")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Date, e.Title, e.Category, e.Amount.StringFixed(2))
	}
	tw.Flush()
}

func printDashboard(w io.Writer, d *api.Dashboard) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if d.Year != nil {
		fmt.Fprintf(tw, "Year:\t%d\n", *d.Year)
	}
	fmt.Fprintf(tw, "Income:\t%s\t(%d entries)\n", d.Income.Total.StringFixed(2), d.Income.Count)
	printCategories(tw, d.Income)
	fmt.Fprintf(tw, "Expenses:\t%s\t(%d entries)\n", d.Expense.Total.StringFixed(2), d.Expense.Count)
	printCategories(tw, d.Expense)
	fmt.Fprintf(tw, "Balance:\t%s\n", d.Balance.StringFixed(2))
	fmt.Fprintf(tw, "Budget:\t%s\n", d.Budget.StringFixed(2))
	fmt.Fprintf(tw, "Remaining:\t%s\n", d.Remaining.StringFixed(2))
	tw.Flush()
}

func printCategories(w io.Writer, s api.Summary) {
	cats := make([]string, 0, len(s.ByCategory))
	for c := range s.ByCategory {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for _, c := range cats {
		fmt.Fprintf(w, "  %s\t%s\n", c, s.ByCategory[c].StringFixed(2))
	}
}
