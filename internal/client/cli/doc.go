// Package cli is the interactive finctl shell.
//
// A session is restored from the local database on start, so a user who
// logged in once stays logged in until the token expires or they log out.
//
// Commands
//
//	signup | login | logout
//	profile | budget | setbudget <amount>
//	addincome | addexpense
//	incomes | expenses
//	delete <income|expense> <id>
//	summary [year]
//	export <incomes|expenses> [year]
//	help | exit
package cli
