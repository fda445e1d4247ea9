package api

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UserName  string          `json:"username"`
	Email     string          `json:"email"`
	Budget    decimal.Decimal `json:"budget"`
	CreatedAt time.Time       `json:"createdAt"`
}

type AuthResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	UserName string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type EntryRequest struct {
	Title       string          `json:"title"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
}

type Entry struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type Summary struct {
	Count      int                        `json:"count"`
	Total      decimal.Decimal            `json:"total"`
	ByCategory map[string]decimal.Decimal `json:"byCategory"`
}

type Dashboard struct {
	Year      *int            `json:"year,omitempty"`
	Income    Summary         `json:"income"`
	Expense   Summary         `json:"expense"`
	Balance   decimal.Decimal `json:"balance"`
	Budget    decimal.Decimal `json:"budget"`
	Remaining decimal.Decimal `json:"remaining"`
}

type ExportLink struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Rows      int       `json:"rows"`
	ExpiresAt time.Time `json:"expiresAt"`
}
