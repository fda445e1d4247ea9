// Package models defines the server-side records persisted by fintrack and
// the shapes the API returns for them.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a stored account. PasswordHash never leaves the server: API
// responses are built from PublicUser.
type User struct {
	ID           string
	Name         string
	UserName     string
	Email        string
	PasswordHash string
	Budget       decimal.Decimal
	CreatedAt    time.Time
}

type PublicUser struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UserName  string          `json:"username"`
	Email     string          `json:"email"`
	Budget    decimal.Decimal `json:"budget"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		UserName:  u.UserName,
		Email:     u.Email,
		Budget:    u.Budget,
		CreatedAt: u.CreatedAt,
	}
}
