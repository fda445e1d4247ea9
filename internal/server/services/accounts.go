// Package services holds the server business logic: accounts and sessions,
// the income/expense ledger with its summaries, and CSV export.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/dbx"
	"github.com/dmitrijs2005/fintrack/internal/server/config"
	"github.com/dmitrijs2005/fintrack/internal/server/models"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type TokenIssuer interface {
	Issue(userID, email string, ttl time.Duration) (string, time.Time, error)
}

type SignupInput struct {
	Name     string
	UserName string
	Email    string
	Password string
}

// AuthResult is returned by Signup and Login.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      models.PublicUser
}

// AccountService handles signup, login, profile and budget.
type AccountService struct {
	db          dbx.DBTX
	tx          dbx.TxRunner
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	tokens      TokenIssuer
	signupTTL   time.Duration
	loginTTL    time.Duration
}

func NewAccountService(db dbx.DBTX, tx dbx.TxRunner, m repomanager.RepositoryManager,
	hasher PasswordHasher, tokens TokenIssuer, cfg *config.Config) *AccountService {
	return &AccountService{
		db:          db,
		tx:          tx,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		signupTTL:   cfg.SignupTokenTTL,
		loginTTL:    cfg.LoginTokenTTL,
	}
}

// bcrypt only hashes the first 72 bytes and refuses longer input.
const maxPasswordBytes = 72

// Signup creates an account with a zero budget and returns a session token.
// A taken email or username yields common.ErrDuplicateUser; the unique
// indexes catch signups racing past the existence check.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.UserName = strings.TrimSpace(in.UserName)
	in.Email = strings.TrimSpace(in.Email)

	v := &common.ValidationError{}
	v.Required("name", in.Name)
	v.Required("username", in.UserName)
	v.Required("email", in.Email)
	v.Required("password", in.Password)
	if len(in.Password) > maxPasswordBytes {
		v.Add("password", fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.tx.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		exists, err := repo.ExistsByEmailOrUsername(ctx, in.Email, in.UserName)
		if err != nil {
			return err
		}
		if exists {
			return common.ErrDuplicateUser
		}

		user, err = repo.Create(ctx, &models.User{
			Name:         in.Name,
			UserName:     in.UserName,
			Email:        in.Email,
			PasswordHash: hash,
			Budget:       decimal.Zero,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateUser) {
			return nil, common.ErrDuplicateUser
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.authResult(user, s.signupTTL)
}

// Login checks email and password. An unknown email is common.ErrUserNotFound,
// a wrong password common.ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)

	v := &common.ValidationError{}
	v.Required("email", email)
	v.Required("password", password)
	if err := v.Err(); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	return s.authResult(user, s.loginTTL)
}

func (s *AccountService) GetProfile(ctx context.Context, userID string) (*models.PublicUser, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := user.Public()
	return &p, nil
}

// SetBudget overwrites the user's budget. nil means the field was absent.
func (s *AccountService) SetBudget(ctx context.Context, userID string, budget *decimal.Decimal) (*models.PublicUser, error) {
	if budget == nil {
		return nil, common.NewValidationError("budget", "budget is required")
	}
	if budget.IsNegative() {
		return nil, common.NewValidationError("budget", "budget must not be negative")
	}
	v := &common.ValidationError{}
	checkMoney(v, "budget", *budget)
	if err := v.Err(); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).UpdateBudget(ctx, userID, *budget)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("update budget: %w", err)
	}
	p := user.Public()
	return &p, nil
}

func (s *AccountService) GetBudget(ctx context.Context, userID string) (decimal.Decimal, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return user.Budget, nil
}

func (s *AccountService) findUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *AccountService) authResult(user *models.User, ttl time.Duration) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email, ttl)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: user.Public()}, nil
}
