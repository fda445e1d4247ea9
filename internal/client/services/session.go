// Package services holds finctl application logic on top of the API client:
// keeping the session across restarts and turning user input into requests.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/fintrack/internal/client/api"
	"github.com/dmitrijs2005/fintrack/internal/client/repositories/metadata"
)

const (
	tokenKey    = "token"
	userNameKey = "username"
)

// SessionService logs in and out and persists the bearer token in the
// metadata table.
type SessionService struct {
	api      *api.Client
	meta     metadata.Repository
	userName string
}

func NewSessionService(c *api.Client, meta metadata.Repository) *SessionService {
	return &SessionService{api: c, meta: meta}
}

// Restore loads a saved session, if any, into the API client.
func (s *SessionService) Restore(ctx context.Context) error {
	token, err := s.meta.Get(ctx, tokenKey)
	if err != nil {
		return err
	}
	if len(token) == 0 {
		return nil
	}
	name, err := s.meta.Get(ctx, userNameKey)
	if err != nil {
		return err
	}
	s.api.SetToken(string(token))
	s.userName = string(name)
	return nil
}

func (s *SessionService) Signup(ctx context.Context, req api.SignupRequest) (*api.User, error) {
	res, err := s.api.Signup(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, res); err != nil {
		return nil, err
	}
	return &res.User, nil
}

func (s *SessionService) Login(ctx context.Context, email string, password []byte) (*api.User, error) {
	res, err := s.api.Login(ctx, strings.TrimSpace(email), string(password))
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, res); err != nil {
		return nil, err
	}
	return &res.User, nil
}

// Logout forgets the token locally. Tokens are stateless, so the server is
// not contacted.
func (s *SessionService) Logout(ctx context.Context) error {
	s.api.SetToken("")
	s.userName = ""
	return s.meta.Clear(ctx)
}

func (s *SessionService) LoggedIn() bool {
	return s.api.Token() != ""
}

func (s *SessionService) UserName() string {
	return s.userName
}

func (s *SessionService) save(ctx context.Context, res *api.AuthResponse) error {
	if err := s.meta.Set(ctx, tokenKey, []byte(res.Token)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if err := s.meta.Set(ctx, userNameKey, []byte(res.User.UserName)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.api.SetToken(res.Token)
	s.userName = res.User.UserName
	return nil
}
