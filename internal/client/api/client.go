// Package api is the finctl HTTP client for the fintrack JSON API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/shopspring/decimal"
)

// Client talks to one fintrack server. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Ping checks that the server answers /healthz.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, false, nil)
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/signup", req, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", body, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Profile(ctx context.Context) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/profile", nil, true, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) SetBudget(ctx context.Context, budget decimal.Decimal) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	body := map[string]decimal.Decimal{"budget": budget}
	if err := c.do(ctx, http.MethodPost, "/budget", body, true, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) GetBudget(ctx context.Context) (decimal.Decimal, error) {
	var out struct {
		Budget decimal.Decimal `json:"budget"`
	}
	if err := c.do(ctx, http.MethodGet, "/getBudget", nil, true, &out); err != nil {
		return decimal.Zero, err
	}
	return out.Budget, nil
}

// AddEntry creates an income or expense; kind is "income" or "expense".
func (c *Client) AddEntry(ctx context.Context, kind string, req EntryRequest) (*Entry, error) {
	var out struct {
		Data Entry `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/add-"+kind, req, true, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) ListEntries(ctx context.Context, kind string) ([]Entry, error) {
	var out struct {
		Data []Entry `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/"+kind+"s", nil, true, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) DeleteEntry(ctx context.Context, kind, id string) (*Entry, error) {
	var out struct {
		Data Entry `json:"data"`
	}
	if err := c.do(ctx, http.MethodDelete, "/"+kind+"s/"+url.PathEscape(id), nil, true, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) Summary(ctx context.Context, year *int) (*Dashboard, error) {
	var out Dashboard
	if err := c.do(ctx, http.MethodGet, "/summary"+yearQuery(year), nil, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Export(ctx context.Context, kind string, year *int) (*ExportLink, error) {
	var out ExportLink
	if err := c.do(ctx, http.MethodGet, "/export/"+kind+"s"+yearQuery(year), nil, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func yearQuery(year *int) string {
	if year == nil {
		return ""
	}
	return "?year=" + strconv.Itoa(*year)
}

func (c *Client) do(ctx context.Context, method, path string, in any, authed bool, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		token := c.Token()
		if token == "" {
			return ErrNotLoggedIn
		}
		req.Header.Set(common.AuthorizationHeader, common.BearerScheme+" "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var eb struct {
			Message string              `json:"message"`
			Errors  []common.FieldError `json:"errors"`
		}
		if json.Unmarshal(data, &eb) == nil && eb.Message != "" {
			apiErr.Message = eb.Message
			apiErr.Fields = eb.Errors
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
