package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/fintrack/internal/common"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotLoggedIn  = errors.New("not logged in")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
	Fields  []common.FieldError
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s (%d)", e.Message, e.Status)
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(msgs, ", "))
}

// Is lets callers match on the common sentinels by status code.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case common.ErrorNotFound:
		return e.Status == http.StatusNotFound
	case common.ErrValidation:
		return e.Status == http.StatusBadRequest
	case common.ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	}
	return false
}
