package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Message string              `json:"message"`
	Errors  []common.FieldError `json:"errors,omitempty"`
}

var errorStatus = []struct {
	err     error
	status  int
	message string
}{
	{common.ErrDuplicateUser, http.StatusBadRequest, "Email or username already exists"},
	{common.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{common.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{common.ErrMissingToken, http.StatusUnauthorized, "Access Denied. No token provided."},
	{common.ErrInvalidToken, http.StatusUnauthorized, "Invalid Token"},
	{common.ErrorNotFound, http.StatusNotFound, "Not found"},
	{common.ErrRateLimited, http.StatusTooManyRequests, "Too many requests, try again later"},
	{common.ErrExportDisabled, http.StatusServiceUnavailable, "Export is not configured"},
}

// writeError maps err onto a status and an error body and aborts the chain.
// Anything unrecognised becomes an opaque 500; its detail goes to the log
// only.
func (h *handler) writeError(c *gin.Context, err error) {
	var v *common.ValidationError
	if errors.As(err, &v) {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Message: "Validation Error", Errors: v.Fields})
		return
	}

	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			c.AbortWithStatusJSON(e.status, errorBody{Message: e.message})
			return
		}
	}

	h.logger.Error(c.Request.Context(), "request failed",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"request_id", c.GetString(requestIDKey),
		"error", err,
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Message: "Internal server error"})
}
