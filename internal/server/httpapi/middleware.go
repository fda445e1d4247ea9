package httpapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/gin-gonic/gin"
)

const (
	requestIDKey    = "requestID"
	userIDKey       = "userID"
	requestIDHeader = "X-Request-ID"
)

// requestLogger tags every request with an id and logs its outcome.
func (h *handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id, _ = common.MakeRandHexString(8)
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)

		c.Next()

		h.logger.Info(c.Request.Context(), "http request",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"user_id", c.GetString(userIDKey),
		)
	}
}

// authGate accepts "Authorization: Bearer <token>" and stores the verified
// user id for the handlers.
func (h *handler) authGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader(common.AuthorizationHeader))
		if header == "" {
			h.writeError(c, common.ErrMissingToken)
			return
		}

		scheme, token, _ := strings.Cut(header, " ")
		if !strings.EqualFold(scheme, common.BearerScheme) {
			h.writeError(c, common.ErrInvalidToken)
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			h.writeError(c, common.ErrMissingToken)
			return
		}

		claims, err := h.tokens.Verify(token)
		if err != nil {
			h.writeError(c, common.ErrInvalidToken)
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

// rateLimit limits requests per client IP under scope. Limiter errors are
// logged and the request goes through.
func (h *handler) rateLimit(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		d, err := h.limiter.Allow(ctx, scope+":"+c.ClientIP())
		if err != nil {
			h.logger.Warn(ctx, "rate limiter unavailable", "scope", scope, "error", err)
		}

		if d.Limit >= 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			c.Header("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
		}

		if !d.Allowed {
			retry := int(time.Until(d.ResetAt).Seconds())
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			h.writeError(c, common.ErrRateLimited)
			return
		}
		c.Next()
	}
}
