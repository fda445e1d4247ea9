package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type signupRequest struct {
	Name     string `json:"name"`
	UserName string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type budgetRequest struct {
	Budget *decimal.Decimal `json:"budget"`
}

type entryRequest struct {
	Title       string           `json:"title"`
	Amount      *decimal.Decimal `json:"amount"`
	Category    string           `json:"category"`
	Description string           `json:"description"`
	Date        string           `json:"date"`
}

// maxBodyBytes caps request bodies. Every request here is a small JSON object.
const maxBodyBytes = 64 << 10

// decodeBody reads a JSON object into dst. An empty body leaves dst zeroed
// so the service reports the missing fields. Malformed JSON and unknown
// fields are validation errors.
func decodeBody(c *gin.Context, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return common.NewValidationError("body", "request body is too large")
		}
		return common.NewValidationError("body", "request body could not be read")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return common.NewValidationError(typeErr.Field, typeErr.Field+" has the wrong type")
		}
		return common.NewValidationError("body", "invalid request body: "+err.Error())
	}
	if dec.More() {
		return common.NewValidationError("body", "request body must contain a single JSON object")
	}
	return nil
}
