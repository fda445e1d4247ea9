package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/server/models"
	"github.com/dmitrijs2005/fintrack/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (h *handler) signup(c *gin.Context) {
	var req signupRequest
	if err := decodeBody(c, &req); err != nil {
		h.writeError(c, err)
		return
	}

	res, err := h.accounts.Signup(c.Request.Context(), services.SignupInput{
		Name:     req.Name,
		UserName: req.UserName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Signup successful", "token": res.Token, "user": res.User})
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := decodeBody(c, &req); err != nil {
		h.writeError(c, err)
		return
	}

	res, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "token": res.Token, "user": res.User})
}

func (h *handler) profile(c *gin.Context) {
	user, err := h.accounts.GetProfile(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User profile fetched successfully", "user": user})
}

func (h *handler) setBudget(c *gin.Context) {
	var req budgetRequest
	if err := decodeBody(c, &req); err != nil {
		h.writeError(c, err)
		return
	}

	user, err := h.accounts.SetBudget(c.Request.Context(), c.GetString(userIDKey), req.Budget)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Budget updated successfully", "user": user})
}

func (h *handler) getBudget(c *gin.Context) {
	budget, err := h.accounts.GetBudget(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

func (h *handler) addEntry(kind models.Kind) gin.HandlerFunc {
	label := kindLabel(kind)
	return func(c *gin.Context) {
		var req entryRequest
		if err := decodeBody(c, &req); err != nil {
			h.writeError(c, err)
			return
		}

		entry, err := h.ledger.AddEntry(c.Request.Context(), kind, c.GetString(userIDKey), services.EntryInput{
			Title:       req.Title,
			Amount:      req.Amount,
			Category:    req.Category,
			Description: req.Description,
			Date:        req.Date,
		})
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": label + " added successfully", "data": entry})
	}
}

func (h *handler) listEntries(kind models.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := h.ledger.ListEntries(c.Request.Context(), kind, c.GetString(userIDKey))
		if err != nil {
			h.writeError(c, err)
			return
		}

		message := "Success"
		if len(list) == 0 {
			message = "No " + kind.Plural() + " found"
		}
		c.JSON(http.StatusOK, gin.H{"message": message, "data": list})
	}
}

func (h *handler) deleteEntry(kind models.Kind) gin.HandlerFunc {
	label := kindLabel(kind)
	return func(c *gin.Context) {
		entry, err := h.ledger.DeleteEntry(c.Request.Context(), kind, c.GetString(userIDKey), c.Param("id"))
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": label + " deleted successfully", "data": entry})
	}
}

func (h *handler) summary(c *gin.Context) {
	year, err := yearParam(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	d, err := h.ledger.Dashboard(c.Request.Context(), c.GetString(userIDKey), year)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *handler) export(c *gin.Context) {
	kind, err := models.ParseKind(c.Param("kind"))
	if err != nil {
		h.writeError(c, common.NewValidationError("kind", "kind must be incomes or expenses"))
		return
	}
	year, err := yearParam(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	res, err := h.exporter.Export(c.Request.Context(), kind, c.GetString(userIDKey), year)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// yearParam reads the optional ?year= query parameter.
func yearParam(c *gin.Context) (*int, error) {
	raw := strings.TrimSpace(c.Query("year"))
	if raw == "" {
		return nil, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1 || year > 9999 {
		return nil, common.NewValidationError("year", "year must be a four digit number")
	}
	return &year, nil
}

func kindLabel(kind models.Kind) string {
	if kind == models.KindIncome {
		return "Income"
	}
	return "Expense"
}
