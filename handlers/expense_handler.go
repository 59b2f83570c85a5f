package handlers

import (
	"context"
	"net/http"

	"expensetracker/auth"
	"expensetracker/models"
	"expensetracker/service"

	"github.com/shopspring/decimal"
)

// Expenses is the subset of service.ExpenseService used over HTTP.
type Expenses interface {
	Create(ctx context.Context, caller *models.AppUser, in service.CreateExpenseInput) (*models.Expense, error)
	Get(ctx context.Context, caller *models.AppUser, id string) (*models.Expense, error)
	List(ctx context.Context, caller *models.AppUser, q service.ListQuery) ([]*models.Expense, error)
	SetStatus(ctx context.Context, caller *models.AppUser, id, status string) (*models.Expense, error)
	CategoryTotals(ctx context.Context, caller *models.AppUser) ([]models.CategoryTotal, error)
	Report(ctx context.Context, caller *models.AppUser, q service.ListQuery) (*models.ExpenseReport, error)
}

// ExpenseHandler serves the expense routes. Every method expects
// AuthMiddleware to have run.
type ExpenseHandler struct {
	Service Expenses
}

func (h *ExpenseHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Date        string          `json:"date"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	expense, err := h.Service.Create(r.Context(), auth.CallerFromContext(r.Context()), service.CreateExpenseInput{
		Amount:      body.Amount,
		Category:    body.Category,
		Description: body.Description,
		Date:        body.Date,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Message: "Expense created",
		Data:    expense,
	})
}

func (h *ExpenseHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.Service.List(r.Context(), auth.CallerFromContext(r.Context()), listQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Expenses fetched",
		Data:    expenses,
	})
}

func (h *ExpenseHandler) GetExpense(w http.ResponseWriter, r *http.Request) {
	expense, err := h.Service.Get(r.Context(), auth.CallerFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Expense fetched",
		Data:    expense,
	})
}

func (h *ExpenseHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	expense, err := h.Service.SetStatus(r.Context(), auth.CallerFromContext(r.Context()), r.PathValue("id"), body.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Status updated",
		Data:    expense,
	})
}

func (h *ExpenseHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	totals, err := h.Service.CategoryTotals(r.Context(), auth.CallerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Analytics fetched",
		Data:    totals,
	})
}

func listQuery(r *http.Request) service.ListQuery {
	q := r.URL.Query()
	return service.ListQuery{Category: q.Get("category"), Date: q.Get("date")}
}
