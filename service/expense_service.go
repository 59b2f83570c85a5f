// Package service implements the expense lifecycle on top of the store and
// the access-control policy.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"expensetracker/apperrors"
	"expensetracker/models"
	"expensetracker/policy"
	"expensetracker/repository"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// CreateExpenseInput is a claim as submitted by a caller. The owner is
// always the caller.
type CreateExpenseInput struct {
	Amount      decimal.Decimal
	Category    string
	Description string
	Date        string
}

// ListQuery holds the optional list filters. Date uses the 2006-01-02 layout.
type ListQuery struct {
	Category string
	Date     string
}

// ExpenseService applies policy and validation before every store call.
type ExpenseService struct {
	Repo repository.ExpenseRepository
	Now  func() time.Time
}

func NewExpenseService(repo repository.ExpenseRepository) *ExpenseService {
	return &ExpenseService{Repo: repo, Now: time.Now}
}

func (s *ExpenseService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *ExpenseService) Create(ctx context.Context, caller *models.AppUser, in CreateExpenseInput) (*models.Expense, error) {
	if err := policy.Authorize(caller, policy.OpCreateExpense, nil); err != nil {
		return nil, err
	}

	category := strings.TrimSpace(in.Category)
	if !in.Amount.IsPositive() {
		return nil, apperrors.New(apperrors.KindValidation, "amount must be greater than zero")
	}
	if category == "" {
		return nil, apperrors.New(apperrors.KindValidation, "category is required")
	}
	date, err := parseDate(in.Date)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expense := &models.Expense{
		Amount:      in.Amount,
		Category:    category,
		Description: strings.TrimSpace(in.Description),
		Date:        date,
		Status:      models.StatusPending,
		CreatedBy:   policy.OwnerFor(caller),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.CreateExpense(ctx, expense); err != nil {
		return nil, apperrors.Wrap(apperrors.KindStore, "create expense", err)
	}
	return expense, nil
}

// Get returns a single record the caller is allowed to see.
func (s *ExpenseService) Get(ctx context.Context, caller *models.AppUser, id string) (*models.Expense, error) {
	if caller == nil {
		return nil, policy.Authorize(nil, policy.OpViewExpense, nil)
	}
	expense, err := s.Repo.GetExpense(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStore, "get expense", err)
	}
	// Records outside the caller's scope are reported as absent.
	if expense == nil || !policy.Decide(caller, policy.OpViewExpense, expense).Allowed {
		return nil, apperrors.New(apperrors.KindNotFound, "expense not found")
	}
	return expense, nil
}

// List returns the caller's visible records, newest date first.
func (s *ExpenseService) List(ctx context.Context, caller *models.AppUser, q ListQuery) ([]*models.Expense, error) {
	filter, err := s.scope(caller, policy.OpListExpenses, q)
	if err != nil {
		return nil, err
	}
	expenses, err := s.Repo.ListExpenses(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStore, "list expenses", err)
	}
	if expenses == nil {
		expenses = []*models.Expense{}
	}
	return expenses, nil
}

// SetStatus moves a pending record to approved or rejected. Only one of
// several concurrent calls on the same record can succeed.
func (s *ExpenseService) SetStatus(ctx context.Context, caller *models.AppUser, id, status string) (*models.Expense, error) {
	if err := policy.Authorize(caller, policy.OpTransitionStatus, nil); err != nil {
		return nil, err
	}

	to, err := models.ParseExpenseStatus(status)
	if err != nil || !to.Terminal() {
		return nil, apperrors.New(apperrors.KindValidation, "status must be approved or rejected")
	}

	updated, err := s.Repo.TransitionStatus(ctx, id, models.StatusPending, to, s.now())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStore, "update expense status", err)
	}
	if updated != nil {
		return updated, nil
	}

	current, err := s.Repo.GetExpense(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStore, "get expense", err)
	}
	if current == nil {
		return nil, apperrors.New(apperrors.KindNotFound, "expense not found")
	}
	return nil, apperrors.New(apperrors.KindConflict, fmt.Sprintf("expense is already %s", current.Status))
}

// AggregateByCategory sums the caller's visible amounts per category.
func (s *ExpenseService) AggregateByCategory(ctx context.Context, caller *models.AppUser) (map[string]decimal.Decimal, error) {
	rows, err := s.CategoryTotals(ctx, caller)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		totals[row.Category] = row.Total
	}
	return totals, nil
}

// CategoryTotals is AggregateByCategory as ordered rows with counts.
func (s *ExpenseService) CategoryTotals(ctx context.Context, caller *models.AppUser) ([]models.CategoryTotal, error) {
	filter, err := s.scope(caller, policy.OpViewAnalytics, ListQuery{})
	if err != nil {
		return nil, err
	}
	rows, err := s.Repo.CategoryTotals(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStore, "aggregate expenses", err)
	}
	if rows == nil {
		rows = []models.CategoryTotal{}
	}
	return rows, nil
}

// Report collects the visible records and totals for export.
func (s *ExpenseService) Report(ctx context.Context, caller *models.AppUser, q ListQuery) (*models.ExpenseReport, error) {
	filter, err := s.scope(caller, policy.OpExportReport, q)
	if err != nil {
		return nil, err
	}
	expenses, err := s.Repo.ListExpenses(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStore, "list expenses", err)
	}
	categories, err := s.Repo.CategoryTotals(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStore, "aggregate expenses", err)
	}

	total := decimal.Zero
	for _, c := range categories {
		total = total.Add(c.Total)
	}
	title := "All expenses"
	if !caller.IsAdmin() {
		title = "Expenses for " + caller.Email
	}
	return &models.ExpenseReport{
		Title:       title,
		GeneratedAt: s.now(),
		GeneratedBy: caller,
		Expenses:    expenses,
		Categories:  categories,
		Total:       total,
	}, nil
}

func (s *ExpenseService) scope(caller *models.AppUser, op policy.Operation, q ListQuery) (models.ExpenseFilter, error) {
	if err := policy.Authorize(caller, op, nil); err != nil {
		return models.ExpenseFilter{}, err
	}
	filter := policy.ListScope(caller)
	filter.Category = strings.TrimSpace(q.Category)
	if strings.TrimSpace(q.Date) != "" {
		date, err := parseDate(q.Date)
		if err != nil {
			return models.ExpenseFilter{}, err
		}
		filter.Date = &date
	}
	return filter, nil
}

// parseDate accepts a calendar date or an RFC 3339 timestamp and returns
// midnight UTC of that calendar day.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, apperrors.New(apperrors.KindValidation, "date is required")
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		t, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, apperrors.Wrap(apperrors.KindValidation, "date must be YYYY-MM-DD", err)
		}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}
