package repository

import (
	"context"
	"time"

	"expensetracker/models"
)

// ExpenseRepository defines the interface for expense operations.
type ExpenseRepository interface {
	// CreateExpense assigns an ID and inserts the record.
	CreateExpense(ctx context.Context, expense *models.Expense) error
	// GetExpense returns (nil, nil) when the id does not resolve.
	GetExpense(ctx context.Context, id string) (*models.Expense, error)
	// ListExpenses returns matches ordered by date descending, then creation order.
	ListExpenses(ctx context.Context, filter models.ExpenseFilter) ([]*models.Expense, error)
	// TransitionStatus atomically moves a record from one status to another.
	// It returns (nil, nil) when no record with that id is currently in from.
	TransitionStatus(ctx context.Context, id string, from, to models.ExpenseStatus, at time.Time) (*models.Expense, error)
	// CategoryTotals sums amounts per category, ordered by category.
	CategoryTotals(ctx context.Context, filter models.ExpenseFilter) ([]models.CategoryTotal, error)
}
