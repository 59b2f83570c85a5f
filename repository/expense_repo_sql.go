package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"expensetracker/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SQLExpenseRepo stores expenses in Postgres or SQLite.
type SQLExpenseRepo struct {
	DB      *sql.DB
	dialect dialect
}

func NewPostgresExpenseRepo(db *sql.DB) *SQLExpenseRepo {
	return &SQLExpenseRepo{DB: db, dialect: postgresDialect}
}

func NewSQLiteExpenseRepo(db *sql.DB) *SQLExpenseRepo {
	return &SQLExpenseRepo{DB: db, dialect: sqliteDialect}
}

const expenseColumns = "id, amount, category, description, date, status, created_by, created_at, updated_at"

func (r *SQLExpenseRepo) CreateExpense(ctx context.Context, e *models.Expense) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}

	_, err := r.DB.ExecContext(ctx, r.dialect.rebind(`
		INSERT INTO expenses (`+expenseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), e.ID, e.Amount, e.Category, e.Description, e.Date, e.Status.String(), e.CreatedBy, e.CreatedAt, e.UpdatedAt)
	return err
}

func (r *SQLExpenseRepo) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	row := r.DB.QueryRowContext(ctx, r.dialect.rebind(
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?",
	), id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

func (r *SQLExpenseRepo) ListExpenses(ctx context.Context, filter models.ExpenseFilter) ([]*models.Expense, error) {
	where, args := sqlWhere(filter)
	rows, err := r.DB.QueryContext(ctx, r.dialect.rebind(
		"SELECT "+expenseColumns+" FROM expenses"+where+" ORDER BY date DESC, created_at ASC",
	), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*models.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// TransitionStatus is a single conditional UPDATE so concurrent callers
// cannot both move the same record out of from.
func (r *SQLExpenseRepo) TransitionStatus(ctx context.Context, id string, from, to models.ExpenseStatus, at time.Time) (*models.Expense, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	row := r.DB.QueryRowContext(ctx, r.dialect.rebind(`
		UPDATE expenses SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
		RETURNING `+expenseColumns,
	), to.String(), at, id, from.String())
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

func (r *SQLExpenseRepo) CategoryTotals(ctx context.Context, filter models.ExpenseFilter) ([]models.CategoryTotal, error) {
	if !r.dialect.exactSum {
		return r.sumByCategory(ctx, filter)
	}

	where, args := sqlWhere(filter)
	rows, err := r.DB.QueryContext(ctx, r.dialect.rebind(
		"SELECT category, SUM(amount), COUNT(*) FROM expenses"+where+" GROUP BY category ORDER BY category",
	), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.CategoryTotal{}
	for rows.Next() {
		var ct models.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total, &ct.Count); err != nil {
			return nil, err
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

// sumByCategory groups rows in Go so that amounts are added as decimals.
func (r *SQLExpenseRepo) sumByCategory(ctx context.Context, filter models.ExpenseFilter) ([]models.CategoryTotal, error) {
	where, args := sqlWhere(filter)
	rows, err := r.DB.QueryContext(ctx, r.dialect.rebind(
		"SELECT category, amount FROM expenses"+where+" ORDER BY category",
	), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.CategoryTotal{}
	for rows.Next() {
		var (
			category string
			amount   decimal.Decimal
		)
		if err := rows.Scan(&category, &amount); err != nil {
			return nil, err
		}
		if n := len(out); n > 0 && out[n-1].Category == category {
			out[n-1].Total = out[n-1].Total.Add(amount)
			out[n-1].Count++
			continue
		}
		out = append(out, models.CategoryTotal{Category: category, Total: amount, Count: 1})
	}
	return out, rows.Err()
}

func sqlWhere(filter models.ExpenseFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.OwnerID != "" {
		clauses = append(clauses, "created_by = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Date != nil {
		clauses = append(clauses, "date = ?")
		args = append(args, filter.Date.UTC())
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	var (
		e      models.Expense
		amount decimal.Decimal
		status string
	)
	if err := row.Scan(&e.ID, &amount, &e.Category, &e.Description, &e.Date, &status, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	parsed, err := models.ParseExpenseStatus(status)
	if err != nil {
		return nil, err
	}
	e.Amount = amount
	e.Status = parsed
	e.Date = e.Date.UTC()
	return &e, nil
}
