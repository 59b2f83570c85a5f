package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"expensetracker/apperrors"
	"expensetracker/db"
	"expensetracker/db/sqlite"
	"expensetracker/models"
	"expensetracker/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ServiceTestSuite struct {
	suite.Suite
	store *sqlite.SQLiteDB
	repo  repository.ExpenseRepository
	svc   *ExpenseService
	admin *models.AppUser
	emp   *models.AppUser
	emp2  *models.AppUser
	ctx   context.Context
}

func (suite *ServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = sqlite.NewSQLiteDB(":memory:")
	require.NoError(suite.T(), suite.store.Connect(suite.ctx))
	require.NoError(suite.T(), db.RunMigrations(db.SQLite, suite.store.Conn))

	users := repository.NewSQLiteUserRepo(suite.store.Conn)
	suite.admin = suite.createUser(users, "boss@example.com", models.RoleAdmin)
	suite.emp = suite.createUser(users, "ana@example.com", models.RoleEmployee)
	suite.emp2 = suite.createUser(users, "ben@example.com", models.RoleEmployee)

	suite.repo = repository.NewSQLiteExpenseRepo(suite.store.Conn)
	suite.svc = NewExpenseService(suite.repo)
}

func (suite *ServiceTestSuite) TearDownTest() {
	suite.store.Disconnect(suite.ctx)
}

func (suite *ServiceTestSuite) createUser(users repository.UserRepository, email string, role models.Role) *models.AppUser {
	u := &models.AppUser{Email: email, PasswordHash: "hash", Role: role}
	require.NoError(suite.T(), users.CreateUser(suite.ctx, u))
	return u
}

func (suite *ServiceTestSuite) submit(caller *models.AppUser, amount, category, date string) *models.Expense {
	e, err := suite.svc.Create(suite.ctx, caller, CreateExpenseInput{
		Amount:   decimal.RequireFromString(amount),
		Category: category,
		Date:     date,
	})
	require.NoError(suite.T(), err)
	return e
}

func (suite *ServiceTestSuite) TestCreateStampsOwnerAndPending() {
	e := suite.submit(suite.emp, "12.50", " Food ", "2025-03-04")

	assert.Equal(suite.T(), suite.emp.ID, e.CreatedBy)
	assert.Equal(suite.T(), models.StatusPending, e.Status)
	assert.Equal(suite.T(), "Food", e.Category)
	assert.Equal(suite.T(), time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), e.Date)

	stored, err := suite.repo.GetExpense(suite.ctx, e.ID)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), decimal.RequireFromString("12.5").Equal(stored.Amount))
}

func (suite *ServiceTestSuite) TestCreateAcceptsTimestamp() {
	e := suite.submit(suite.emp, "1", "Food", "2025-03-04T18:30:00Z")
	assert.Equal(suite.T(), time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), e.Date)
}

func (suite *ServiceTestSuite) TestCreateValidation() {
	tests := []struct {
		name string
		in   CreateExpenseInput
	}{
		{"zero amount", CreateExpenseInput{Amount: decimal.Zero, Category: "Food", Date: "2025-03-01"}},
		{"negative amount", CreateExpenseInput{Amount: decimal.NewFromInt(-5), Category: "Food", Date: "2025-03-01"}},
		{"blank category", CreateExpenseInput{Amount: decimal.NewFromInt(5), Category: "  ", Date: "2025-03-01"}},
		{"missing date", CreateExpenseInput{Amount: decimal.NewFromInt(5), Category: "Food"}},
		{"bad date", CreateExpenseInput{Amount: decimal.NewFromInt(5), Category: "Food", Date: "03/01/2025"}},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := suite.svc.Create(suite.ctx, suite.emp, tt.in)
			assert.ErrorIs(suite.T(), err, apperrors.ErrValidation)
		})
	}

	all, err := suite.svc.List(suite.ctx, suite.admin, ListQuery{})
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), all)
}

func (suite *ServiceTestSuite) TestCreateRequiresCaller() {
	_, err := suite.svc.Create(suite.ctx, nil, CreateExpenseInput{Amount: decimal.NewFromInt(1), Category: "Food", Date: "2025-03-01"})
	assert.ErrorIs(suite.T(), err, apperrors.ErrUnauthorized)
}

func (suite *ServiceTestSuite) TestListScopeByRole() {
	suite.submit(suite.emp, "10", "Food", "2025-03-01")
	suite.submit(suite.emp, "20", "Travel", "2025-03-03")
	suite.submit(suite.emp, "30", "Food", "2025-03-02")
	suite.submit(suite.admin, "40", "Office", "2025-03-05")
	suite.submit(suite.admin, "50", "Food", "2025-03-04")

	mine, err := suite.svc.List(suite.ctx, suite.emp, ListQuery{})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), mine, 3)
	for _, e := range mine {
		assert.Equal(suite.T(), suite.emp.ID, e.CreatedBy)
	}
	assert.Equal(suite.T(), []string{"2025-03-03", "2025-03-02", "2025-03-01"}, dates(mine))

	all, err := suite.svc.List(suite.ctx, suite.admin, ListQuery{})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), all, 5)
	assert.Equal(suite.T(), []string{"2025-03-05", "2025-03-04", "2025-03-03", "2025-03-02", "2025-03-01"}, dates(all))

	none, err := suite.svc.List(suite.ctx, suite.emp2, ListQuery{})
	require.NoError(suite.T(), err)
	assert.NotNil(suite.T(), none)
	assert.Empty(suite.T(), none)
}

func (suite *ServiceTestSuite) TestListFilters() {
	suite.submit(suite.emp, "10", "Food", "2025-03-01")
	suite.submit(suite.emp, "20", "Travel", "2025-03-01")
	suite.submit(suite.emp2, "30", "Food", "2025-03-02")

	food, err := suite.svc.List(suite.ctx, suite.admin, ListQuery{Category: "Food"})
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), food, 2)

	firstDay, err := suite.svc.List(suite.ctx, suite.emp, ListQuery{Date: "2025-03-01"})
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), firstDay, 2)

	both, err := suite.svc.List(suite.ctx, suite.emp, ListQuery{Category: "Food", Date: "2025-03-02"})
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), both, "filters never widen an employee's scope")

	_, err = suite.svc.List(suite.ctx, suite.emp, ListQuery{Date: "yesterday"})
	assert.ErrorIs(suite.T(), err, apperrors.ErrValidation)
}

func (suite *ServiceTestSuite) TestGetChecksOwnership() {
	e := suite.submit(suite.emp, "10", "Food", "2025-03-01")

	got, err := suite.svc.Get(suite.ctx, suite.emp, e.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), e.ID, got.ID)

	_, err = suite.svc.Get(suite.ctx, suite.admin, e.ID)
	assert.NoError(suite.T(), err)

	// Another employee cannot tell the record exists.
	_, err = suite.svc.Get(suite.ctx, suite.emp2, e.ID)
	assert.ErrorIs(suite.T(), err, apperrors.ErrNotFound)
	assert.Equal(suite.T(), "expense not found", apperrors.MessageOf(err))

	_, err = suite.svc.Get(suite.ctx, suite.admin, "missing")
	assert.ErrorIs(suite.T(), err, apperrors.ErrNotFound)
}

func (suite *ServiceTestSuite) TestEmployeeCannotChangeStatus() {
	e := suite.submit(suite.emp, "10", "Food", "2025-03-01")

	for _, caller := range []*models.AppUser{suite.emp, suite.emp2} {
		_, err := suite.svc.SetStatus(suite.ctx, caller, e.ID, "approved")
		assert.ErrorIs(suite.T(), err, apperrors.ErrForbidden)
	}

	stored, err := suite.repo.GetExpense(suite.ctx, e.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.StatusPending, stored.Status)
}

func (suite *ServiceTestSuite) TestAdminApprovesAnyExpense() {
	e := suite.submit(suite.emp, "10", "Food", "2025-03-01")

	updated, err := suite.svc.SetStatus(suite.ctx, suite.admin, e.ID, "approved")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.StatusApproved, updated.Status)
	assert.Equal(suite.T(), suite.emp.ID, updated.CreatedBy)

	stored, err := suite.repo.GetExpense(suite.ctx, e.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.StatusApproved, stored.Status)
}

func (suite *ServiceTestSuite) TestSetStatusErrors() {
	e := suite.submit(suite.emp, "10", "Food", "2025-03-01")

	for _, status := range []string{"pending", "paid", ""} {
		_, err := suite.svc.SetStatus(suite.ctx, suite.admin, e.ID, status)
		assert.ErrorIs(suite.T(), err, apperrors.ErrValidation, status)
	}

	_, err := suite.svc.SetStatus(suite.ctx, suite.admin, "6f1c3a52-2c39-4c1f-9d53-9f0a4d3b7e10", "approved")
	assert.ErrorIs(suite.T(), err, apperrors.ErrNotFound)

	_, err = suite.svc.SetStatus(suite.ctx, suite.admin, e.ID, "rejected")
	require.NoError(suite.T(), err)

	_, err = suite.svc.SetStatus(suite.ctx, suite.admin, e.ID, "approved")
	assert.ErrorIs(suite.T(), err, apperrors.ErrConflict)
	assert.Equal(suite.T(), "expense is already rejected", apperrors.MessageOf(err))
}

func (suite *ServiceTestSuite) TestConcurrentDecisionsHaveOneWinner() {
	e := suite.submit(suite.emp, "10", "Food", "2025-03-01")

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, status := range []string{"approved", "rejected"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[i] = suite.svc.SetStatus(suite.ctx, suite.admin, e.ID, status)
		}()
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, apperrors.ErrConflict):
			conflicts++
		}
	}
	assert.Equal(suite.T(), 1, wins)
	assert.Equal(suite.T(), 1, conflicts)

	stored, err := suite.repo.GetExpense(suite.ctx, e.ID)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), stored.Status.Terminal())
}

func (suite *ServiceTestSuite) TestAggregateByCategory() {
	suite.submit(suite.emp, "100", "Food", "2025-03-01")
	suite.submit(suite.emp, "50", "Food", "2025-03-02")
	suite.submit(suite.emp, "30", "Travel", "2025-03-03")
	suite.submit(suite.emp2, "7", "Office", "2025-03-03")

	mine, err := suite.svc.AggregateByCategory(suite.ctx, suite.emp)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), mine, 2)
	assert.True(suite.T(), decimal.NewFromInt(150).Equal(mine["Food"]))
	assert.True(suite.T(), decimal.NewFromInt(30).Equal(mine["Travel"]))

	all, err := suite.svc.CategoryTotals(suite.ctx, suite.admin)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), all, 3)
	assert.Equal(suite.T(), "Food", all[0].Category)
	assert.Equal(suite.T(), 2, all[0].Count)

	everyone, err := suite.svc.AggregateByCategory(suite.ctx, suite.admin)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), everyone, 3)
	assert.True(suite.T(), decimal.NewFromInt(7).Equal(everyone["Office"]))
}

func (suite *ServiceTestSuite) TestAggregateIsExact() {
	suite.submit(suite.emp, "0.1", "Food", "2025-03-01")
	suite.submit(suite.emp, "0.2", "Food", "2025-03-02")
	big := suite.submit(suite.emp, "12345678901234567.89", "Travel", "2025-03-03")
	suite.submit(suite.emp, "0.125", "Travel", "2025-03-04")

	totals, err := suite.svc.AggregateByCategory(suite.ctx, suite.emp)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "0.3", totals["Food"].String())
	assert.Equal(suite.T(), "12345678901234568.015", totals["Travel"].String())

	stored, err := suite.svc.Get(suite.ctx, suite.emp, big.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "12345678901234567.89", stored.Amount.String())

	r, err := suite.svc.Report(suite.ctx, suite.emp, ListQuery{})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "12345678901234568.315", r.Total.String())
}

func (suite *ServiceTestSuite) TestReport() {
	suite.submit(suite.emp, "100", "Food", "2025-03-01")
	suite.submit(suite.emp, "30.25", "Travel", "2025-03-03")
	suite.submit(suite.emp2, "7", "Office", "2025-03-03")

	r, err := suite.svc.Report(suite.ctx, suite.emp, ListQuery{})
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), r.Expenses, 2)
	assert.Len(suite.T(), r.Categories, 2)
	assert.True(suite.T(), decimal.RequireFromString("130.25").Equal(r.Total))
	assert.Equal(suite.T(), "Expenses for ana@example.com", r.Title)

	r, err = suite.svc.Report(suite.ctx, suite.admin, ListQuery{Category: "Office"})
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), r.Expenses, 1)
	assert.Equal(suite.T(), "All expenses", r.Title)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func dates(expenses []*models.Expense) []string {
	out := make([]string, len(expenses))
	for i, e := range expenses {
		out[i] = e.Date.Format(dateLayout)
	}
	return out
}

type brokenRepo struct {
	repository.ExpenseRepository
}

func (brokenRepo) ListExpenses(context.Context, models.ExpenseFilter) ([]*models.Expense, error) {
	return nil, errors.New("connection reset")
}

func TestStoreErrorsAreWrapped(t *testing.T) {
	svc := NewExpenseService(brokenRepo{})
	_, err := svc.List(context.Background(), &models.AppUser{ID: "u", Role: models.RoleAdmin}, ListQuery{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStore)
	assert.Contains(t, err.Error(), "connection reset")
}
