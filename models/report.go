package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseReport is the data rendered into an exported PDF report.
type ExpenseReport struct {
	Title       string
	GeneratedAt time.Time
	GeneratedBy *AppUser
	Expenses    []*Expense
	Categories  []CategoryTotal
	Total       decimal.Decimal
}
