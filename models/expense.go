package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseStatus is the lifecycle state of an expense claim.
type ExpenseStatus uint8

const (
	StatusUnknown ExpenseStatus = iota
	StatusPending
	StatusApproved
	StatusRejected
)

func ParseExpenseStatus(s string) (ExpenseStatus, error) {
	switch strings.TrimSpace(s) {
	case "pending":
		return StatusPending, nil
	case "approved":
		return StatusApproved, nil
	case "rejected":
		return StatusRejected, nil
	default:
		return StatusUnknown, fmt.Errorf("unknown expense status %q", s)
	}
}

func (s ExpenseStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is allowed out of s.
func (s ExpenseStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

func (s ExpenseStatus) MarshalText() ([]byte, error) {
	if s == StatusUnknown {
		return nil, fmt.Errorf("cannot marshal unknown expense status")
	}
	return []byte(s.String()), nil
}

func (s *ExpenseStatus) UnmarshalText(b []byte) error {
	parsed, err := ParseExpenseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type Expense struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	Date        time.Time       `json:"date"`
	Status      ExpenseStatus   `json:"status"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ExpenseFilter narrows a store query. Zero values match everything.
type ExpenseFilter struct {
	OwnerID  string
	Category string
	Date     *time.Time
}

// CategoryTotal is one row of the spend-by-category aggregate.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// MarshalJSON writes Amount as a JSON number without losing digits.
func (e Expense) MarshalJSON() ([]byte, error) {
	type plain Expense
	return json.Marshal(struct {
		plain
		Amount json.Number `json:"amount"`
	}{plain(e), json.Number(e.Amount.String())})
}

// MarshalJSON writes Total as a JSON number without losing digits.
func (c CategoryTotal) MarshalJSON() ([]byte, error) {
	type plain CategoryTotal
	return json.Marshal(struct {
		plain
		Total json.Number `json:"total"`
	}{plain(c), json.Number(c.Total.String())})
}
