// Package policy decides what a caller may do with expense records.
package policy

import (
	"expensetracker/apperrors"
	"expensetracker/models"
)

// Operation is a guarded action on the expense store.
type Operation int

const (
	OpUnspecified Operation = iota
	// OpCreateExpense submits a new claim owned by the caller.
	OpCreateExpense
	// OpListExpenses reads the caller's visible records.
	OpListExpenses
	// OpViewExpense reads a single record.
	OpViewExpense
	// OpTransitionStatus approves or rejects a pending record.
	OpTransitionStatus
	// OpViewAnalytics reads per-category totals.
	OpViewAnalytics
	// OpExportReport renders the visible records to a document.
	OpExportReport
)

func (op Operation) String() string {
	switch op {
	case OpCreateExpense:
		return "create expense"
	case OpListExpenses:
		return "list expenses"
	case OpViewExpense:
		return "view expense"
	case OpTransitionStatus:
		return "update expense status"
	case OpViewAnalytics:
		return "view analytics"
	case OpExportReport:
		return "export report"
	default:
		return "unspecified"
	}
}

// Decision is the outcome of a policy check. Reason is set on denial.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// Decide reports whether caller may perform op. target is only consulted
// for operations on a single record and may be nil otherwise.
func Decide(caller *models.AppUser, op Operation, target *models.Expense) Decision {
	if caller == nil {
		return deny("authentication required")
	}

	switch caller.Role {
	case models.RoleAdmin:
		switch op {
		case OpCreateExpense, OpListExpenses, OpViewExpense, OpTransitionStatus, OpViewAnalytics, OpExportReport:
			return allow()
		}
		return deny("unknown operation")
	case models.RoleEmployee:
		switch op {
		case OpCreateExpense, OpListExpenses, OpViewAnalytics, OpExportReport:
			return allow()
		case OpViewExpense:
			if target == nil || target.CreatedBy != caller.ID {
				return deny("expense belongs to another user")
			}
			return allow()
		case OpTransitionStatus:
			return deny("only admins can update expense status")
		}
		return deny("unknown operation")
	default:
		return deny("unknown role")
	}
}

// Authorize is Decide as an error: nil when allowed, UnauthorizedError
// without a caller, ForbiddenError otherwise.
func Authorize(caller *models.AppUser, op Operation, target *models.Expense) error {
	d := Decide(caller, op, target)
	if d.Allowed {
		return nil
	}
	if caller == nil {
		return apperrors.New(apperrors.KindUnauthorized, d.Reason)
	}
	return apperrors.New(apperrors.KindForbidden, d.Reason)
}

// ListScope returns the store filter bounding what caller may read.
// Admins see every owner; everyone else sees only their own records.
func ListScope(caller *models.AppUser) models.ExpenseFilter {
	if caller.IsAdmin() {
		return models.ExpenseFilter{}
	}
	return models.ExpenseFilter{OwnerID: OwnerFor(caller)}
}

// OwnerFor is the owner id stamped on records the caller creates.
func OwnerFor(caller *models.AppUser) string {
	if caller == nil {
		return ""
	}
	return caller.ID
}
