package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of capabilities a user can hold.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleEmployee
	RoleAdmin
)

// ParseRole converts the wire/storage spelling of a role.
func ParseRole(s string) (Role, error) {
	switch strings.TrimSpace(s) {
	case "employee":
		return RoleEmployee, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return RoleUnknown, fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string {
	switch r {
	case RoleEmployee:
		return "employee"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

func (r Role) MarshalText() ([]byte, error) {
	if r == RoleUnknown {
		return nil, fmt.Errorf("cannot marshal unknown role")
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

type AppUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the user holds the approver role.
func (u *AppUser) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
