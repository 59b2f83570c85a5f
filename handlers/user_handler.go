package handlers

import (
	"context"
	"net/http"

	"expensetracker/auth"
)

// Credentials is the subset of auth.CredentialVerifier used over HTTP.
type Credentials interface {
	Register(ctx context.Context, in auth.RegisterInput) (*auth.Session, error)
	Authenticate(ctx context.Context, email, password string) (*auth.Session, error)
}

type UserHandler struct {
	Auth Credentials
}

// Signup handler
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
		Role            string `json:"role"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.Auth.Register(r.Context(), auth.RegisterInput{
		Email:           body.Email,
		Password:        body.Password,
		ConfirmPassword: body.ConfirmPassword,
		Role:            body.Role,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Message: "Signup successful",
		Data:    session,
	})
}

// Login handler
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &creds); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.Auth.Authenticate(r.Context(), creds.Email, creds.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Login successful",
		Data:    session,
	})
}
