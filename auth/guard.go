package auth

import (
	"context"
	"strings"

	"expensetracker/apperrors"
	"expensetracker/models"
	"expensetracker/repository"
)

// SessionGuard resolves a bearer token to the caller's current user record.
type SessionGuard struct {
	Users  repository.UserRepository
	Tokens *TokenIssuer
}

func NewSessionGuard(users repository.UserRepository, tokens *TokenIssuer) *SessionGuard {
	return &SessionGuard{Users: users, Tokens: tokens}
}

// Authorize verifies rawToken and re-reads the user from the store, so the
// role used for decisions is never the one embedded in the token.
func (g *SessionGuard) Authorize(ctx context.Context, rawToken string) (*models.AppUser, error) {
	claims, err := g.Tokens.Verify(rawToken)
	if err != nil {
		return nil, err
	}

	user, err := g.Users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStore, "look up session user", err)
	}
	if user == nil {
		return nil, apperrors.New(apperrors.KindUnauthorized, "user not found")
	}
	return user, nil
}

// BearerToken extracts the credential from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

type contextKey string

const callerContextKey contextKey = "caller"

// WithCaller returns a copy of ctx carrying the authenticated user.
func WithCaller(ctx context.Context, user *models.AppUser) context.Context {
	return context.WithValue(ctx, callerContextKey, user)
}

// CallerFromContext returns the authenticated user, or nil.
func CallerFromContext(ctx context.Context) *models.AppUser {
	if user, ok := ctx.Value(callerContextKey).(*models.AppUser); ok {
		return user
	}
	return nil
}
