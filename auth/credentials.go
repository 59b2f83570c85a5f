package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"expensetracker/apperrors"
	"expensetracker/models"
	"expensetracker/repository"
)

// RegisterInput is the sign-up request.
type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	Role            string
}

// Session is returned by every successful sign-up or login.
type Session struct {
	User      *models.AppUser `json:"user"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// CredentialVerifier registers users and exchanges credentials for tokens.
type CredentialVerifier struct {
	Users  repository.UserRepository
	Hasher PasswordHasher
	Tokens *TokenIssuer
}

func NewCredentialVerifier(users repository.UserRepository, hasher PasswordHasher, tokens *TokenIssuer) *CredentialVerifier {
	return &CredentialVerifier{Users: users, Hasher: hasher, Tokens: tokens}
}

func (v *CredentialVerifier) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" || in.ConfirmPassword == "" || strings.TrimSpace(in.Role) == "" {
		return nil, apperrors.New(apperrors.KindValidation, "all fields are required")
	}
	if in.Password != in.ConfirmPassword {
		return nil, apperrors.New(apperrors.KindValidation, "passwords do not match")
	}
	role, err := models.ParseRole(in.Role)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, "role must be employee or admin", err)
	}

	existing, err := v.Users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStore, "look up user", err)
	}
	if existing != nil {
		return nil, apperrors.New(apperrors.KindConflict, "user already exists")
	}

	hash, err := v.Hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, "password rejected", err)
	}

	user := &models.AppUser{
		Email:        email,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := v.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.New(apperrors.KindConflict, "user already exists")
		}
		return nil, apperrors.Wrap(apperrors.KindStore, "create user", err)
	}
	return v.issue(user)
}

func (v *CredentialVerifier) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.New(apperrors.KindValidation, "email and password are required")
	}

	user, err := v.Users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStore, "look up user", err)
	}
	if user == nil {
		return nil, apperrors.New(apperrors.KindNotFound, "user not found")
	}
	if !v.Hasher.Matches(user.PasswordHash, password) {
		return nil, apperrors.New(apperrors.KindInvalidCredential, "invalid password")
	}
	return v.issue(user)
}

func (v *CredentialVerifier) issue(user *models.AppUser) (*Session, error) {
	token, exp, err := v.Tokens.Issue(user)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStore, "sign token", err)
	}
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}
