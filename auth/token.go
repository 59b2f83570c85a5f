package auth

import (
	"errors"
	"strings"
	"time"

	"expensetracker/apperrors"
	"expensetracker/models"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the fixed validity window of a session token.
const DefaultTokenTTL = 7 * 24 * time.Hour

// TokenConfig defines how session tokens are signed and verified.
type TokenConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Now    func() time.Time
}

// Claims is the verified content of a session token.
type Claims struct {
	UserID    string
	Role      models.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type sessionClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// TokenIssuer signs and verifies HS256 session tokens. Verification needs
// nothing but the shared secret.
type TokenIssuer struct {
	cfg TokenConfig
}

func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTokenTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &TokenIssuer{cfg: cfg}, nil
}

// Issue mints a token binding the user's id and role.
func (t *TokenIssuer) Issue(user *models.AppUser) (string, time.Time, error) {
	now := t.cfg.Now().UTC().Truncate(time.Second)
	exp := now.Add(t.cfg.TTL)
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.cfg.Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserID: user.ID,
		Role:   user.Role.String(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.cfg.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks the signature, algorithm, issuer and expiry of raw.
func (t *TokenIssuer) Verify(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, apperrors.New(apperrors.KindUnauthorized, "token missing")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.cfg.Now),
	}
	if t.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.cfg.Issuer))
	}

	var parsed sessionClaims
	_, err := jwt.ParseWithClaims(raw, &parsed, func(*jwt.Token) (any, error) {
		return t.cfg.Secret, nil
	}, opts...)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}
	if strings.TrimSpace(parsed.UserID) == "" {
		return Claims{}, apperrors.New(apperrors.KindUnauthorized, "invalid token")
	}

	role, err := models.ParseRole(parsed.Role)
	if err != nil {
		return Claims{}, apperrors.Wrap(apperrors.KindUnauthorized, "invalid token", err)
	}
	claims := Claims{
		UserID:    parsed.UserID,
		Role:      role,
		ExpiresAt: parsed.ExpiresAt.Time.UTC(),
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}

// mapJWTError translates jwt library errors. Expired, tampered and
// malformed tokens all surface as "invalid token"; the cause keeps the detail.
func mapJWTError(err error) error {
	return apperrors.Wrap(apperrors.KindUnauthorized, "invalid token", err)
}
