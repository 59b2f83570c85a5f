package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"expensetracker/models"

	"github.com/google/uuid"
)

// SQLUserRepo stores users in Postgres or SQLite.
type SQLUserRepo struct {
	DB      *sql.DB
	dialect dialect
}

func NewPostgresUserRepo(db *sql.DB) *SQLUserRepo {
	return &SQLUserRepo{DB: db, dialect: postgresDialect}
}

func NewSQLiteUserRepo(db *sql.DB) *SQLUserRepo {
	return &SQLUserRepo{DB: db, dialect: sqliteDialect}
}

const userColumns = "id, email, password_hash, role, created_at"

func (r *SQLUserRepo) CreateUser(ctx context.Context, user *models.AppUser) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := r.DB.ExecContext(ctx, r.dialect.rebind(`
		INSERT INTO app_user (id, email, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), user.ID, user.Email, user.PasswordHash, user.Role.String(), user.CreatedAt)
	if err != nil {
		if r.dialect.isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *SQLUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.AppUser, error) {
	row := r.DB.QueryRowContext(ctx, r.dialect.rebind(
		"SELECT "+userColumns+" FROM app_user WHERE email = ?",
	), email)
	return scanUser(row)
}

func (r *SQLUserRepo) GetUserByID(ctx context.Context, id string) (*models.AppUser, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	row := r.DB.QueryRowContext(ctx, r.dialect.rebind(
		"SELECT "+userColumns+" FROM app_user WHERE id = ?",
	), id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.AppUser, error) {
	var (
		u    models.AppUser
		role string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	parsed, err := models.ParseRole(role)
	if err != nil {
		return nil, err
	}
	u.Role = parsed
	return &u, nil
}
