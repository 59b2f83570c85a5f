package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"expensetracker/config"
	"expensetracker/models"
	"expensetracker/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteArgs(t *testing.T, extra ...string) ([]string, string) {
	t.Helper()
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("BCRYPT_COST", "4")
	dbPath := filepath.Join(t.TempDir(), "expenses.db")
	return append([]string{"-db-type", "sqlite", "-db", dbPath}, extra...), dbPath
}

func lookup(t *testing.T, dbPath, email string) *models.AppUser {
	t.Helper()
	ctx := context.Background()
	store, err := repository.Open(ctx, &config.Config{DBType: "sqlite", SQLitePath: dbPath})
	require.NoError(t, err)
	defer store.Close(ctx)
	u, err := store.Users.GetUserByEmail(ctx, email)
	require.NoError(t, err)
	return u
}

func TestRun_Success(t *testing.T) {
	args, dbPath := sqliteArgs(t, "-email", "boss@example.com", "-password", "secret")
	stdout := new(bytes.Buffer)

	err := run(args, new(bytes.Buffer), stdout, new(bytes.Buffer))
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "User boss@example.com created successfully with role admin")

	u := lookup(t, dbPath, "boss@example.com")
	require.NotNil(t, u)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.NotEqual(t, "secret", u.PasswordHash)
}

func TestRun_EmployeeRole(t *testing.T) {
	args, dbPath := sqliteArgs(t, "-email", "ana@example.com", "-password", "secret", "-role", "employee")

	require.NoError(t, run(args, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer)))
	assert.Equal(t, models.RoleEmployee, lookup(t, dbPath, "ana@example.com").Role)
}

func TestRun_PromptsForPassword(t *testing.T) {
	args, dbPath := sqliteArgs(t, "-email", "boss@example.com")
	stdout := new(bytes.Buffer)

	err := run(args, strings.NewReader("typed-secret\n"), stdout, new(bytes.Buffer))
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Password: ")
	assert.NotNil(t, lookup(t, dbPath, "boss@example.com"))
}

func TestRun_DuplicateUser(t *testing.T) {
	args, _ := sqliteArgs(t, "-email", "boss@example.com", "-password", "secret")

	require.NoError(t, run(args, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer)), "first run should succeed")

	err := run(args, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err, "expected error on duplicate user")
	assert.Contains(t, err.Error(), "already exists")
}

func TestRun_MissingEmailFlag(t *testing.T) {
	args, _ := sqliteArgs(t, "-password", "secret")
	stdout := new(bytes.Buffer)

	err := run(args, new(bytes.Buffer), stdout, new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required flags: email")
	assert.Contains(t, stdout.String(), "Usage: adduser")
}

func TestRun_InvalidRole(t *testing.T) {
	args, _ := sqliteArgs(t, "-email", "x@example.com", "-password", "secret", "-role", "owner")

	err := run(args, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}

func TestRun_EmptyPassword(t *testing.T) {
	args, _ := sqliteArgs(t, "-email", "x@example.com")

	err := run(args, strings.NewReader("   \n"), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password cannot be empty")
}
