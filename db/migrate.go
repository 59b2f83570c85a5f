package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFS embed.FS

// RunMigrations applies the embedded schema for dbType to conn.
// The caller keeps ownership of conn.
func RunMigrations(dbType DBType, conn *sql.DB) error {
	var (
		driver database.Driver
		dir    string
		err    error
	)
	switch dbType {
	case Postgres:
		dir = "migrations/postgres"
		driver, err = postgres.WithInstance(conn, &postgres.Config{})
	case SQLite:
		dir = "migrations/sqlite"
		driver, err = sqlite.WithInstance(conn, &sqlite.Config{})
	default:
		return fmt.Errorf("migrations not supported for %s", dbType)
	}
	if err != nil {
		return fmt.Errorf("could not start %s migration driver: %w", dbType, err)
	}

	source, err := iofs.New(migrationFS, dir)
	if err != nil {
		return fmt.Errorf("could not open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, string(dbType), driver)
	if err != nil {
		return fmt.Errorf("migration failed to start: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run up migrations: %w", err)
	}

	log.Printf("migrations applied for %s", dbType)
	return nil
}
