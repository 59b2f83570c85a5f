package repository

import (
	"context"
	"fmt"

	"expensetracker/config"
	"expensetracker/db"
	mongodb "expensetracker/db/mongo"
	"expensetracker/db/postgres"
	"expensetracker/db/sqlite"
)

// Store is an open backend with its repositories.
type Store struct {
	Users    UserRepository
	Expenses ExpenseRepository
	conn     db.DB
}

// Close disconnects the underlying backend.
func (s *Store) Close(ctx context.Context) error {
	return s.conn.Disconnect(ctx)
}

// Open connects to the backend selected by cfg.DBType and prepares its
// schema: migrations for SQL backends, indexes for Mongo.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch db.DBType(cfg.DBType) {
	case db.Postgres:
		pg := postgres.NewPostgresDB(cfg.PostgresURL)
		if err := pg.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := db.RunMigrations(db.Postgres, pg.Conn); err != nil {
			pg.Disconnect(ctx)
			return nil, err
		}
		return &Store{
			Users:    NewPostgresUserRepo(pg.Conn),
			Expenses: NewPostgresExpenseRepo(pg.Conn),
			conn:     pg,
		}, nil

	case db.SQLite:
		lite := sqlite.NewSQLiteDB(cfg.SQLitePath)
		if err := lite.Connect(ctx); err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		if err := db.RunMigrations(db.SQLite, lite.Conn); err != nil {
			lite.Disconnect(ctx)
			return nil, err
		}
		return &Store{
			Users:    NewSQLiteUserRepo(lite.Conn),
			Expenses: NewSQLiteExpenseRepo(lite.Conn),
			conn:     lite,
		}, nil

	case db.Mongo:
		mg := mongodb.NewMongoDB(cfg.MongoURL, cfg.MongoDatabase)
		if err := mg.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		users := NewMongoUserRepo(mg.Database())
		expenses := NewMongoExpenseRepo(mg.Database())
		for _, ensure := range []func(context.Context) error{users.EnsureIndexes, expenses.EnsureIndexes} {
			if err := ensure(ctx); err != nil {
				mg.Disconnect(ctx)
				return nil, fmt.Errorf("ensure mongo indexes: %w", err)
			}
		}
		return &Store{Users: users, Expenses: expenses, conn: mg}, nil

	default:
		return nil, fmt.Errorf("DB_TYPE %q not supported", cfg.DBType)
	}
}
