package sqlite

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"
)

type SQLiteDB struct {
	Conn *sql.DB
	Path string
}

func NewSQLiteDB(path string) *SQLiteDB {
	return &SQLiteDB{Path: path}
}

// Connect opens the database file. A single connection is kept so that
// writes serialise and ":memory:" databases are shared by every query.
func (s *SQLiteDB) Connect(ctx context.Context) error {
	conn, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return err
	}
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return err
	}
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return err
	}
	s.Conn = conn
	return nil
}

func (s *SQLiteDB) Disconnect(context.Context) error {
	if s.Conn != nil {
		return s.Conn.Close()
	}
	return nil
}
