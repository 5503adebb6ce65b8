package db

import (
	"context"
	"database/sql"
	"draftdesk/config"
	_ "embed"
	"fmt"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

var DB *sql.DB

func InitDB(cfg config.DBConfig) error {
	if cfg.URL == "" {
		return fmt.Errorf("database url not set")
	}

	conn, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("pinging database: %w", err)
	}
	DB = conn
	return nil
}

// SetDB swaps the shared handle, used by tests with sqlmock.
func SetDB(conn *sql.DB) {
	DB = conn
}

func GetDB() *sql.DB {
	return DB
}

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context) error {
	if DB == nil {
		return fmt.Errorf("database not initialised")
	}
	if _, err := DB.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}
