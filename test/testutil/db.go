package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/fhuszti/uploads-ms-go/internal/migration"
)

type TestDB struct {
	DB      *sql.DB
	Cleanup func() error
}

// SetupTestDB creates a fresh, migrated database on the server of TEST_DB_DSN.
func SetupTestDB() (*TestDB, error) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		return nil, fmt.Errorf("TEST_DB_DSN env-var not set")
	}

	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DSN %q: %w", dsn, err)
	}

	origName := cfg.DBName
	cfg.DBName = ""
	rootDB, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open root DB: %w", err)
	}

	dbName := fmt.Sprintf("%s_%d", origName, time.Now().UnixNano())
	if _, err := rootDB.Exec("CREATE DATABASE " + dbName); err != nil {
		_ = rootDB.Close()
		return nil, err
	}

	cfg.DBName = dbName
	cfg.MultiStatements = true
	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		_, _ = rootDB.Exec("DROP DATABASE " + dbName)
		_ = rootDB.Close()
		return nil, fmt.Errorf("open test DB %q: %w", dbName, err)
	}

	cleanup := func() error {
		if err := db.Close(); err != nil {
			return err
		}
		if _, err := rootDB.Exec("DROP DATABASE " + dbName); err != nil {
			_ = rootDB.Close()
			return fmt.Errorf("drop database %q: %w", dbName, err)
		}
		return rootDB.Close()
	}

	if err := migration.MigrateUp(db); err != nil {
		_ = cleanup()
		return nil, fmt.Errorf("migrate %q: %w", dbName, err)
	}

	return &TestDB{DB: db, Cleanup: cleanup}, nil
}

// SeedUser creates a user holding credits.
func SeedUser(db *sql.DB, userID string, credits int) error {
	_, err := db.Exec("INSERT INTO users (id, available_credits) VALUES (?, ?)", userID, credits)
	return err
}

// UserCredits returns the credit balance of userID.
func UserCredits(db *sql.DB, userID string) (int, error) {
	var credits int
	err := db.QueryRow("SELECT available_credits FROM users WHERE id = ?", userID).Scan(&credits)
	return credits, err
}
