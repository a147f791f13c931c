package db

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
)

// TestNew_PingError ensures that ping failures are propagated
// even when closing the connection succeeds.
func TestNew_PingError(t *testing.T) {
	// Use an unreachable DSN to trigger ping error quickly
	dsn := "invalid:invalid@tcp(127.0.0.1:0)/dbname"
	db, err := New(dsn, 1, 1, time.Second)
	if err == nil {
		if db != nil {
			_ = db.Close()
		}
		t.Fatalf("expected error, got nil")
	}
}

func TestIsDuplicateEntry(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	other := &mysql.MySQLError{Number: 1213, Message: "Deadlock"}

	if !IsDuplicateEntry(dup) {
		t.Error("expected 1062 to be a duplicate entry")
	}
	if !IsDuplicateEntry(fmt.Errorf("insert file: %w", dup)) {
		t.Error("expected wrapped 1062 to be a duplicate entry")
	}
	if IsDuplicateEntry(other) {
		t.Error("did not expect 1213 to be a duplicate entry")
	}
	if IsDuplicateEntry(errors.New("boom")) {
		t.Error("did not expect plain error to be a duplicate entry")
	}
}
