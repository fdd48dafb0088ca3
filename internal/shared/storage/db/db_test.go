package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func withMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	prev := openDB
	openDB = func(driverName, dsn string) (*sql.DB, error) {
		if driverName != "pgx" {
			t.Errorf("expected pgx driver, got %q", driverName)
		}
		return mockDB, nil
	}
	t.Cleanup(func() {
		openDB = prev
		_ = mockDB.Close()
	})
	return mock
}

func TestOptionsWithAppliesNonZeroOverrides(t *testing.T) {
	got := LambdaOptions().With(Options{MaxOpenConns: 7, ConnMaxIdleTime: 45 * time.Second})

	if got.MaxOpenConns != 7 || got.ConnMaxIdleTime != 45*time.Second {
		t.Fatalf("overrides not applied: %+v", got)
	}
	if got.MaxIdleConns != 1 || got.PingTimeout != 3*time.Second {
		t.Fatalf("profile values lost: %+v", got)
	}
}

func TestOpenAppliesPoolAndPings(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectPing()

	database, err := Open(context.Background(), "postgres://audit", ServerOptions().With(Options{MaxOpenConns: 4}))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := database.Stats().MaxOpenConnections; got != 4 {
		t.Fatalf("expected 4 max open connections, got %d", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestOpenFailsWhenPingFails(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	_, err := Open(context.Background(), "postgres://audit", MigrateOptions())
	if err == nil || !strings.Contains(err.Error(), "ping database") {
		t.Fatalf("expected ping error, got %v", err)
	}
}

func TestOpenRequiresURL(t *testing.T) {
	if _, err := Open(context.Background(), "  ", ServerOptions()); !errors.Is(err, ErrNoURL) {
		t.Fatalf("expected ErrNoURL, got %v", err)
	}
}

func TestPingNilDatabaseIsHealthy(t *testing.T) {
	if err := Ping(context.Background(), nil, time.Second); err != nil {
		t.Fatalf("expected nil error for nil db, got %v", err)
	}
}

func TestMigrationsAreEmbedded(t *testing.T) {
	names, err := MigrationNames()
	if err != nil {
		t.Fatalf("MigrationNames: %v", err)
	}
	if len(names) == 0 || names[0] != "00001_analysis_runs.sql" {
		t.Fatalf("unexpected migrations %v", names)
	}
}
