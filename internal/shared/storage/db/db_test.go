package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeDriver accepts every statement and answers pings with pingErr.
type fakeDriver struct{ pingErr error }

func (d fakeDriver) Open(string) (driver.Conn, error) { return fakeConn(d), nil }

type fakeConn struct{ pingErr error }

func (fakeConn) Prepare(string) (driver.Stmt, error) { return fakeStmt{}, nil }
func (fakeConn) Close() error                        { return nil }
func (fakeConn) Begin() (driver.Tx, error)           { return fakeTx{}, nil }
func (c fakeConn) Ping(context.Context) error        { return c.pingErr }

type fakeStmt struct{}

func (fakeStmt) Close() error                               { return nil }
func (fakeStmt) NumInput() int                              { return -1 }
func (fakeStmt) Exec([]driver.Value) (driver.Result, error) { return driver.RowsAffected(0), nil }
func (fakeStmt) Query([]driver.Value) (driver.Rows, error)  { return fakeRows{}, nil }

type fakeTx struct{}

func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }

type fakeRows struct{}

func (fakeRows) Columns() []string         { return nil }
func (fakeRows) Close() error              { return nil }
func (fakeRows) Next([]driver.Value) error { return io.EOF }

var registerFakes sync.Once

// useDriver points openDB at a registered fake ("up" or "down") for the test.
func useDriver(t *testing.T, name string) {
	t.Helper()
	registerFakes.Do(func() {
		sql.Register("fake-up", fakeDriver{})
		sql.Register("fake-down", fakeDriver{pingErr: errors.New("connection refused")})
	})
	prev := openDB
	openDB = func(_, dsn string) (*sql.DB, error) { return sql.Open("fake-"+name, dsn) }
	t.Cleanup(func() { openDB = prev })
}

func TestOptionsFromEnvAppliesOverrides(t *testing.T) {
	useDriver(t, "up")

	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "3")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "45s")
	t.Setenv("DB_PING_TIMEOUT", "1s")
	t.Setenv("DB_CONNECT_ATTEMPTS", "not-a-number")

	opts := OptionsFromEnv(DefaultServerOptions())
	db, err := Connect(context.Background(), "ignored", opts)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Close()

	stats := db.Stats()
	if stats.MaxOpenConnections != 7 {
		t.Fatalf("expected MaxOpenConnections=7, got %d", stats.MaxOpenConnections)
	}
	if opts.MaxIdleConns != 3 {
		t.Fatalf("expected MaxIdleConns=3, got %d", opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime != 20*time.Minute {
		t.Fatalf("expected ConnMaxLifetime=20m, got %s", opts.ConnMaxLifetime)
	}
	if opts.ConnMaxIdleTime != 45*time.Second {
		t.Fatalf("expected ConnMaxIdleTime=45s, got %s", opts.ConnMaxIdleTime)
	}
	if opts.PingTimeout != time.Second {
		t.Fatalf("expected PingTimeout=1s, got %s", opts.PingTimeout)
	}
	if opts.ConnectAttempts != DefaultServerOptions().ConnectAttempts {
		t.Fatalf("expected invalid DB_CONNECT_ATTEMPTS to keep the default, got %d", opts.ConnectAttempts)
	}
}

func TestPoolStats(t *testing.T) {
	useDriver(t, "up")

	if len(PoolStats(nil)) != 0 {
		t.Fatalf("expected empty stats for nil db")
	}
	db, err := Connect(context.Background(), "ignored", DefaultMigrateOptions())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Close()
	if got := PoolStats(db)["max_open"]; got != 1 {
		t.Fatalf("expected max_open=1, got %v", got)
	}
}

func TestConnectRejectsEmptyURL(t *testing.T) {
	if _, err := Connect(context.Background(), "  ", DefaultServerOptions()); err == nil {
		t.Fatalf("expected error for empty DATABASE_URL")
	}
}

func TestConnectPropagatesOpenError(t *testing.T) {
	prev := openDB
	openDB = func(string, string) (*sql.DB, error) { return nil, driver.ErrBadConn }
	t.Cleanup(func() { openDB = prev })

	if _, err := Connect(context.Background(), "postgres://example", DefaultMigrateOptions()); err == nil {
		t.Fatalf("expected open error")
	}
}

func TestPing(t *testing.T) {
	useDriver(t, "up")

	if err := Ping(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil db")
	}
	db, err := Connect(context.Background(), "ignored", DefaultMigrateOptions())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Close()
	if err := Ping(context.Background(), db); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) == 0 {
		t.Fatalf("expected embedded migrations")
	}
	raw, err := migrationFiles.ReadFile("migrations/" + entries[0].Name())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(raw), "-- +goose Up") || !strings.Contains(string(raw), "CREATE TABLE IF NOT EXISTS reports") {
		t.Fatalf("unexpected migration content")
	}
}

func TestConnectRetriesThenFails(t *testing.T) {
	useDriver(t, "down")

	opts := DefaultMigrateOptions()
	opts.ConnectAttempts = 2
	opts.ConnectBackoff = time.Millisecond

	_, err := Connect(context.Background(), "ignored", opts)
	if err == nil || !strings.Contains(err.Error(), "after 2 attempt(s)") {
		t.Fatalf("expected exhausted attempts error, got %v", err)
	}
}
