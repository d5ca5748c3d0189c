package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// Supported database/sql driver names
const (
	DriverCGO  = "sqlite3" // github.com/mattn/go-sqlite3
	DriverPure = "sqlite"  // modernc.org/sqlite
)

var (
	// ErrNotFound is returned when an operation targets a row that does not exist
	ErrNotFound = errors.New("not found")
	// ErrLocked is returned when the store lock could not be acquired before the context ended
	ErrLocked = errors.New("store lock unavailable")
	// ErrClosed is returned for any operation after Close
	ErrClosed = errors.New("store is closed")
)

// timeLayout is fixed width and always written in UTC so that string order
// matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DB wraps the database connection. Every operation holds the store lock for
// its whole duration, so at most one operation touches the connection at a time.
type DB struct {
	conn      *sql.DB
	sem       chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	driver string
	now    func() time.Time
	logger *log.Logger
}

// Option configures a DB
type Option func(*DB)

// WithDriver selects the sqlite driver (DriverCGO or DriverPure)
func WithDriver(name string) Option {
	return func(db *DB) {
		if name != "" {
			db.driver = name
		}
	}
}

// WithLogger sets the logger used for lifecycle messages
func WithLogger(l *log.Logger) Option {
	return func(db *DB) {
		if l != nil {
			db.logger = l
		}
	}
}

// WithClock overrides the time source used for timestamps
func WithClock(now func() time.Time) Option {
	return func(db *DB) {
		if now != nil {
			db.now = now
		}
	}
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens the database at the default location
func New(opts ...Option) (*DB, error) {
	dbPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Open(dbPath, opts...)
}

// Open opens (or creates) the database at path, applies the schema and seeds
// the starter folders, projects and settings when the store is empty.
func Open(path string, opts ...Option) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("db path is required")
	}

	db := &DB{
		sem:    make(chan struct{}, 1),
		done:   make(chan struct{}),
		driver: DriverCGO,
		now:    time.Now,
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(db)
	}

	dsn, err := dataSourceName(db.driver, path)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(db.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps :memory: databases and pragmas consistent.
	conn.SetMaxOpenConns(1)
	db.conn = conn

	ctx := context.Background()
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	db.logger.Printf("opened %s (driver %s)", path, db.driver)

	if err := db.Seed(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

func dataSourceName(driver, path string) (string, error) {
	switch driver {
	case DriverCGO:
		return path + "?_foreign_keys=on&_busy_timeout=5000", nil
	case DriverPure:
		return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", nil
	default:
		return "", fmt.Errorf("unsupported sqlite driver %q", driver)
	}
}

// DefaultPath returns the path to the database file
func DefaultPath() (string, error) {
	// Use XDG data directory or fallback to home directory
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, ".local", "share")
	}

	appDir := filepath.Join(dataDir, "ultralist")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return "", err
	}

	return filepath.Join(appDir, "ultralist.db"), nil
}

// Close waits for the in-flight operation, if any, and closes the connection
func (db *DB) Close() error {
	var err error
	db.closeOnce.Do(func() {
		db.sem <- struct{}{}
		close(db.done)
		err = db.conn.Close()
		db.logger.Printf("closed store")
	})
	return err
}

// acquire takes the store lock. It gives up when ctx ends or the store is closed.
func (db *DB) acquire(ctx context.Context) (func(), error) {
	select {
	case <-db.done:
		return nil, ErrClosed
	default:
	}

	select {
	case db.sem <- struct{}{}:
	case <-db.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrLocked, ctx.Err())
	}

	return func() { <-db.sem }, nil
}

// run executes fn against the connection while holding the store lock
func (db *DB) run(ctx context.Context, fn func(q querier) error) error {
	release, err := db.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(db.conn)
}

// runTx executes fn in a transaction while holding the store lock. The
// transaction is rolled back unless fn returns nil.
func (db *DB) runTx(ctx context.Context, fn func(q querier) error) error {
	release, err := db.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return t, nil
}

// nullable turns an optional value into a query argument (nil becomes NULL)
func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	i := ni.Int64
	return &i
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}
