package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite"
)

const filePragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)"

// WAL is not applicable to in-memory databases.
const memoryPragmas = "mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"

// DB provides dual reader/writer database connections.
// The writer connection is limited to a single connection to avoid "database is locked" errors.
// The reader connection pool allows up to 4 concurrent readers.
type DB struct {
	Writer *sql.DB
	Reader *sql.DB
	path   string
}

// NewDB opens the keychain database file at dbPath with WAL mode, busy timeout
// and synchronous NORMAL.
func NewDB(ctx context.Context, dbPath string) (*DB, error) {
	return open(ctx, fmt.Sprintf("file:%s?%s", dbPath, filePragmas), dbPath)
}

// NewMemoryDB opens a named shared in-memory database. Connections opened
// with the same name see the same data until the last one closes.
func NewMemoryDB(ctx context.Context, name string) (*DB, error) {
	// Percent-encode the name so it cannot be read as query parameters.
	return open(ctx, fmt.Sprintf("file:%s?%s", url.PathEscape(name), memoryPragmas), ":memory:")
}

func open(ctx context.Context, dsn, path string) (*DB, error) {
	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	if err := writer.PingContext(ctx); err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("ping writer: %w", err)
	}

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}
	reader.SetMaxOpenConns(4)

	if err := reader.PingContext(ctx); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		return nil, fmt.Errorf("ping reader: %w", err)
	}

	return &DB{
		Writer: writer,
		Reader: reader,
		path:   path,
	}, nil
}

// Path returns the database file path, or ":memory:" for in-memory databases.
func (db *DB) Path() string {
	return db.path
}

// Close closes both reader and writer connections. Returns the first error encountered.
func (db *DB) Close() error {
	var firstErr error

	if err := db.Reader.Close(); err != nil {
		firstErr = fmt.Errorf("close reader: %w", err)
	}

	if err := db.Writer.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close writer: %w", err)
	}

	return firstErr
}
