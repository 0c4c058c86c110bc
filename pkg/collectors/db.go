package collectors

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// DB wraps a connection with the dialect it speaks. Repositories write
// queries with ? placeholders and DB rewrites them for postgres.
type DB struct {
	*sql.DB
	Driver string
}

func Open(driver, dsn string) (*DB, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}

	if driver == DriverPostgres {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	} else {
		// sqlite serialises writers; one connection avoids "database is locked".
		sqlDB.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	return &DB{DB: sqlDB, Driver: driver}, nil
}

func NewSQLiteDB(path string) (*DB, error) {
	return Open(DriverSQLite, path)
}

// Rebind converts ? placeholders to $1, $2, ... for postgres.
func (d *DB) Rebind(query string) string {
	if d.Driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

type execFunc func(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

// execer runs statements on tx when one is open, on the pool otherwise.
func execer(db *DB, tx *sql.Tx) execFunc {
	if tx != nil {
		return func(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
			return tx.ExecContext(ctx, db.Rebind(query), args...)
		}
	}
	return func(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
		return db.ExecContext(ctx, db.Rebind(query), args...)
	}
}
