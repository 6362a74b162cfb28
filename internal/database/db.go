package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Drivers understood by Open.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DB wraps *sql.DB with the driver name so repositories can write queries
// with '?' placeholders for every backend.
type DB struct {
	*sql.DB
	Driver string
}

// Options holds the connection coordinates for Open.
type Options struct {
	Driver string
	User   string
	Pass   string
	Host   string
	Port   string
	Name   string
	Path   string // sqlite file or ":memory:"
}

// Open connects to the configured database and verifies the connection.
func Open(o Options) (*DB, error) {
	driverName, dsn, err := dsnFor(o)
	if err != nil {
		return nil, err
	}
	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	if o.Driver == DriverSQLite {
		// one writer; an in-memory database only lives on its connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(25)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return &DB{DB: sqlDB, Driver: o.Driver}, nil
}

func dsnFor(o Options) (driverName, dsn string, err error) {
	switch o.Driver {
	case DriverMySQL, "":
		auth := o.User
		if o.Pass != "" {
			auth = fmt.Sprintf("%s:%s", o.User, o.Pass)
		}
		// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
		return "mysql", fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
			auth, o.Host, o.Port, o.Name), nil
	case DriverPostgres:
		return "pgx", fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=prefer",
			o.User, o.Pass, o.Host, o.Port, o.Name), nil
	case DriverSQLite:
		path := o.Path
		if path == "" {
			path = ":memory:"
		}
		return "sqlite", path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", nil
	}
	return "", "", fmt.Errorf("unsupported DB_DRIVER %q", o.Driver)
}

// Rebind rewrites '?' placeholders into the positional form of the driver.
// Only Postgres needs it; question marks inside quoted literals are kept.
func (db *DB) Rebind(query string) string {
	if db.Driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '\'':
			inQuote = !inQuote
			b.WriteByte(ch)
		case ch == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}
