package database

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed schema.sql
var schemaSQL string

// dialect fills the schema placeholders.  MySQL TIMESTAMP keeps whole
// seconds only, so it gets DATETIME(6); consent history relies on the
// sub-second order.
func dialect(driver string) *strings.Replacer {
	switch driver {
	case DriverMySQL, "":
		return strings.NewReplacer("{{TS}}", "DATETIME(6)", "{{SEQ}}", "BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY")
	case DriverPostgres:
		return strings.NewReplacer("{{TS}}", "TIMESTAMP", "{{SEQ}}", "BIGSERIAL PRIMARY KEY")
	default:
		return strings.NewReplacer("{{TS}}", "TIMESTAMP", "{{SEQ}}", "INTEGER PRIMARY KEY AUTOINCREMENT")
	}
}

// Migrate creates missing tables.  Statements are executed one by one
// because the MySQL driver rejects multi-statement strings by default.
func Migrate(ctx context.Context, db *DB) error {
	for i, stmt := range statements(dialect(db.Driver).Replace(schemaSQL)) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	return nil
}

func statements(script string) []string {
	var lines []string
	for _, l := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(l), "--") {
			continue
		}
		lines = append(lines, l)
	}
	out := make([]string, 0)
	for _, s := range strings.Split(strings.Join(lines, "\n"), ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
