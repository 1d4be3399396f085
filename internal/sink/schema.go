package sink

import (
	"bufio"
	_ "embed"
	"strings"
)

//go:embed schema/sqlite.sql
var sqliteDDL string

//go:embed schema/postgres.sql
var postgresDDL string

// SQLiteSchema returns the embedded SQLite DDL.
func SQLiteSchema() string { return sqliteDDL }

// PostgresSchema returns the embedded PostgreSQL DDL.
func PostgresSchema() string { return postgresDDL }

// SplitStatements splits a DDL script into statements. Blank lines and
// "--" comment lines are dropped; a statement ends on a line ending in ";".
func SplitStatements(ddl string) []string {
	scanner := bufio.NewScanner(strings.NewReader(ddl))
	var stmts []string
	var current strings.Builder

	flush := func() {
		stmt := strings.TrimSpace(current.String())
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
		current.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
		if strings.HasSuffix(trimmed, ";") {
			flush()
		}
	}
	flush()

	return stmts
}
