package database

import (
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// Dialect isolates what differs between the supported SQL backends. Queries
// are written once with ? placeholders and rewritten per dialect.
type Dialect interface {
	DriverName() string
	DSN(config DialectConfig) string

	// RewriteQuery converts ? placeholders to the driver's syntax
	RewriteQuery(query string) string

	// SupportsLastInsertId is false when inserts need RETURNING id
	SupportsLastInsertId() bool

	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir names the directory under migrations/ for this dialect
	MigrationsSubdir() string
	CreateMigrationsTableQuery() string

	// IsUniqueViolation reports whether a driver error is a unique constraint failure
	IsUniqueViolation(err error) bool
}

// DialectConfig carries the connection target: a file path for SQLite,
// a URL for the server databases.
type DialectConfig struct {
	Path string
	URL  string
}

// Pool limits for the server databases. SQLite runs on a single connection.
const (
	serverMaxOpenConns    = 25
	serverMaxIdleConns    = 5
	serverConnMaxLifetime = 5 * time.Minute
	serverConnMaxIdleTime = time.Minute
)

func configureServerPool(db *sql.DB) {
	db.SetMaxOpenConns(serverMaxOpenConns)
	db.SetMaxIdleConns(serverMaxIdleConns)
	db.SetConnMaxLifetime(serverConnMaxLifetime)
	db.SetConnMaxIdleTime(serverConnMaxIdleTime)
}

// rewritePlaceholdersToNumbered turns ? into $1, $2, ... Question marks
// inside single-quoted literals are left alone.
func rewritePlaceholdersToNumbered(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inLiteral := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inLiteral = !inLiteral
			b.WriteByte(c)
		case c == '?' && !inLiteral:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
