package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/proullon/ramsql/driver"
	_ "modernc.org/sqlite"
)

type sqlDriver struct {
	name    string
	sqlName string
	dsn     func(Options) string
	dialect dialect
}

func (d sqlDriver) Name() string { return d.name }

func (d sqlDriver) Open(ctx context.Context, opts Options) (*Connection, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	dsn := strings.TrimSpace(opts.DSN)
	if dsn == "" {
		dsn = d.dsn(opts)
	}

	db, err := sql.Open(d.sqlName, dsn)
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", d.name, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database: ping %s: %w", d.name, err)
	}
	return newConnection(db, d.name, opts.Prefix, d.dialect), nil
}

// SQLite returns the driver for SQLite files (modernc.org/sqlite). The
// database option is a file path.
func SQLite() Driver {
	return sqlDriver{
		name:    "sqlite",
		sqlName: "sqlite",
		dialect: questionDialect{},
		dsn: func(o Options) string {
			return filepath.Clean(o.Database) + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
		},
	}
}

// Postgres returns the driver for PostgreSQL servers (lib/pq).
func Postgres() Driver {
	return sqlDriver{
		name:    "postgres",
		sqlName: "postgres",
		dialect: dollarDialect{},
		dsn: func(o Options) string {
			host := o.Host
			if host == "" {
				host = "localhost"
			}
			if o.Port > 0 {
				host += ":" + strconv.Itoa(o.Port)
			}
			u := url.URL{
				Scheme:   "postgres",
				Host:     host,
				Path:     "/" + o.Database,
				RawQuery: "sslmode=disable",
			}
			if o.User != "" {
				u.User = url.UserPassword(o.User, o.Password)
			}
			return u.String()
		},
	}
}

// RamSQL returns the in-memory driver (proullon/ramsql). Connections with
// the same database name share data for the life of the process.
func RamSQL() Driver {
	return sqlDriver{
		name:    "ramsql",
		sqlName: "ramsql",
		dialect: dollarDialect{},
		dsn: func(o Options) string {
			return o.Database
		},
	}
}

type dialect interface {
	placeholder(n int) string
}

type questionDialect struct{}

func (questionDialect) placeholder(int) string { return "?" }

type dollarDialect struct{}

func (dollarDialect) placeholder(n int) string { return "$" + strconv.Itoa(n) }
