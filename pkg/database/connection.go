package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// Connection is an open database handle with a table prefix.
type Connection struct {
	db      *sql.DB
	driver  string
	prefix  string
	dialect dialect

	mu     sync.RWMutex
	closed bool
}

func newConnection(db *sql.DB, driver, prefix string, d dialect) *Connection {
	return &Connection{db: db, driver: driver, prefix: prefix, dialect: d}
}

// Driver returns the name of the driver that opened the connection.
func (c *Connection) Driver() string { return c.driver }

// Prefix returns the table prefix.
func (c *Connection) Prefix() string { return c.prefix }

// DB exposes the underlying handle.
func (c *Connection) DB() *sql.DB { return c.db }

// Table returns name with the table prefix applied.
func (c *Connection) Table(name string) string {
	return c.prefix + name
}

// Placeholder returns the bind parameter marker for the n-th argument,
// counting from 1.
func (c *Connection) Placeholder(n int) string {
	return c.dialect.placeholder(n)
}

// Query runs a statement that returns rows and buffers all of them.
func (c *Connection) Query(ctx context.Context, query string, args ...any) (Result, error) {
	if err := c.check(); err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("database: query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("database: columns: %w", err)
	}

	var buffered [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("database: scan: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		buffered = append(buffered, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database: rows: %w", err)
	}
	return newResult(columns, buffered), nil
}

// Exec runs a statement that returns no rows.
func (c *Connection) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("database: exec: %w", err)
	}
	return res, nil
}

// Close releases the handle. Closing twice is a no-op.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.db.Close()
}

func (c *Connection) check() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}
