package database

import "errors"

var (
	// ErrInvalidDriver is returned for an empty driver name.
	ErrInvalidDriver = errors.New("database: driver name is invalid")
	// ErrUnsupportedDriver is returned for driver names nobody registered.
	ErrUnsupportedDriver = errors.New("database: driver is not supported")
	// ErrInvalidDatabase is returned when neither a database nor a DSN is given.
	ErrInvalidDatabase = errors.New("database: database name is invalid")
	// ErrClosed is returned by operations on a closed connection.
	ErrClosed = errors.New("database: connection is closed")
)
