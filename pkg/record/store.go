// Package record maps table rows to records with typed fields. Every
// setter writes through to the table immediately.
package record

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-infernum/pkg/database"
)

var (
	// ErrUnknownField is returned for fields the schema does not declare.
	ErrUnknownField = errors.New("record: unknown field")
	// ErrInvalidValue is returned when a value does not fit the field codec.
	ErrInvalidValue = errors.New("record: invalid value")
	// ErrNotList is returned by list operations on non-list fields.
	ErrNotList = errors.New("record: field is not a list")
	// ErrNotFound is returned when no row has the requested key.
	ErrNotFound = errors.New("record: not found")
	// ErrInvalidSchema is returned by NewStore for incomplete schemas.
	ErrInvalidSchema = errors.New("record: invalid schema")
)

// Field declares one column and its codec.
type Field struct {
	Name  string
	Codec Codec
}

// Schema describes a table. Table is given without the connection prefix.
type Schema struct {
	Table  string
	Key    string
	Fields []Field
}

func (s Schema) field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Store reads and writes records of one schema.
type Store struct {
	conn   *database.Connection
	schema Schema
}

// NewStore returns a Store for schema on conn.
func NewStore(conn *database.Connection, schema Schema) (*Store, error) {
	if conn == nil {
		return nil, fmt.Errorf("%w: connection is required", ErrInvalidSchema)
	}
	if strings.TrimSpace(schema.Table) == "" || strings.TrimSpace(schema.Key) == "" {
		return nil, fmt.Errorf("%w: table and key are required", ErrInvalidSchema)
	}
	seen := map[string]bool{}
	for _, f := range schema.Fields {
		if f.Name == "" || f.Codec == nil {
			return nil, fmt.Errorf("%w: field %q needs a name and codec", ErrInvalidSchema, f.Name)
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrInvalidSchema, f.Name)
		}
		seen[f.Name] = true
	}
	return &Store{conn: conn, schema: schema}, nil
}

// Schema returns the store schema.
func (s *Store) Schema() Schema { return s.schema }

func (s *Store) table() string { return s.conn.Table(s.schema.Table) }

// Exists reports whether a row with the key id exists.
func (s *Store) Exists(ctx context.Context, id any) (bool, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		s.schema.Key, s.table(), s.schema.Key, s.conn.Placeholder(1))
	res, err := s.conn.Query(ctx, query, id)
	if err != nil {
		return false, err
	}
	defer res.Free()
	return res.HasRows(), nil
}

// Find loads the record with the key id.
func (s *Store) Find(ctx context.Context, id any) (*Record, error) {
	columns := make([]string, len(s.schema.Fields))
	for i, f := range s.schema.Fields {
		columns[i] = f.Name
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		strings.Join(columns, ", "), s.table(), s.schema.Key, s.conn.Placeholder(1))

	res, err := s.conn.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer res.Free()

	row, ok := res.Fetch()
	if !ok {
		return nil, fmt.Errorf("%w: %s %v", ErrNotFound, s.schema.Table, id)
	}

	data := make(map[string]any, len(s.schema.Fields))
	for _, f := range s.schema.Fields {
		decoded, err := f.Codec.Decode(row[f.Name])
		if err != nil {
			return nil, fmt.Errorf("record: decode %s: %w", f.Name, err)
		}
		data[f.Name] = decoded
	}
	return &Record{store: s, id: id, data: data}, nil
}

// Insert encodes values and adds a row.
func (s *Store) Insert(ctx context.Context, values map[string]any) error {
	encoded, err := s.encode(values)
	if err != nil {
		return err
	}
	names := sortedKeys(encoded)
	holders := make([]string, len(names))
	args := make([]any, len(names))
	for i, name := range names {
		holders[i] = s.conn.Placeholder(i + 1)
		args[i] = encoded[name]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.table(), strings.Join(names, ", "), strings.Join(holders, ", "))
	_, err = s.conn.Exec(ctx, query, args...)
	return err
}

// Update writes already encoded column values to the row with the key id.
func (s *Store) Update(ctx context.Context, id any, columns map[string]any) error {
	if len(columns) == 0 {
		return nil
	}
	names := sortedKeys(columns)
	sets := make([]string, len(names))
	args := make([]any, 0, len(names)+1)
	for i, name := range names {
		if _, ok := s.schema.field(name); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
		sets[i] = name + " = " + s.conn.Placeholder(i+1)
		args = append(args, columns[name])
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		s.table(), strings.Join(sets, ", "), s.schema.Key, s.conn.Placeholder(len(names)+1))
	_, err := s.conn.Exec(ctx, query, args...)
	return err
}

func (s *Store) encode(values map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(values))
	for name, value := range values {
		f, ok := s.schema.field(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
		encoded, err := f.Codec.Encode(value)
		if err != nil {
			return nil, fmt.Errorf("record: %s: %w", name, err)
		}
		out[name] = encoded
	}
	return out, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
