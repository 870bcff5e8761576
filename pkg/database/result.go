package database

// Result is a fully buffered query result with a read cursor. Fetch calls
// advance the cursor; FetchAll and FetchColumn consume the remaining rows.
type Result interface {
	Fetch() (map[string]any, bool)
	FetchNumeric() ([]any, bool)
	FetchCell(index int) (any, bool)
	FetchColumn(index int) []any
	FetchAll() []map[string]any
	Columns() []string
	NumRows() int
	HasRows() bool
	NumFields() int
	Free()
}

type result struct {
	columns []string
	rows    [][]any
	cursor  int
}

func newResult(columns []string, rows [][]any) *result {
	return &result{columns: columns, rows: rows}
}

func (r *result) next() ([]any, bool) {
	if r.cursor >= len(r.rows) {
		return nil, false
	}
	row := r.rows[r.cursor]
	r.cursor++
	return row, true
}

func (r *result) assoc(row []any) map[string]any {
	out := make(map[string]any, len(r.columns))
	for i, name := range r.columns {
		out[name] = row[i]
	}
	return out
}

func (r *result) Fetch() (map[string]any, bool) {
	row, ok := r.next()
	if !ok {
		return nil, false
	}
	return r.assoc(row), true
}

func (r *result) FetchNumeric() ([]any, bool) {
	row, ok := r.next()
	if !ok {
		return nil, false
	}
	return append([]any(nil), row...), true
}

func (r *result) FetchCell(index int) (any, bool) {
	if index < 0 || index >= len(r.columns) {
		return nil, false
	}
	row, ok := r.next()
	if !ok {
		return nil, false
	}
	return row[index], true
}

func (r *result) FetchColumn(index int) []any {
	if index < 0 || index >= len(r.columns) {
		return nil
	}
	var out []any
	for row, ok := r.next(); ok; row, ok = r.next() {
		out = append(out, row[index])
	}
	return out
}

func (r *result) FetchAll() []map[string]any {
	var out []map[string]any
	for row, ok := r.next(); ok; row, ok = r.next() {
		out = append(out, r.assoc(row))
	}
	return out
}

func (r *result) Columns() []string {
	return append([]string(nil), r.columns...)
}

func (r *result) NumRows() int { return len(r.rows) }

func (r *result) HasRows() bool { return len(r.rows) > 0 }

func (r *result) NumFields() int { return len(r.columns) }

func (r *result) Free() {
	r.rows = nil
	r.cursor = 0
}
