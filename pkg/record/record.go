package record

import (
	"context"
	"fmt"
	"maps"
)

// Record is one loaded row. Reads come from memory; writes are persisted
// before the in-memory value changes.
type Record struct {
	store *Store
	id    any
	data  map[string]any
}

// ID returns the key value the record was loaded with.
func (r *Record) ID() any { return r.id }

// Get returns the decoded value of key.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.data[key]
	return v, ok
}

// GetListItem returns one entry of a list field.
func (r *Record) GetListItem(key, subkey string) (any, bool) {
	list, ok := r.data[key].(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := list[subkey]
	return v, ok
}

// Set stores value in key.
func (r *Record) Set(ctx context.Context, key string, value any) error {
	return r.SetMultiple(ctx, map[string]any{key: value})
}

// SetMultiple stores several fields with one update.
func (r *Record) SetMultiple(ctx context.Context, values map[string]any) error {
	encoded, err := r.store.encode(values)
	if err != nil {
		return err
	}
	decoded := make(map[string]any, len(encoded))
	for k, v := range encoded {
		f, _ := r.store.schema.field(k)
		value, err := f.Codec.Decode(v)
		if err != nil {
			return fmt.Errorf("record: decode %q: %w", k, err)
		}
		decoded[k] = value
	}
	if err := r.store.Update(ctx, r.id, encoded); err != nil {
		return err
	}
	for k, v := range decoded {
		r.data[k] = v
	}
	return nil
}

// SetListItem stores value under subkey of the list field key.
func (r *Record) SetListItem(ctx context.Context, key, subkey string, value any) error {
	return r.SetListItems(ctx, key, map[string]any{subkey: value})
}

// SetListItems merges items into the list field key.
func (r *Record) SetListItems(ctx context.Context, key string, items map[string]any) error {
	f, ok := r.store.schema.field(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, key)
	}
	if f.Codec != List {
		return fmt.Errorf("%w: %q", ErrNotList, key)
	}

	current, _ := r.data[key].(map[string]any)
	merged := make(map[string]any, len(current)+len(items))
	maps.Copy(merged, current)
	maps.Copy(merged, items)

	return r.SetMultiple(ctx, map[string]any{key: merged})
}
