package record_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-infernum/pkg/database"
	"github.com/goliatone/go-infernum/pkg/record"
)

var userSchema = record.Schema{
	Table: "users",
	Key:   "id",
	Fields: []record.Field{
		{Name: "id", Codec: record.Int},
		{Name: "name", Codec: record.String},
		{Name: "score", Codec: record.Float},
		{Name: "active", Codec: record.Bool},
		{Name: "joined", Codec: record.DateTime},
		{Name: "settings", Codec: record.List},
	},
}

func newStore(t *testing.T) *record.Store {
	t.Helper()
	ctx := context.Background()

	conn, err := database.DefaultRegistry().Open(ctx, "sqlite", database.Options{
		Database: filepath.Join(t.TempDir(), "records.db"),
		Prefix:   "inf_",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Exec(ctx, `CREATE TABLE inf_users (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		score REAL,
		active INTEGER,
		joined TEXT,
		settings TEXT
	)`)
	require.NoError(t, err)

	store, err := record.NewStore(conn, userSchema)
	require.NoError(t, err)

	require.NoError(t, store.Insert(ctx, map[string]any{
		"id":       1,
		"name":     "ada",
		"score":    9.5,
		"active":   true,
		"joined":   time.Date(2024, time.March, 9, 14, 5, 0, 0, time.UTC),
		"settings": map[string]any{"theme": "dark"},
	}))
	return store
}

func TestStore_FindAndExists(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	ok, err := store.Exists(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Exists(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Find(ctx, 2)
	assert.ErrorIs(t, err, record.ErrNotFound)

	rec, err := store.Find(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.ID())

	name, ok := rec.Get("name")
	assert.True(t, ok)
	assert.Equal(t, "ada", name)

	active, _ := rec.Get("active")
	assert.Equal(t, true, active)

	joined, _ := rec.Get("joined")
	assert.Equal(t, time.Date(2024, time.March, 9, 14, 5, 0, 0, time.UTC), joined)

	theme, ok := rec.GetListItem("settings", "theme")
	assert.True(t, ok)
	assert.Equal(t, "dark", theme)

	_, ok = rec.GetListItem("name", "x")
	assert.False(t, ok)
	_, ok = rec.Get("missing")
	assert.False(t, ok)
}

func TestRecord_SettersPersist(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	rec, err := store.Find(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, rec.Set(ctx, "name", "ada lovelace"))
	require.NoError(t, rec.SetMultiple(ctx, map[string]any{"score": 10, "active": false}))
	require.NoError(t, rec.SetListItem(ctx, "settings", "lang", "en"))
	require.NoError(t, rec.SetListItems(ctx, "settings", map[string]any{"theme": "light", "size": 2}))

	score, _ := rec.Get("score")
	assert.Equal(t, 10.0, score)

	reloaded, err := store.Find(ctx, 1)
	require.NoError(t, err)

	name, _ := reloaded.Get("name")
	assert.Equal(t, "ada lovelace", name)
	score, _ = reloaded.Get("score")
	assert.Equal(t, 10.0, score)
	active, _ := reloaded.Get("active")
	assert.Equal(t, false, active)
	settings, _ := reloaded.Get("settings")
	assert.Equal(t, map[string]any{"theme": "light", "lang": "en", "size": 2.0}, settings)
}

func TestRecord_SetterErrors(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	rec, err := store.Find(ctx, 1)
	require.NoError(t, err)

	assert.ErrorIs(t, rec.Set(ctx, "nickname", "x"), record.ErrUnknownField)
	assert.ErrorIs(t, rec.Set(ctx, "score", "high"), record.ErrInvalidValue)
	assert.ErrorIs(t, rec.Set(ctx, "settings", []string{"a"}), record.ErrInvalidValue)
	assert.ErrorIs(t, rec.SetListItem(ctx, "name", "k", "v"), record.ErrNotList)
	assert.ErrorIs(t, rec.SetListItem(ctx, "nope", "k", "v"), record.ErrUnknownField)

	name, _ := rec.Get("name")
	assert.Equal(t, "ada", name, "failed writes leave memory untouched")

	assert.ErrorIs(t, store.Update(ctx, 1, map[string]any{"nope": 1}), record.ErrUnknownField)
	assert.NoError(t, store.Update(ctx, 1, nil))
}

func TestNewStore_ValidatesSchema(t *testing.T) {
	_, err := record.NewStore(nil, userSchema)
	assert.ErrorIs(t, err, record.ErrInvalidSchema)

	conn := &database.Connection{}
	_, err = record.NewStore(conn, record.Schema{Table: "users"})
	assert.ErrorIs(t, err, record.ErrInvalidSchema)

	_, err = record.NewStore(conn, record.Schema{Table: "users", Key: "id", Fields: []record.Field{{Name: "id"}}})
	assert.ErrorIs(t, err, record.ErrInvalidSchema)

	_, err = record.NewStore(conn, record.Schema{Table: "users", Key: "id", Fields: []record.Field{
		{Name: "id", Codec: record.Int}, {Name: "id", Codec: record.String},
	}})
	assert.ErrorIs(t, err, record.ErrInvalidSchema)
}

// sealedCodec stores any string but refuses to read back "sealed".
type sealedCodec struct{}

func (sealedCodec) Name() string { return "sealed" }

func (sealedCodec) Encode(value any) (any, error) { return fmt.Sprint(value), nil }

func (sealedCodec) Decode(raw any) (any, error) {
	var s string
	switch v := raw.(type) {
	case []byte:
		s = string(v)
	default:
		s = fmt.Sprint(v)
	}
	if s == "sealed" {
		return nil, errors.New("sealed value")
	}
	return s, nil
}

func TestRecord_SetMultipleDecodeFailureLeavesRowUntouched(t *testing.T) {
	ctx := context.Background()
	conn, err := database.DefaultRegistry().Open(ctx, "sqlite", database.Options{
		Database: filepath.Join(t.TempDir(), "notes.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Exec(ctx, `CREATE TABLE notes (id INTEGER PRIMARY KEY, title TEXT, body TEXT)`)
	require.NoError(t, err)

	store, err := record.NewStore(conn, record.Schema{
		Table: "notes",
		Key:   "id",
		Fields: []record.Field{
			{Name: "id", Codec: record.Int},
			{Name: "title", Codec: record.String},
			{Name: "body", Codec: sealedCodec{}},
		},
	})
	require.NoError(t, err)
	require.NoError(t, store.Insert(ctx, map[string]any{"id": 1, "title": "draft", "body": "open"}))

	rec, err := store.Find(ctx, 1)
	require.NoError(t, err)

	err = rec.SetMultiple(ctx, map[string]any{"title": "final", "body": "sealed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"body"`)

	title, _ := rec.Get("title")
	assert.Equal(t, "draft", title)

	reloaded, err := store.Find(ctx, 1)
	require.NoError(t, err)
	title, _ = reloaded.Get("title")
	body, _ := reloaded.Get("body")
	assert.Equal(t, "draft", title)
	assert.Equal(t, "open", body)
}
