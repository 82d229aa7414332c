package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

type testDoc struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Due    string   `json:"due,omitempty"`
	Labels []string `json:"labels,omitempty"`
}

func TestMemoryGetSet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Get(ctx, "docs", "a")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set(ctx, "docs", "a", testDoc{ID: "a", Name: "first"}))

	raw, err := m.Get(ctx, "docs", "a")
	require.NoError(t, err)
	var got testDoc
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Equal(t, "first", got.Name)

	// Set overwrites whole documents.
	require.NoError(t, m.Set(ctx, "docs", "a", testDoc{ID: "a", Name: "second"}))
	raw, err = m.Get(ctx, "docs", "a")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Equal(t, "second", got.Name)
}

func TestMemoryQueryFilters(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "docs", "a", testDoc{ID: "a", Name: "alpha", Due: "2025-06-01T00:00:00Z", Labels: []string{"audit"}}))
	require.NoError(t, m.Set(ctx, "docs", "b", testDoc{ID: "b", Name: "beta", Due: "2025-07-01T00:00:00Z", Labels: []string{"gst", "audit"}}))
	require.NoError(t, m.Set(ctx, "docs", "c", testDoc{ID: "c", Name: "gamma", Due: "2025-08-01T00:00:00Z"}))

	docs, err := m.Query(ctx, "docs", Where("name", OpEq, "alpha"))
	require.NoError(t, err)
	require.Len(t, docs, 1)

	// RFC3339 strings compare lexicographically, so range filters work on
	// the text form.
	docs, err = m.Query(ctx, "docs",
		Where("due", OpGte, "2025-06-15T00:00:00Z"),
		Where("due", OpLte, "2025-07-15T00:00:00Z"))
	require.NoError(t, err)
	require.Len(t, docs, 1)

	docs, err = m.Query(ctx, "docs", Where("labels", OpContains, "audit"))
	require.NoError(t, err)
	require.Len(t, docs, 2)

	// A missing field never matches.
	docs, err = m.Query(ctx, "docs", Where("labels", OpContains, "tax"))
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestMemoryUpdateMergesFields(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "docs", "a", testDoc{ID: "a", Name: "alpha", Due: "2025-06-01T00:00:00Z"}))
	require.NoError(t, m.Update(ctx, "docs", "a", map[string]any{"name": "renamed"}))

	raw, err := m.Get(ctx, "docs", "a")
	require.NoError(t, err)
	var got testDoc
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Equal(t, "renamed", got.Name)
	require.Equal(t, "2025-06-01T00:00:00Z", got.Due, "untouched fields survive")

	require.ErrorIs(t, m.Update(ctx, "docs", "missing", map[string]any{"name": "x"}), ErrNotFound)
}

func TestMemorySetAll(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.SetAll(ctx, "docs", map[string]any{
		"a": testDoc{ID: "a", Name: "alpha"},
		"b": testDoc{ID: "b", Name: "beta"},
	}))

	docs, err := m.Query(ctx, "docs")
	require.NoError(t, err)
	require.Len(t, docs, 2)
}
