package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Memory is an in-process Store used by tests and local development. It
// applies the same filter semantics as the Postgres implementation.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string]json.RawMessage
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string]json.RawMessage)}
}

func (m *Memory) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.data[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (m *Memory) Query(ctx context.Context, collection string, filters ...Filter) ([]json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := []json.RawMessage{}
	for _, doc := range m.data[collection] {
		ok, err := matches(doc, filters)
		if err != nil {
			return nil, err
		}
		if ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (m *Memory) Set(ctx context.Context, collection, id string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[collection] == nil {
		m.data[collection] = make(map[string]json.RawMessage)
	}
	m.data[collection][id] = body
	return nil
}

func (m *Memory) SetAll(ctx context.Context, collection string, docs map[string]any) error {
	bodies := make(map[string]json.RawMessage, len(docs))
	for id, doc := range docs {
		body, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		bodies[id] = body
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[collection] == nil {
		m.data[collection] = make(map[string]json.RawMessage)
	}
	for id, body := range bodies {
		m.data[collection][id] = body
	}
	return nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.data[collection][id]
	if !ok {
		return ErrNotFound
	}

	var obj map[string]any
	if err := json.Unmarshal(doc, &obj); err != nil {
		return err
	}
	for k, v := range fields {
		obj[k] = v
	}
	body, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	m.data[collection][id] = body
	return nil
}

// matches applies filters against the decoded document. Field values compare
// by their JSON text form, mirroring the Postgres ->> operator.
func matches(doc json.RawMessage, filters []Filter) (bool, error) {
	if len(filters) == 0 {
		return true, nil
	}

	var obj map[string]any
	if err := json.Unmarshal(doc, &obj); err != nil {
		return false, err
	}

	for _, f := range filters {
		val, ok := obj[f.Field]
		if !ok {
			return false, nil
		}
		switch f.Op {
		case OpEq:
			if asText(val) != f.Value {
				return false, nil
			}
		case OpGte:
			if asText(val) < f.Value {
				return false, nil
			}
		case OpLte:
			if asText(val) > f.Value {
				return false, nil
			}
		case OpContains:
			arr, ok := val.([]any)
			if !ok {
				return false, nil
			}
			found := false
			for _, e := range arr {
				if asText(e) == f.Value {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unsupported filter op: %s", f.Op)
		}
	}
	return true, nil
}

func asText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
