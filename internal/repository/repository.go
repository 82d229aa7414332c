// Package repository provides typed per-entity access over the document
// store. Queries stay single-field; any joining happens in the caller.
package repository

import (
	"encoding/json"
	"time"
)

// dateText is how time fields are compared in store filters. Documents
// marshal times as RFC 3339, which compares lexicographically only when
// every stored value carries the same offset, so Create methods normalize
// their range-filtered time fields to UTC before writing.
func dateText(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func decodeOne[T any](doc json.RawMessage) (*T, error) {
	var v T
	if err := json.Unmarshal(doc, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func decodeAll[T any](docs []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := json.Unmarshal(doc, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
