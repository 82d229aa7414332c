// Package store is the document-store boundary. Every domain entity lives in
// a named collection of JSON documents keyed by string id. The flow layer
// reads and writes exclusively through this interface; it never owns storage.
package store

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by Get when no document exists under the id.
var ErrNotFound = errors.New("document not found")

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Op is a filter operator. Queries are restricted to indexed single-field
// predicates; joins happen in memory in the caller.
type Op string

const (
	OpEq       Op = "=="
	OpGte      Op = ">="
	OpLte      Op = "<="
	OpContains Op = "array-contains"
)

// Filter is one field predicate. Values compare as their JSON text form;
// time fields are stored as RFC 3339 strings so range compares work
// lexicographically.
type Filter struct {
	Field string
	Op    Op
	Value string
}

// Where is shorthand for building a filter.
func Where(field string, op Op, value string) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// Store is the generic document store: point reads, filtered queries and
// whole-document or partial writes. Never a delete.
type Store interface {
	Get(ctx context.Context, collection, id string) (json.RawMessage, error)
	Query(ctx context.Context, collection string, filters ...Filter) ([]json.RawMessage, error)
	Set(ctx context.Context, collection, id string, doc any) error
	// SetAll writes every document in one batch; implementations make the
	// batch atomic where the backing store supports it.
	SetAll(ctx context.Context, collection string, docs map[string]any) error
	Update(ctx context.Context, collection, id string, fields map[string]any) error
}

// Collection names for the domain entities.
const (
	Clients              = "clients"
	Employees            = "employees"
	Engagements          = "engagements"
	EngagementTypes      = "engagement_types"
	Timesheets           = "timesheets"
	Todos                = "todos"
	CalendarEvents       = "calendar_events"
	Firms                = "firms"
	LeaveRequests        = "leave_requests"
	RecurringEngagements = "recurring_engagements"
	Users                = "users"
)
