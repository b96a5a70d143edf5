// Package docstore is a small document-store abstraction over the collections the
// marketplace persists. Backends: in-memory, MongoDB and PostgreSQL (JSONB).
package docstore

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Collection names. They are part of the persisted contract.
const (
	Users       = "users"
	Products    = "products"
	BidRequests = "bidRequests"
	Orders      = "orders"
)

// Collections lists every collection a backend must provision.
var Collections = []string{Users, Products, BidRequests, Orders}

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("docstore: document not found")
	// ErrPreconditionFailed is returned by a conditional Update whose expectations no longer hold.
	ErrPreconditionFailed = errors.New("docstore: precondition failed")
	// ErrUnknownCollection is returned for collection names outside Collections.
	ErrUnknownCollection = errors.New("docstore: unknown collection")
)

// Document is anything that can be inserted. The store assigns an id when DocumentID is empty.
type Document interface {
	DocumentID() string
	SetDocumentID(id string)
}

// Op is a comparison operator.
type Op string

const (
	OpEq  Op = "eq"
	OpNe  Op = "ne"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpGt  Op = "gt"
	OpGte Op = "gte"
)

// Filter compares a (possibly dotted) field with a value.
type Filter struct {
	Field string
	Op    Op
	Value any
}

func Eq(field string, value any) Filter  { return Filter{Field: field, Op: OpEq, Value: value} }
func Ne(field string, value any) Filter  { return Filter{Field: field, Op: OpNe, Value: value} }
func Lt(field string, value any) Filter  { return Filter{Field: field, Op: OpLt, Value: value} }
func Lte(field string, value any) Filter { return Filter{Field: field, Op: OpLte, Value: value} }
func Gt(field string, value any) Filter  { return Filter{Field: field, Op: OpGt, Value: value} }
func Gte(field string, value any) Filter { return Filter{Field: field, Op: OpGte, Value: value} }

// Query selects documents. All filters must hold. Limit <= 0 means no limit.
type Query struct {
	Filters []Filter
	Limit   int
}

// Where builds a Query from filters.
func Where(filters ...Filter) Query { return Query{Filters: filters} }

// Store is the CRUD surface every backend implements.
type Store interface {
	// Get decodes the document with the given id into out.
	Get(ctx context.Context, collection, id string, out any) error

	// Find decodes every matching document into out, which must point to a slice.
	// Documents come back in insertion order where the backend can tell.
	Find(ctx context.Context, collection string, q Query, out any) error

	// Insert stores doc and returns its id.
	Insert(ctx context.Context, collection string, doc Document) (string, error)

	// Update merges the top-level fields in set into the document. When expect is
	// non-empty the update only applies if every filter holds at write time,
	// otherwise ErrPreconditionFailed.
	Update(ctx context.Context, collection, id string, set map[string]any, expect ...Filter) error

	// Delete removes a document.
	Delete(ctx context.Context, collection, id string) error

	// RunInTransaction runs fn atomically. fn must do all its work through tx and the
	// ctx it receives; it may be retried on transient write conflicts.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

var (
	fieldPattern  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)
	topLevelField = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

func newID() string { return uuid.NewString() }

func checkCollection(name string) error {
	for _, c := range Collections {
		if c == name {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownCollection, name)
}

func checkFilters(filters []Filter) error {
	for _, f := range filters {
		if !fieldPattern.MatchString(f.Field) {
			return fmt.Errorf("docstore: invalid field name %q", f.Field)
		}
		switch f.Op {
		case OpEq, OpNe, OpLt, OpLte, OpGt, OpGte:
		default:
			return fmt.Errorf("docstore: invalid operator %q", f.Op)
		}
	}
	return nil
}

func checkFields(set map[string]any) error {
	for field := range set {
		if !topLevelField.MatchString(field) {
			return fmt.Errorf("docstore: invalid field name %q", field)
		}
		if field == "id" {
			return fmt.Errorf("docstore: id is immutable")
		}
	}
	return nil
}

// normalize converts filter and update values to the plain shapes documents hold:
// named string types become string, integers int64, floats float64, times UTC.
func normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case time.Time:
		return x.UTC()
	case *time.Time:
		if x == nil {
			return nil
		}
		return x.UTC()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	default:
		return v
	}
}
