package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps documents as JSON in process memory. Every operation is
// serialized; transactions work on a copy that replaces the live data on commit.
type MemoryStore struct {
	mu   sync.Mutex
	data memData
}

type memCollection struct {
	order []string
	docs  map[string][]byte
}

type memData map[string]*memCollection

// NewMemoryStore creates an empty store with every collection provisioned.
func NewMemoryStore() *MemoryStore {
	data := memData{}
	for _, c := range Collections {
		data[c] = &memCollection{docs: map[string][]byte{}}
	}
	return &MemoryStore{data: data}
}

func (d memData) clone() memData {
	out := make(memData, len(d))
	for name, c := range d {
		docs := make(map[string][]byte, len(c.docs))
		for id, raw := range c.docs {
			docs[id] = raw
		}
		out[name] = &memCollection{order: append([]string(nil), c.order...), docs: docs}
	}
	return out
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{data: s.data}).Get(ctx, collection, id, out)
}

func (s *MemoryStore) Find(ctx context.Context, collection string, q Query, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{data: s.data}).Find(ctx, collection, q, out)
}

func (s *MemoryStore) Insert(ctx context.Context, collection string, doc Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{data: s.data}).Insert(ctx, collection, doc)
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, set map[string]any, expect ...Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{data: s.data}).Update(ctx, collection, id, set, expect...)
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{data: s.data}).Delete(ctx, collection, id)
}

func (s *MemoryStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.data.clone()
	if err := fn(ctx, &memTx{data: working}); err != nil {
		return err
	}
	s.data = working
	return nil
}

// memTx operates on a memData without locking; the caller holds MemoryStore.mu.
type memTx struct {
	data memData
}

func (t *memTx) collection(ctx context.Context, name string) (*memCollection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok := t.data[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, name)
	}
	return c, nil
}

func (t *memTx) Get(ctx context.Context, collection, id string, out any) error {
	c, err := t.collection(ctx, collection)
	if err != nil {
		return err
	}
	raw, ok := c.docs[id]
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(raw, out)
}

func (t *memTx) Find(ctx context.Context, collection string, q Query, out any) error {
	c, err := t.collection(ctx, collection)
	if err != nil {
		return err
	}
	if err := checkFilters(q.Filters); err != nil {
		return err
	}

	var matched [][]byte
	for _, id := range c.order {
		raw := c.docs[id]
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("docstore: corrupt document %s/%s: %w", collection, id, err)
		}
		if !matchAll(doc, q.Filters) {
			continue
		}
		matched = append(matched, raw)
		if q.Limit > 0 && len(matched) == q.Limit {
			break
		}
	}

	buf := bytes.NewBufferString("[")
	buf.Write(bytes.Join(matched, []byte(",")))
	buf.WriteString("]")
	return json.Unmarshal(buf.Bytes(), out)
}

func (t *memTx) Insert(ctx context.Context, collection string, doc Document) (string, error) {
	c, err := t.collection(ctx, collection)
	if err != nil {
		return "", err
	}
	if doc.DocumentID() == "" {
		doc.SetDocumentID(newID())
	}
	id := doc.DocumentID()
	if _, exists := c.docs[id]; exists {
		return "", fmt.Errorf("docstore: duplicate id %s in %s", id, collection)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("docstore: encode document: %w", err)
	}
	c.docs[id] = raw
	c.order = append(c.order, id)
	return id, nil
}

func (t *memTx) Update(ctx context.Context, collection, id string, set map[string]any, expect ...Filter) error {
	c, err := t.collection(ctx, collection)
	if err != nil {
		return err
	}
	if err := checkFields(set); err != nil {
		return err
	}
	if err := checkFilters(expect); err != nil {
		return err
	}
	raw, ok := c.docs[id]
	if !ok {
		return ErrNotFound
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("docstore: corrupt document %s/%s: %w", collection, id, err)
	}
	if !matchAll(doc, expect) {
		return ErrPreconditionFailed
	}

	for field, value := range set {
		encoded, err := json.Marshal(normalize(value))
		if err != nil {
			return fmt.Errorf("docstore: encode field %s: %w", field, err)
		}
		var decoded any
		if err := json.Unmarshal(encoded, &decoded); err != nil {
			return err
		}
		doc[field] = decoded
	}

	updated, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	c.docs[id] = updated
	return nil
}

func (t *memTx) Delete(ctx context.Context, collection, id string) error {
	c, err := t.collection(ctx, collection)
	if err != nil {
		return err
	}
	if _, ok := c.docs[id]; !ok {
		return ErrNotFound
	}
	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (t *memTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return fn(ctx, t)
}

// ── filter evaluation ─────────────────────────────────────────────────────────

func matchAll(doc map[string]any, filters []Filter) bool {
	for _, f := range filters {
		if !match(lookup(doc, f.Field), f.Op, normalize(f.Value)) {
			return false
		}
	}
	return true
}

func lookup(doc map[string]any, field string) any {
	var current any = doc
	for _, part := range strings.Split(field, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[part]
	}
	return current
}

func match(actual any, op Op, want any) bool {
	cmp, ok := compare(actual, want)
	if !ok {
		// incomparable values only satisfy "not equal"
		return op == OpNe
	}
	switch op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	}
	return false
}

// compare orders a decoded JSON value against a normalized filter value.
func compare(actual, want any) (int, bool) {
	if want == nil || actual == nil {
		if want == nil && actual == nil {
			return 0, true
		}
		return 0, false
	}

	switch w := want.(type) {
	case string:
		a, ok := actual.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(a, w), true
	case bool:
		a, ok := actual.(bool)
		if !ok || a != w {
			return 1, ok
		}
		return 0, true
	case int64:
		return compareFloat(actual, float64(w))
	case float64:
		return compareFloat(actual, w)
	case time.Time:
		s, ok := actual.(string)
		if !ok {
			return 0, false
		}
		a, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return 0, false
		}
		return a.Compare(w), true
	}
	return 0, false
}

func compareFloat(actual any, w float64) (int, bool) {
	a, ok := actual.(float64)
	if !ok {
		return 0, false
	}
	switch {
	case a < w:
		return -1, true
	case a > w:
		return 1, true
	default:
		return 0, true
	}
}
