package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStatus string

type testDoc struct {
	ID        string     `json:"id" bson:"_id"`
	Name      string     `json:"name" bson:"name"`
	Status    testStatus `json:"status" bson:"status"`
	Price     float64    `json:"price" bson:"price"`
	Quantity  int        `json:"quantity" bson:"quantity"`
	Location  testLoc    `json:"location" bson:"location"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
}

type testLoc struct {
	City string `json:"city" bson:"city"`
}

func (d *testDoc) DocumentID() string      { return d.ID }
func (d *testDoc) SetDocumentID(id string) { d.ID = id }

func seed(t *testing.T, s Store, docs ...*testDoc) {
	t.Helper()
	for _, d := range docs {
		_, err := s.Insert(context.Background(), Products, d)
		require.NoError(t, err)
	}
}

func TestMemoryInsertAssignsID(t *testing.T) {
	s := NewMemoryStore()
	doc := &testDoc{Name: "tomatoes"}

	id, err := s.Insert(context.Background(), Products, doc)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, doc.ID)

	var got testDoc
	require.NoError(t, s.Get(context.Background(), Products, id, &got))
	assert.Equal(t, "tomatoes", got.Name)
}

func TestMemoryInsertRejectsDuplicateID(t *testing.T) {
	s := NewMemoryStore()
	seed(t, s, &testDoc{ID: "p1"})

	_, err := s.Insert(context.Background(), Products, &testDoc{ID: "p1"})
	assert.Error(t, err)
}

func TestMemoryGetMissing(t *testing.T) {
	s := NewMemoryStore()
	var got testDoc
	assert.ErrorIs(t, s.Get(context.Background(), Orders, "nope", &got), ErrNotFound)
}

func TestMemoryUnknownCollection(t *testing.T) {
	s := NewMemoryStore()
	var got []testDoc
	assert.ErrorIs(t, s.Find(context.Background(), "carts", Query{}, &got), ErrUnknownCollection)
}

func TestMemoryFindFilters(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seed(t, s,
		&testDoc{ID: "a", Name: "onion", Status: "pending", Price: 20, Quantity: 5, Location: testLoc{City: "Pune"}, CreatedAt: base},
		&testDoc{ID: "b", Name: "potato", Status: "rejected", Price: 35, Quantity: 0, Location: testLoc{City: "Nashik"}, CreatedAt: base.Add(time.Hour)},
		&testDoc{ID: "c", Name: "garlic", Status: "pending", Price: 120, Quantity: 9, Location: testLoc{City: "Pune"}, CreatedAt: base.Add(2 * time.Hour)},
	)

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"named string type", Where(Eq("status", testStatus("pending"))), []string{"a", "c"}},
		{"not equal", Where(Ne("status", "pending")), []string{"b"}},
		{"numeric range", Where(Gte("price", 20), Lt("price", 100)), []string{"a", "b"}},
		{"int against float field", Where(Gt("quantity", 0)), []string{"a", "c"}},
		{"nested field", Where(Eq("location.city", "Pune")), []string{"a", "c"}},
		{"time comparison", Where(Gt("createdAt", base)), []string{"b", "c"}},
		{"limit", Query{Limit: 2}, []string{"a", "b"}},
		{"no match", Where(Eq("name", "okra")), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []testDoc
			require.NoError(t, s.Find(context.Background(), Products, tt.q, &got))
			var ids []string
			for _, d := range got {
				ids = append(ids, d.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestMemoryFindRejectsBadField(t *testing.T) {
	s := NewMemoryStore()
	var got []testDoc
	err := s.Find(context.Background(), Products, Where(Eq("price; drop", 1)), &got)
	assert.Error(t, err)
}

func TestMemoryConditionalUpdate(t *testing.T) {
	s := NewMemoryStore()
	seed(t, s, &testDoc{ID: "bid1", Status: "pending"})
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, Products, "bid1", map[string]any{"status": testStatus("accepted")}, Eq("status", "pending")))

	err := s.Update(ctx, Products, "bid1", map[string]any{"status": "rejected"}, Eq("status", "pending"))
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	var got testDoc
	require.NoError(t, s.Get(ctx, Products, "bid1", &got))
	assert.Equal(t, testStatus("accepted"), got.Status)

	assert.ErrorIs(t, s.Update(ctx, Products, "missing", map[string]any{"status": "x"}), ErrNotFound)
	assert.Error(t, s.Update(ctx, Products, "bid1", map[string]any{"id": "other"}))
	assert.Error(t, s.Update(ctx, Products, "bid1", map[string]any{"location.city": "Pune"}))
}

func TestMemoryDelete(t *testing.T) {
	s := NewMemoryStore()
	seed(t, s, &testDoc{ID: "a"}, &testDoc{ID: "b"})
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, Products, "a"))
	assert.ErrorIs(t, s.Delete(ctx, Products, "a"), ErrNotFound)

	var got []testDoc
	require.NoError(t, s.Find(ctx, Products, Query{}, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

func TestMemoryTransactionRollsBack(t *testing.T) {
	s := NewMemoryStore()
	seed(t, s, &testDoc{ID: "a", Quantity: 5})
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.RunInTransaction(ctx, func(ctx context.Context, tx Store) error {
		if err := tx.Update(ctx, Products, "a", map[string]any{"quantity": 0}); err != nil {
			return err
		}
		if _, err := tx.Insert(ctx, Orders, &testDoc{ID: "o1"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var got testDoc
	require.NoError(t, s.Get(ctx, Products, "a", &got))
	assert.Equal(t, 5, got.Quantity)
	assert.ErrorIs(t, s.Get(ctx, Orders, "o1", &testDoc{}), ErrNotFound)
}

func TestMemoryTransactionCommits(t *testing.T) {
	s := NewMemoryStore()
	seed(t, s, &testDoc{ID: "a", Quantity: 5})
	ctx := context.Background()

	err := s.RunInTransaction(ctx, func(ctx context.Context, tx Store) error {
		if err := tx.Update(ctx, Products, "a", map[string]any{"quantity": 3}, Gte("quantity", 2)); err != nil {
			return err
		}
		_, err := tx.Insert(ctx, Orders, &testDoc{ID: "o1"})
		return err
	})
	require.NoError(t, err)

	var got testDoc
	require.NoError(t, s.Get(ctx, Products, "a", &got))
	assert.Equal(t, 3, got.Quantity)
	require.NoError(t, s.Get(ctx, Orders, "o1", &testDoc{}))
}

func TestMemoryCancelledContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Get(ctx, Products, "a", &testDoc{}), context.Canceled)
}
