package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/freshfarm/vendorgpt-backend/internal/docstore"
	"github.com/freshfarm/vendorgpt-backend/internal/metrics"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/bid"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/order"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recorder) Publish(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

func newWatcher(store docstore.Store, pub Publisher) *Watcher {
	return NewWatcher(bid.NewDocumentRepository(store), order.NewDocumentRepository(store), pub, time.Millisecond, metrics.Noop(), zap.NewNop())
}

func postBid(t *testing.T, svc bid.Service, product string) *bid.BidRequest {
	t.Helper()
	b, err := svc.CreateBid(context.Background(), bid.Vendor{ID: "v1", Name: "Ravi", Email: "ravi@example.com"}, bid.CreateRequest{
		ProductName: product,
		Quantity:    10,
		BidPrice:    20,
		Urgency:     bid.UrgencyToday,
		Location:    "Pune",
	})
	require.NoError(t, err)
	return b
}

func TestPollEmitsChanges(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	bids := bid.NewService(store, metrics.Noop(), zap.NewNop())
	orders := order.NewService(store, nil, metrics.Noop(), zap.NewNop())
	pub := &recorder{}
	w := newWatcher(store, pub)

	existing := postBid(t, bids, "okra")

	events, err := w.Poll(ctx)
	require.NoError(t, err)
	assert.Empty(t, events, "first poll only records the baseline")

	fresh := postBid(t, bids, "garlic")
	_, err = bids.RejectBid(ctx, existing.ID)
	require.NoError(t, err)

	events, err = w.Poll(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	changed := byKind(events, KindBidStatusChanged)
	require.NotNil(t, changed)
	assert.Equal(t, existing.ID, changed.ID)
	assert.Equal(t, "pending", changed.PreviousStatus)
	assert.Equal(t, "rejected", changed.Status)
	posted := byKind(events, KindBidPosted)
	require.NotNil(t, posted)
	assert.Equal(t, fresh.ID, posted.ID)
	assert.Equal(t, "garlic", posted.Bid.ProductName)

	_, placed, err := bids.AcceptAndCreateOrder(ctx, fresh.ID, bid.Wholesaler{ID: "w1", Name: "Sharma"})
	require.NoError(t, err)
	events, err = w.Poll(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "order_placed", events[0].Status)

	_, err = orders.AdvanceStatus(ctx, "w1", placed.ID, order.UpdateStatusRequest{Status: order.StatusShipped})
	require.NoError(t, err)
	events, err = w.Poll(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, KindOrderStatusChanged, events[0].Kind)
	assert.Equal(t, "confirmed", events[0].PreviousStatus)
	assert.Equal(t, "shipped", events[0].Status)

	events, err = w.Poll(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)

	assert.Len(t, pub.kinds(), 4)
}

func byKind(events []Event, kind string) *Event {
	for i := range events {
		if events[i].Kind == kind {
			return &events[i]
		}
	}
	return nil
}

func TestPollKeepsGoingWhenPublishFails(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	bids := bid.NewService(store, metrics.Noop(), zap.NewNop())
	pub := &recorder{err: errors.New("redis down")}
	w := newWatcher(store, pub)

	_, err := w.Poll(ctx)
	require.NoError(t, err)
	postBid(t, bids, "ginger")

	events, err := w.Poll(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	events, err = w.Poll(ctx)
	require.NoError(t, err)
	assert.Empty(t, events, "a failed publish is not retried")
}

type failingBids struct{}

func (failingBids) ListAll(ctx context.Context) ([]bid.BidRequest, error) {
	return nil, errors.New("store unreachable")
}

func TestPollFailureKeepsSnapshot(t *testing.T) {
	store := docstore.NewMemoryStore()
	w := NewWatcher(failingBids{}, order.NewDocumentRepository(store), &recorder{}, time.Second, metrics.Noop(), zap.NewNop())

	_, err := w.Poll(context.Background())
	assert.Error(t, err)
	assert.False(t, w.primed)
}

func TestRunStopsOnCancel(t *testing.T) {
	store := docstore.NewMemoryStore()
	bids := bid.NewService(store, metrics.Noop(), zap.NewNop())
	pub := &recorder{}
	w := newWatcher(store, pub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// let the baseline poll happen before posting
	time.Sleep(20 * time.Millisecond)
	postBid(t, bids, "lemons")

	assert.Eventually(t, func() bool { return len(pub.kinds()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestRedisPublisher(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	ctx := context.Background()

	sub := client.Subscribe(ctx, DefaultChannel)
	t.Cleanup(func() { sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	pub := NewRedisPublisher(client, "")
	require.NoError(t, pub.Publish(ctx, Event{Kind: KindBidPosted, ID: "b1", Status: "pending"}))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultChannel, msg.Channel)

	var got Event
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, KindBidPosted, got.Kind)
	assert.Equal(t, "b1", got.ID)

	mr.Close()
	assert.Error(t, pub.Publish(ctx, Event{Kind: KindBidPosted, ID: "b2"}))
}

func TestLogPublisher(t *testing.T) {
	assert.NoError(t, NewLogPublisher(zap.NewNop()).Publish(context.Background(), Event{Kind: KindOrderStatusChanged}))
}
