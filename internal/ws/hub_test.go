package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	msgs   [][]byte
	fail   bool
	closed bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.msgs = append(c.msgs, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) received() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.msgs...)
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h
}

func TestPublishRespectsTopics(t *testing.T) {
	h := startHub(t)
	all, stockOnly := &fakeConn{}, &fakeConn{}
	h.Register <- NewSubscription(all)
	h.Register <- NewSubscription(stockOnly, TopicStock)

	h.Publish(Event{Type: TopicLabelHistory, Action: "created"})
	h.Publish(Event{Type: TopicStock, Action: "status_changed", Data: map[string]string{"serial": "AB12"}})

	require.Eventually(t, func() bool { return len(all.received()) == 2 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(stockOnly.received()) == 1 }, time.Second, 5*time.Millisecond)

	var ev Event
	require.NoError(t, json.Unmarshal(stockOnly.received()[0], &ev))
	assert.Equal(t, TopicStock, ev.Type)
	assert.Equal(t, "status_changed", ev.Action)
}

func TestBrokenConnIsDropped(t *testing.T) {
	h := startHub(t)
	broken := &fakeConn{fail: true}
	h.Register <- NewSubscription(broken)

	h.Publish(Event{Type: TopicUsers, Action: "deleted"})

	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, broken.isClosed())
}

type loopRelay struct {
	mu      sync.Mutex
	deliver func([]byte)
	ready   chan struct{}
	fail    bool
}

func (r *loopRelay) Publish(_ context.Context, msg []byte) error {
	if r.fail {
		return errors.New("redis down")
	}
	<-r.ready
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliver(msg)
	return nil
}

func (r *loopRelay) Subscribe(ctx context.Context, deliver func([]byte)) error {
	r.mu.Lock()
	r.deliver = deliver
	r.mu.Unlock()
	close(r.ready)
	<-ctx.Done()
	return ctx.Err()
}

func TestPublishGoesThroughRelay(t *testing.T) {
	relay := &loopRelay{ready: make(chan struct{})}
	h := NewHub()
	h.UseRelay(relay)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	c := &fakeConn{}
	h.Register <- NewSubscription(c, TopicSettings)
	h.Publish(Event{Type: TopicSettings, Action: "updated"})

	require.Eventually(t, func() bool { return len(c.received()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestRelayFailureFallsBackToLocal(t *testing.T) {
	h := NewHub()
	h.UseRelay(&loopRelay{fail: true, ready: make(chan struct{})})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	c := &fakeConn{}
	h.Register <- NewSubscription(c)
	h.Publish(Event{Type: TopicStockConfig, Action: "type_added"})

	require.Eventually(t, func() bool { return len(c.received()) == 1 }, time.Second, 5*time.Millisecond)
}

type stuckRelay struct {
	release chan struct{}
}

func (r *stuckRelay) Publish(ctx context.Context, _ []byte) error {
	select {
	case <-r.release:
	case <-ctx.Done():
	}
	return errors.New("relay unavailable")
}

func (r *stuckRelay) Subscribe(ctx context.Context, _ func([]byte)) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestPublishDoesNotWaitForRelay(t *testing.T) {
	relay := &stuckRelay{release: make(chan struct{})}
	h := NewHub()
	h.UseRelay(relay)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	c := &fakeConn{}
	h.Register <- NewSubscription(c)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 3; i++ {
			h.Publish(Event{Type: TopicStock, Action: "created"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("Publish waited on the relay")
	}

	close(relay.release)
	require.Eventually(t, func() bool { return len(c.received()) == 3 }, time.Second, 5*time.Millisecond)
}

func TestNilHubPublishIsNoop(t *testing.T) {
	var h *Hub
	assert.NotPanics(t, func() { h.Publish(Event{Type: TopicStock}) })
}
