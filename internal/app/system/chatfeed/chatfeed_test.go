package chatfeed_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	messagestore "github.com/dalemusser/clubhub/internal/app/store/messages"
	"github.com/dalemusser/clubhub/internal/app/system/chatfeed"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeChanges struct {
	events chan struct{}
	mu     sync.Mutex
	err    error
	closed bool
}

func newFakeChanges() *fakeChanges {
	return &fakeChanges{events: make(chan struct{})}
}

func (c *fakeChanges) Next(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case _, ok := <-c.events:
		return ok
	}
}

func (c *fakeChanges) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *fakeChanges) Close(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeChanges) fail(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
	close(c.events)
}

func (c *fakeChanges) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// fakeSource serves one list per call from lists; the last entry repeats.
type fakeSource struct {
	mu       sync.Mutex
	lists    [][]models.Message
	listErrs []error
	calls    int
	changes  *fakeChanges
	watchErr error
}

func (s *fakeSource) List(_ context.Context, _ primitive.ObjectID, _ int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i < len(s.listErrs) && s.listErrs[i] != nil {
		return nil, s.listErrs[i]
	}
	if i >= len(s.lists) {
		i = len(s.lists) - 1
	}
	return s.lists[i], nil
}

func (s *fakeSource) Watch(context.Context, primitive.ObjectID) (messagestore.Changes, error) {
	if s.watchErr != nil {
		return nil, s.watchErr
	}
	return s.changes, nil
}

func messages(n int) []models.Message {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]models.Message, n)
	for i := range out {
		out[i] = models.Message{
			ID:        primitive.NewObjectID(),
			Text:      "m",
			Seq:       int64(i + 1),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
	}
	return out
}

// grow returns lists of length 1..n sharing a prefix, like appends would.
func grow(n int) [][]models.Message {
	all := messages(n)
	out := make([][]models.Message, n)
	for i := range out {
		out[i] = all[:i+1]
	}
	return out
}

func next(t *testing.T, sub *chatfeed.Subscription) chatfeed.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-sub.Updates():
		if !ok {
			t.Fatal("updates closed")
		}
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return chatfeed.Snapshot{}
}

func waitClosed(t *testing.T, sub *chatfeed.Subscription) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-sub.Updates():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("updates not closed")
		}
	}
}

func assertOrdered(t *testing.T, msgs []models.Message) {
	t.Helper()
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Before(msgs[i-1]) {
			t.Fatalf("message %d sorts before message %d", i, i-1)
		}
	}
}

func TestSubscribe_InitialAndChanges(t *testing.T) {
	src := &fakeSource{lists: grow(3), changes: newFakeChanges()}
	feed := chatfeed.New(src, zap.NewNop(), chatfeed.Options{})
	clubID := primitive.NewObjectID()

	sub, err := feed.Subscribe(context.Background(), clubID)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Cancel()

	snap := next(t, sub)
	if snap.ClubID != clubID || len(snap.Messages) != 1 {
		t.Fatalf("initial snapshot: %+v", snap)
	}

	src.changes.events <- struct{}{}
	snap = next(t, sub)
	if len(snap.Messages) != 2 {
		t.Fatalf("after change: got %d messages, want 2", len(snap.Messages))
	}
	assertOrdered(t, snap.Messages)
	if snap.Messages[1].ID != src.lists[1][1].ID {
		t.Error("new message should be last")
	}
}

func TestSubscribe_SkipsUnchangedList(t *testing.T) {
	lists := grow(2)
	src := &fakeSource{
		lists:   [][]models.Message{lists[0], lists[0], lists[1]},
		changes: newFakeChanges(),
	}
	feed := chatfeed.New(src, zap.NewNop(), chatfeed.Options{})

	sub, err := feed.Subscribe(context.Background(), primitive.NewObjectID())
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Cancel()
	next(t, sub)

	src.changes.events <- struct{}{} // same list, no snapshot
	src.changes.events <- struct{}{}
	snap := next(t, sub)
	if len(snap.Messages) != 2 {
		t.Errorf("expected the changed list, got %d messages", len(snap.Messages))
	}
}

func TestSubscribe_ReplacesUnreadSnapshot(t *testing.T) {
	src := &fakeSource{lists: grow(4), changes: newFakeChanges()}
	feed := chatfeed.New(src, zap.NewNop(), chatfeed.Options{})

	sub, err := feed.Subscribe(context.Background(), primitive.NewObjectID())
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Cancel()

	// Unbuffered events: the second send returns only after the first
	// change has been listed and offered.
	src.changes.events <- struct{}{}
	src.changes.events <- struct{}{}

	snap := next(t, sub)
	if len(snap.Messages) < 2 {
		t.Errorf("unread initial snapshot should have been replaced, got %d messages", len(snap.Messages))
	}
}

func TestSubscribe_InitialListError(t *testing.T) {
	boom := errors.New("read failed")
	changes := newFakeChanges()
	src := &fakeSource{lists: grow(1), listErrs: []error{boom}, changes: changes}
	feed := chatfeed.New(src, zap.NewNop(), chatfeed.Options{})

	sub, err := feed.Subscribe(context.Background(), primitive.NewObjectID())
	if !errors.Is(err, boom) {
		t.Fatalf("expected read error, got %v", err)
	}
	if sub != nil {
		t.Error("expected no subscription")
	}
	if !changes.isClosed() {
		t.Error("change stream should be closed")
	}
}

func TestSubscribe_WatchError(t *testing.T) {
	boom := errors.New("watch failed")
	src := &fakeSource{lists: grow(1), watchErr: boom}
	feed := chatfeed.New(src, zap.NewNop(), chatfeed.Options{})

	if _, err := feed.Subscribe(context.Background(), primitive.NewObjectID()); !errors.Is(err, boom) {
		t.Errorf("expected watch error, got %v", err)
	}
}

func TestSubscribe_StreamErrorIsTerminal(t *testing.T) {
	src := &fakeSource{lists: grow(1), changes: newFakeChanges()}
	feed := chatfeed.New(src, zap.NewNop(), chatfeed.Options{})

	sub, err := feed.Subscribe(context.Background(), primitive.NewObjectID())
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Cancel()
	next(t, sub)

	boom := errors.New("stream reset")
	src.changes.fail(boom)

	snap := next(t, sub)
	if !errors.Is(snap.Err, boom) {
		t.Fatalf("expected error snapshot, got %+v", snap)
	}
	waitClosed(t, sub)
	if !src.changes.isClosed() {
		t.Error("change stream should be closed")
	}
}

func TestSubscribe_StreamEndWithoutError(t *testing.T) {
	src := &fakeSource{lists: grow(1), changes: newFakeChanges()}
	feed := chatfeed.New(src, zap.NewNop(), chatfeed.Options{})

	sub, err := feed.Subscribe(context.Background(), primitive.NewObjectID())
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Cancel()
	next(t, sub)

	src.changes.fail(nil)
	snap := next(t, sub)
	if !errors.Is(snap.Err, chatfeed.ErrStreamClosed) {
		t.Errorf("expected ErrStreamClosed, got %v", snap.Err)
	}
}

func TestSubscribe_RelistErrorIsTerminal(t *testing.T) {
	boom := errors.New("relist failed")
	src := &fakeSource{lists: grow(1), listErrs: []error{nil, boom}, changes: newFakeChanges()}
	feed := chatfeed.New(src, zap.NewNop(), chatfeed.Options{})

	sub, err := feed.Subscribe(context.Background(), primitive.NewObjectID())
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Cancel()
	next(t, sub)

	src.changes.events <- struct{}{}
	snap := next(t, sub)
	if !errors.Is(snap.Err, boom) {
		t.Fatalf("expected error snapshot, got %+v", snap)
	}
	waitClosed(t, sub)
}

func TestCancel_Idempotent(t *testing.T) {
	src := &fakeSource{lists: grow(1), changes: newFakeChanges()}
	feed := chatfeed.New(src, zap.NewNop(), chatfeed.Options{})

	sub, err := feed.Subscribe(context.Background(), primitive.NewObjectID())
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	sub.Cancel()
	sub.Cancel()

	waitClosed(t, sub)
	if !src.changes.isClosed() {
		t.Error("change stream should be closed after cancel")
	}
}

func TestCancel_ParentContext(t *testing.T) {
	src := &fakeSource{lists: grow(1), changes: newFakeChanges()}
	feed := chatfeed.New(src, zap.NewNop(), chatfeed.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := feed.Subscribe(ctx, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	next(t, sub)

	cancel()
	waitClosed(t, sub)
	sub.Cancel()
}

func TestLocalFallback_Notify(t *testing.T) {
	src := &fakeSource{lists: grow(3), watchErr: messagestore.ErrWatchUnsupported}
	feed := chatfeed.New(src, zap.NewNop(), chatfeed.Options{})
	clubID := primitive.NewObjectID()

	sub, err := feed.Subscribe(context.Background(), clubID)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	next(t, sub)
	if n := feed.Subscribers(clubID); n != 1 {
		t.Fatalf("Subscribers: got %d, want 1", n)
	}

	feed.Notify(primitive.NewObjectID()) // other club
	feed.Notify(clubID)

	snap := next(t, sub)
	if len(snap.Messages) != 2 {
		t.Errorf("after notify: got %d messages, want 2", len(snap.Messages))
	}

	sub.Cancel()
	if n := feed.Subscribers(clubID); n != 0 {
		t.Errorf("Subscribers after cancel: got %d, want 0", n)
	}
	feed.Notify(clubID) // no subscribers, must not block
}

func TestLocalFallback_Poll(t *testing.T) {
	src := &fakeSource{lists: grow(2), watchErr: messagestore.ErrWatchUnsupported}
	feed := chatfeed.New(src, zap.NewNop(), chatfeed.Options{Poll: 10 * time.Millisecond})

	sub, err := feed.Subscribe(context.Background(), primitive.NewObjectID())
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Cancel()
	next(t, sub)

	snap := next(t, sub)
	if len(snap.Messages) != 2 {
		t.Errorf("after poll: got %d messages, want 2", len(snap.Messages))
	}
}
