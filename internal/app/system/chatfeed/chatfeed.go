// Package chatfeed turns a club's message log into a stream of ordered
// snapshots.
//
// A subscriber gets the full ordered list on subscribe and again after
// every insert or delete. Snapshots replace each other: a slow reader
// skips intermediate lists and always sees the latest one.
package chatfeed

import (
	"context"
	"errors"
	"sync"
	"time"

	messagestore "github.com/dalemusser/clubhub/internal/app/store/messages"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrStreamClosed is delivered when the change stream ends without an error.
var ErrStreamClosed = errors.New("chat change stream closed")

// Source is the message log a Feed reads from.
type Source interface {
	List(ctx context.Context, clubID primitive.ObjectID, limit int) ([]models.Message, error)
	Watch(ctx context.Context, clubID primitive.ObjectID) (messagestore.Changes, error)
}

// Snapshot is the club's ordered message list at one point in time, or
// the error that ended the subscription. A snapshot with Err set is
// always the last one.
type Snapshot struct {
	ClubID   primitive.ObjectID
	Messages []models.Message
	Err      error
}

type Options struct {
	// Limit keeps only the newest Limit messages. 0 means all.
	Limit int
	// Poll re-reads the list on an interval when change streams are not
	// available. 0 disables polling; Notify still works in-process.
	Poll time.Duration
}

// Feed hands out subscriptions. It is safe for concurrent use.
type Feed struct {
	src  Source
	log  *zap.Logger
	opts Options

	mu    sync.Mutex
	local map[primitive.ObjectID]map[chan struct{}]struct{}
}

func New(src Source, log *zap.Logger, opts Options) *Feed {
	return &Feed{
		src:   src,
		log:   log,
		opts:  opts,
		local: make(map[primitive.ObjectID]map[chan struct{}]struct{}),
	}
}

// Subscription is one live view of a club. Read snapshots from Updates
// until it is closed; call Cancel when done.
type Subscription struct {
	ClubID primitive.ObjectID

	updates chan Snapshot
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// Updates is closed after Cancel or after an error snapshot.
func (s *Subscription) Updates() <-chan Snapshot { return s.updates }

// Cancel stops the subscription and waits for its goroutine to exit.
// It is safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
	<-s.done
}

// Subscribe opens a live view of clubID. The first snapshot is ready on
// Updates when Subscribe returns. An error from the initial read is
// returned directly and no subscription is created.
func (f *Feed) Subscribe(ctx context.Context, clubID primitive.ObjectID) (*Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)

	// Watch before the first read so nothing between the two is missed.
	var wake <-chan struct{}
	changes, err := f.src.Watch(ctx, clubID)
	switch {
	case err == nil:
	case errors.Is(err, messagestore.ErrWatchUnsupported):
		f.log.Debug("change streams unavailable, using local notify",
			zap.String("club_id", clubID.Hex()))
		wake = f.addLocal(clubID)
		changes = nil
	default:
		cancel()
		return nil, err
	}

	msgs, err := f.src.List(ctx, clubID, f.opts.Limit)
	if err != nil {
		f.release(clubID, changes, wake)
		cancel()
		return nil, err
	}

	s := &Subscription{
		ClubID:  clubID,
		updates: make(chan Snapshot, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	s.updates <- Snapshot{ClubID: clubID, Messages: msgs}

	go f.run(ctx, s, changes, wake, msgs)
	return s, nil
}

func (f *Feed) run(ctx context.Context, s *Subscription, changes messagestore.Changes, wake <-chan struct{}, last []models.Message) {
	defer close(s.done)
	defer close(s.updates)
	defer f.release(s.ClubID, changes, wake)

	var tick <-chan time.Time
	if changes == nil && f.opts.Poll > 0 {
		t := time.NewTicker(f.opts.Poll)
		defer t.Stop()
		tick = t.C
	}

	for {
		if changes != nil {
			if !changes.Next(ctx) {
				if ctx.Err() != nil {
					return
				}
				err := changes.Err()
				if err == nil {
					err = ErrStreamClosed
				}
				f.fail(s, err)
				return
			}
		} else {
			select {
			case <-ctx.Done():
				return
			case <-wake:
			case <-tick:
			}
		}

		msgs, err := f.src.List(ctx, s.ClubID, f.opts.Limit)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			f.fail(s, err)
			return
		}
		if sameIDs(last, msgs) {
			continue
		}
		last = msgs
		offer(s.updates, Snapshot{ClubID: s.ClubID, Messages: msgs})
	}
}

func (f *Feed) fail(s *Subscription, err error) {
	f.log.Warn("chat subscription failed",
		zap.String("club_id", s.ClubID.Hex()),
		zap.Error(err))
	offer(s.updates, Snapshot{ClubID: s.ClubID, Err: err})
}

// offer replaces any unread snapshot with snap. Only the subscription's
// own goroutine sends, so after the drain the send cannot block.
func offer(ch chan Snapshot, snap Snapshot) {
	select {
	case <-ch:
	default:
	}
	ch <- snap
}

func sameIDs(a, b []models.Message) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

// Notify wakes local subscribers of clubID. Callers invoke it after a
// successful append or remove; it matters only when change streams are
// unavailable and never blocks.
func (f *Feed) Notify(clubID primitive.ObjectID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.local[clubID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (f *Feed) addLocal(clubID primitive.ObjectID) chan struct{} {
	ch := make(chan struct{}, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	set := f.local[clubID]
	if set == nil {
		set = make(map[chan struct{}]struct{})
		f.local[clubID] = set
	}
	set[ch] = struct{}{}
	return ch
}

func (f *Feed) release(clubID primitive.ObjectID, changes messagestore.Changes, wake <-chan struct{}) {
	if changes != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := changes.Close(ctx); err != nil {
			f.log.Debug("close change stream", zap.Error(err))
		}
	}
	if wake == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.local[clubID] {
		if (<-chan struct{})(ch) == wake {
			delete(f.local[clubID], ch)
		}
	}
	if len(f.local[clubID]) == 0 {
		delete(f.local, clubID)
	}
}

// Subscribers reports how many local subscribers are waiting on clubID.
func (f *Feed) Subscribers(clubID primitive.ObjectID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.local[clubID])
}
