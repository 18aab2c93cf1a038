// Package chatview drives a club chat surface: it gates access by the
// caller's club role, keeps the live message list, and carries the
// composer draft across failed sends.
package chatview

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/dalemusser/clubhub/internal/app/policy/clubpolicy"
	messagestore "github.com/dalemusser/clubhub/internal/app/store/messages"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/chatfeed"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type State string

const (
	StateLoading         State = "loading"
	StateUnauthenticated State = "unauthenticated"
	StateForbidden       State = "forbidden"
	StateReady           State = "ready"
	StateError           State = "error"
)

var (
	// ErrNotReady is returned by Send and Delete outside the ready state.
	ErrNotReady = errors.New("chat is not available")
	// ErrNotAllowed is returned by Delete when the caller may not remove the message.
	ErrNotAllowed = errors.New("not allowed to delete this message")
)

type Resolver interface {
	Resolve(ctx context.Context, clubID, userID primitive.ObjectID) clubpolicy.Resolution
}

type Subscriber interface {
	Subscribe(ctx context.Context, clubID primitive.ObjectID) (*chatfeed.Subscription, error)
}

type Writer interface {
	Append(ctx context.Context, clubID primitive.ObjectID, nm messagestore.NewMessage) (models.Message, error)
	Remove(ctx context.Context, clubID, id primitive.ObjectID) error
	Get(ctx context.Context, clubID, id primitive.ObjectID) (*models.Message, error)
}

// notifier is implemented by *chatfeed.Feed.
type notifier interface {
	Notify(clubID primitive.ObjectID)
}

// Controller opens views. One Controller serves every request.
type Controller struct {
	resolver Resolver
	feed     Subscriber
	writer   Writer
	log      *zap.Logger
}

func NewController(resolver Resolver, feed Subscriber, writer Writer, log *zap.Logger) *Controller {
	return &Controller{resolver: resolver, feed: feed, writer: writer, log: log}
}

// View is one user's chat surface for one club. Methods are safe for
// concurrent use; the snapshot pump runs in its own goroutine.
type View struct {
	c *Controller

	mu      sync.Mutex
	user    *auth.SessionUser
	userID  primitive.ObjectID
	clubID  primitive.ObjectID
	state   State
	res     clubpolicy.Resolution
	msgs    []models.Message
	err     error
	draft   string
	live    bool
	sub     *chatfeed.Subscription
	pumped  chan struct{}
	changed chan struct{}
}

// Open resolves the caller's access and, when allowed, subscribes to the
// club. It returns once the view has left the loading state. user may be
// nil for a signed-out caller.
func (c *Controller) Open(ctx context.Context, user *auth.SessionUser, clubID primitive.ObjectID) *View {
	return c.open(ctx, user, clubID, true)
}

// Writer resolves the caller's access without subscribing. The view
// reaches ready with an empty message list and serves Send and Delete;
// Retry and SwitchClub re-run only the access check.
func (c *Controller) Writer(ctx context.Context, user *auth.SessionUser, clubID primitive.ObjectID) *View {
	return c.open(ctx, user, clubID, false)
}

func (c *Controller) open(ctx context.Context, user *auth.SessionUser, clubID primitive.ObjectID, live bool) *View {
	v := &View{
		c:       c,
		user:    user,
		clubID:  clubID,
		state:   StateLoading,
		live:    live,
		changed: make(chan struct{}, 1),
	}
	if user != nil {
		if oid, err := primitive.ObjectIDFromHex(user.ID); err == nil {
			v.userID = oid
		}
	}
	v.load(ctx)
	return v
}

func (v *View) load(ctx context.Context) {
	v.mu.Lock()
	clubID, userID, live := v.clubID, v.userID, v.live
	v.state = StateLoading
	v.msgs = nil
	v.err = nil
	v.mu.Unlock()

	if userID.IsZero() {
		v.settle(StateUnauthenticated, clubpolicy.Resolution{}, nil, nil)
		return
	}

	res := v.c.resolver.Resolve(ctx, clubID, userID)
	switch {
	case res.Err != nil:
		v.settle(StateError, res, res.Err, nil)
		return
	case res.Unauthenticated():
		v.settle(StateUnauthenticated, res, nil, nil)
		return
	case !res.AllowedInChat:
		v.settle(StateForbidden, res, nil, nil)
		return
	case !live:
		v.settle(StateReady, res, nil, nil)
		return
	}

	sub, err := v.c.feed.Subscribe(ctx, clubID)
	if err != nil {
		v.c.log.Warn("chat subscribe failed",
			zap.String("club_id", clubID.Hex()),
			zap.Error(err))
		v.settle(StateError, res, err, nil)
		return
	}

	// The first snapshot is ready when Subscribe returns.
	first, ok := <-sub.Updates()
	if !ok || first.Err != nil {
		sub.Cancel()
		err := first.Err
		if err == nil {
			err = chatfeed.ErrStreamClosed
		}
		v.settle(StateError, res, err, nil)
		return
	}

	pumped := make(chan struct{})
	v.mu.Lock()
	v.sub = sub
	v.pumped = pumped
	v.mu.Unlock()
	v.settle(StateReady, res, nil, first.Messages)

	go v.pump(sub, pumped)
}

func (v *View) settle(state State, res clubpolicy.Resolution, err error, msgs []models.Message) {
	v.mu.Lock()
	v.state = state
	v.res = res
	v.err = err
	v.msgs = msgs
	v.mu.Unlock()
	v.signal()
}

func (v *View) pump(sub *chatfeed.Subscription, done chan struct{}) {
	defer close(done)

	for snap := range sub.Updates() {
		v.mu.Lock()
		if v.sub != sub {
			v.mu.Unlock()
			return
		}
		if snap.Err != nil {
			v.state = StateError
			v.err = snap.Err
		} else {
			v.msgs = snap.Messages
		}
		v.mu.Unlock()
		v.signal()
	}
}

func (v *View) signal() {
	select {
	case v.changed <- struct{}{}:
	default:
	}
}

// Changes receives a value after the view's state or message list changed.
// Signals coalesce; call Render after each one.
func (v *View) Changes() <-chan struct{} { return v.changed }

// detach stops the current subscription, if any, and waits for the pump.
func (v *View) detach() {
	v.mu.Lock()
	sub, pumped := v.sub, v.pumped
	v.sub, v.pumped = nil, nil
	v.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
	if pumped != nil {
		<-pumped
	}
}

// Retry re-enters loading and runs the access check and subscription again.
func (v *View) Retry(ctx context.Context) {
	v.detach()
	v.load(ctx)
}

// SwitchClub cancels the current subscription before opening clubID.
// The draft does not carry over.
func (v *View) SwitchClub(ctx context.Context, clubID primitive.ObjectID) {
	v.detach()
	v.mu.Lock()
	v.clubID = clubID
	v.draft = ""
	v.mu.Unlock()
	v.load(ctx)
}

// Close releases the subscription. The view keeps its last rendering.
func (v *View) Close() {
	v.detach()
}

func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *View) Resolution() clubpolicy.Resolution {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.res
}

func (v *View) ClubID() primitive.ObjectID {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.clubID
}

// Draft is the composer text kept after a failed send.
func (v *View) Draft() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.draft
}

// Send appends text as the current user. Empty text is rejected before
// any write. On failure the draft keeps text so the caller can retry; on
// success the draft clears.
func (v *View) Send(ctx context.Context, text, clientID string) (models.Message, error) {
	v.mu.Lock()
	v.draft = text
	state, clubID, res := v.state, v.clubID, v.res
	nm := messagestore.NewMessage{
		Text:     text,
		SenderID: v.userID,
		Role:     res.Role,
		ClientID: clientID,
	}
	if v.user != nil {
		nm.DisplayName = DisplayName(v.user.Name, v.user.Email)
	}
	v.mu.Unlock()

	if state != StateReady {
		return models.Message{}, ErrNotReady
	}
	if strings.TrimSpace(text) == "" {
		return models.Message{}, messagestore.ErrEmptyMessage
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.ChatAppend(), v.c.log, "chat append")
	defer cancel()

	m, err := v.c.writer.Append(ctx, clubID, nm)
	if err != nil {
		v.c.log.Warn("chat append failed",
			zap.String("club_id", clubID.Hex()),
			zap.String("user_id", v.userID.Hex()),
			zap.Error(err))
		return models.Message{}, err
	}

	v.mu.Lock()
	if v.draft == text {
		v.draft = ""
	}
	v.mu.Unlock()
	v.notify(clubID)
	return m, nil
}

// Delete removes a message the caller may delete. A message that is
// already gone returns (nil, nil).
func (v *View) Delete(ctx context.Context, messageID primitive.ObjectID) (*models.Message, error) {
	v.mu.Lock()
	state, clubID, role := v.state, v.clubID, v.res.Role
	v.mu.Unlock()

	if state != StateReady {
		return nil, ErrNotReady
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), v.c.log, "chat delete")
	defer cancel()

	msg, err := v.c.writer.Get(ctx, clubID, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, nil
	}
	if !clubpolicy.CanDeleteMessage(*msg, v.userID, role) {
		return nil, ErrNotAllowed
	}
	if err := v.c.writer.Remove(ctx, clubID, messageID); err != nil {
		return nil, err
	}
	v.notify(clubID)
	return msg, nil
}

func (v *View) notify(clubID primitive.ObjectID) {
	if n, ok := v.c.feed.(notifier); ok {
		n.Notify(clubID)
	}
}
