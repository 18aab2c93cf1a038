package chat_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/clubhub/internal/app/features/chat"
	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	"github.com/dalemusser/clubhub/internal/app/policy/clubpolicy"
	messagestore "github.com/dalemusser/clubhub/internal/app/store/messages"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/chatfeed"
	"github.com/dalemusser/clubhub/internal/app/system/chatview"
	"github.com/dalemusser/clubhub/internal/app/system/ratelimit"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.uber.org/zap"
)

type env struct {
	h      *chat.Handler
	f      *testutil.Fixtures
	leader models.User
	member models.User
	club   models.Club
}

func setup(t *testing.T, postLimit int) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	msgs := messagestore.New(db)
	feed := chatfeed.New(msgs, logger, chatfeed.Options{Limit: 200})
	resolver := clubpolicy.NewResolver(clubpolicy.NewMongoLookup(db), logger)
	views := chatview.NewController(resolver, feed, msgs, logger)

	limiter := ratelimit.New(postLimit, time.Minute)
	t.Cleanup(limiter.Stop)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	f := testutil.NewFixtures(t, db)
	leader, club := f.CreateLeader(ctx, "Lee Leader", "lee@example.com", "Chess Club")
	member := f.CreateMember(ctx, "Mo Member", "mo@example.com", club.ID)

	return &env{
		h:      chat.NewHandler(views, uierrors.NewErrorLogger(logger), nil, limiter, logger),
		f:      f,
		leader: leader,
		member: member,
		club:   club,
	}
}

func (e *env) req(method, target, body string, u models.User) *http.Request {
	r := testutil.WithUser(testutil.NewJSONRequest(method, target, body), testutil.FromUser(u))
	return testutil.WithChiURLParam(r, "id", e.club.ID.Hex())
}

func TestServeChat_MemberSeesMessages(t *testing.T) {
	e := setup(t, 10)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	at := time.Now().Add(-time.Minute)
	e.f.CreateMessage(ctx, e.club.ID, e.leader, "first", at, 1)
	e.f.CreateMessage(ctx, e.club.ID, e.member, "second", at, 2)

	rec := testutil.NewRecorder()
	e.h.ServeChat(rec, e.req("GET", "/clubs/x/chat", "", e.member))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"state":"ready"`)
	rec.AssertContains(t, `"role":"member"`)
	body := rec.Body.String()
	if strings.Index(body, "first") > strings.Index(body, "second") {
		t.Errorf("messages out of order: %s", body)
	}
}

func TestServeChat_VisitorForbidden(t *testing.T) {
	e := setup(t, 10)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	visitor := e.f.CreateVisitor(ctx, "Vi Visitor", "vi@example.com")

	rec := testutil.NewRecorder()
	e.h.ServeChat(rec, e.req("GET", "/clubs/x/chat", "", visitor))

	rec.AssertStatus(t, http.StatusForbidden)
	rec.AssertContains(t, `"state":"forbidden"`)
	rec.AssertContains(t, `"messages":[]`)
}

func TestServeChat_AdminAllowed(t *testing.T) {
	e := setup(t, 10)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	admin := e.f.CreateAdmin(ctx, "Ada Admin", "ada@example.com")

	rec := testutil.NewRecorder()
	e.h.ServeChat(rec, e.req("GET", "/clubs/x/chat", "", admin))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"role":"admin"`)
}

func TestServeChat_BadClubID(t *testing.T) {
	e := setup(t, 10)
	r := testutil.WithChiURLParam(testutil.WithUser(testutil.NewRequest("GET", "/clubs/nope/chat"), testutil.FromUser(e.member)), "id", "nope")

	rec := testutil.NewRecorder()
	e.h.ServeChat(rec, r)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestHandleSend_Member(t *testing.T) {
	e := setup(t, 10)

	rec := testutil.NewRecorder()
	e.h.HandleSend(rec, e.req("POST", "/clubs/x/chat/messages", `{"text":"  hello <b>club</b> & a<b ","client_id":"c-1"}`, e.member))

	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"client_id":"c-1"`)
	rec.AssertContains(t, `"mine":true`)
	rec.AssertContains(t, `"can_delete":true`)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	stored, err := messagestore.New(e.f.DB()).List(ctx, e.club.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 || stored[0].Text != "hello <b>club</b> & a<b" {
		t.Fatalf("unexpected stored messages %+v", stored)
	}
	if stored[0].SenderID != e.member.ID || stored[0].Role != models.RoleMember {
		t.Errorf("unexpected sender %+v", stored[0])
	}
}

func TestHandleSend_AssignsClientID(t *testing.T) {
	e := setup(t, 10)

	rec := testutil.NewRecorder()
	e.h.HandleSend(rec, e.req("POST", "/clubs/x/chat/messages", `{"text":"hi"}`, e.leader))

	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"client_id":"`)
}

func TestHandleSend_Rejections(t *testing.T) {
	e := setup(t, 10)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	visitor := e.f.CreateVisitor(ctx, "Vi Visitor", "vi@example.com")

	tests := []struct {
		name   string
		body   string
		user   models.User
		status int
	}{
		{"empty", `{"text":"   "}`, e.member, http.StatusBadRequest},
		{"too long", `{"text":"` + strings.Repeat("a", messagestore.MaxTextLen+1) + `"}`, e.member, http.StatusBadRequest},
		{"visitor", `{"text":"let me in"}`, visitor, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			e.h.HandleSend(rec, e.req("POST", "/clubs/x/chat/messages", tt.body, tt.user))
			rec.AssertStatus(t, tt.status)
		})
	}

	stored, err := messagestore.New(e.f.DB()).List(ctx, e.club.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 0 {
		t.Errorf("rejected sends must not write, found %d messages", len(stored))
	}
}

func TestHandleSend_RateLimited(t *testing.T) {
	e := setup(t, 2)

	for i := 0; i < 2; i++ {
		rec := testutil.NewRecorder()
		e.h.HandleSend(rec, e.req("POST", "/clubs/x/chat/messages", `{"text":"spam"}`, e.member))
		rec.AssertStatus(t, http.StatusCreated)
	}

	rec := testutil.NewRecorder()
	e.h.HandleSend(rec, e.req("POST", "/clubs/x/chat/messages", `{"text":"spam"}`, e.member))
	rec.AssertStatus(t, http.StatusTooManyRequests)
	rec.AssertContains(t, `"retry":true`)
}

func TestHandleDelete(t *testing.T) {
	e := setup(t, 10)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	other := e.f.CreateMember(ctx, "Oz Other", "oz@example.com", e.club.ID)
	msg := e.f.CreateMessage(ctx, e.club.ID, other, "mine to keep", time.Now(), 1)

	del := func(u models.User) *testutil.ResponseRecorder {
		r := testutil.WithChiURLParam(e.req("POST", "/clubs/x/chat/messages/y/delete", "", u), "messageID", msg.ID.Hex())
		rec := testutil.NewRecorder()
		e.h.HandleDelete(rec, r)
		return rec
	}

	// another member may not delete it
	del(e.member).AssertStatus(t, http.StatusForbidden)

	// the leader may, and a second delete is a no-op
	del(e.leader).AssertStatus(t, http.StatusNoContent)
	del(e.leader).AssertStatus(t, http.StatusNoContent)

	got, err := messagestore.New(e.f.DB()).Get(ctx, e.club.ID, msg.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("message should be gone")
	}
}

func TestHandleDelete_Author(t *testing.T) {
	e := setup(t, 10)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	msg := e.f.CreateMessage(ctx, e.club.ID, e.member, "oops", time.Now(), 1)
	r := testutil.WithChiURLParam(e.req("POST", "/", "", e.member), "messageID", msg.ID.Hex())

	rec := testutil.NewRecorder()
	e.h.HandleDelete(rec, r)
	rec.AssertStatus(t, http.StatusNoContent)
}

func TestServeStream_Forbidden(t *testing.T) {
	e := setup(t, 10)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	visitor := e.f.CreateVisitor(ctx, "Vi Visitor", "vi@example.com")

	rec := testutil.NewRecorder()
	e.h.ServeStream(rec, e.req("GET", "/clubs/x/chat/stream", "", visitor))

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	rec.AssertContains(t, "event: state\n")
	rec.AssertContains(t, `"state":"forbidden"`)
}

func TestServeStream_SnapshotUntilDisconnect(t *testing.T) {
	e := setup(t, 10)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.f.CreateMessage(ctx, e.club.ID, e.leader, "welcome", time.Now(), 1)

	r := e.req("GET", "/clubs/x/chat/stream", "", e.member)
	streamCtx, stop := context.WithTimeout(r.Context(), 1500*time.Millisecond)
	defer stop()

	rec := testutil.NewRecorder()
	e.h.ServeStream(rec, r.WithContext(streamCtx))

	rec.AssertContains(t, "event: snapshot\n")
	rec.AssertContains(t, "welcome")
	if !rec.Flushed {
		t.Error("stream should flush each event")
	}
}

func TestRoutes_RequireSignedIn(t *testing.T) {
	e := setup(t, 10)
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	rec := testutil.NewRecorder()
	chat.Routes(e.h, sm).ServeHTTP(rec, testutil.NewRequest("GET", "/"))
	rec.AssertStatus(t, http.StatusUnauthorized)
}
