package members_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	"github.com/dalemusser/clubhub/internal/app/features/members"
	"github.com/dalemusser/clubhub/internal/app/policy/clubpolicy"
	memberstore "github.com/dalemusser/clubhub/internal/app/store/members"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*members.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	resolver := clubpolicy.NewResolver(clubpolicy.NewMongoLookup(db), logger)
	return members.NewHandler(db, resolver, uierrors.NewErrorLogger(logger), nil, logger), testutil.NewFixtures(t, db)
}

func req(method string, u models.User, clubID primitive.ObjectID) *http.Request {
	r := testutil.WithUser(testutil.NewRequest(method, "/"), testutil.FromUser(u))
	return testutil.WithChiURLParam(r, "id", clubID.Hex())
}

func TestServeList(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader, club := f.CreateLeader(ctx, "Lee", "lee@example.com", "Chess")
	member := f.CreateMember(ctx, "Ann", "ann@example.com", club.ID)
	visitor := f.CreateVisitor(ctx, "Vi", "vi@example.com")

	for _, tt := range []struct {
		name   string
		user   models.User
		status int
	}{
		{"leader", leader, http.StatusOK},
		{"admin", f.CreateAdmin(ctx, "Ad", "ad@example.com"), http.StatusOK},
		{"member", member, http.StatusForbidden},
		{"visitor", visitor, http.StatusForbidden},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.ServeList(rec, req("GET", tt.user, club.ID))
			rec.AssertStatus(t, tt.status)
		})
	}

	rec := testutil.NewRecorder()
	h.ServeList(rec, req("GET", leader, club.ID))
	var body struct {
		Members []struct {
			Name string `json:"name"`
			Role string `json:"role"`
		} `json:"members"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Total != 2 || body.Members[0].Name != "Ann" || body.Members[1].Role != models.RoleLeader {
		t.Errorf("unexpected roster %+v", body)
	}
}

func TestHandleRemove(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader, club := f.CreateLeader(ctx, "Lee", "lee@example.com", "Chess")
	member := f.CreateMember(ctx, "Ann", "ann@example.com", club.ID)
	users := userstore.New(f.DB())
	if err := users.PromoteToMember(ctx, member.ID, club.ID); err != nil {
		t.Fatal(err)
	}

	remove := func(actor models.User, target primitive.ObjectID) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		h.HandleRemove(rec, testutil.WithChiURLParam(req("POST", actor, club.ID), "userID", target.Hex()))
		return rec
	}

	remove(member, leader.ID).AssertStatus(t, http.StatusForbidden)
	remove(leader, leader.ID).AssertStatus(t, http.StatusConflict)
	remove(leader, member.ID).AssertStatus(t, http.StatusNoContent)
	remove(leader, member.ID).AssertStatus(t, http.StatusNotFound)

	if m, _ := memberstore.New(f.DB()).Get(ctx, club.ID, member.ID); m != nil {
		t.Error("member record should be gone")
	}
	u, err := users.GetByID(ctx, member.ID)
	if err != nil {
		t.Fatal(err)
	}
	if u.ClubID != nil || u.Role != models.RoleVisitor {
		t.Errorf("removed member should be a visitor with no club, got role=%q club=%v", u.Role, u.ClubID)
	}
}

func TestRoutes(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	_, club := f.CreateLeader(ctx, "Lee", "lee@example.com", "Chess")

	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	rec := testutil.NewRecorder()
	members.Routes(h, sm).ServeHTTP(rec, testutil.WithChiURLParam(testutil.NewRequest("GET", "/"), "id", club.ID.Hex()))
	rec.AssertStatus(t, http.StatusUnauthorized)
}
