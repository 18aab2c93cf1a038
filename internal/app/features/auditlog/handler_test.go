package auditlog_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/clubhub/internal/app/features/auditlog"
	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	"github.com/dalemusser/clubhub/internal/app/store/audit"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/paging"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*auditlog.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	errLog := uierrors.NewErrorLogger(logger)
	return auditlog.NewHandler(db, errLog, logger), testutil.NewFixtures(t, db)
}

type listBody struct {
	Items []struct {
		EventType  string `json:"event_type"`
		ActorName  string `json:"actor_name"`
		TargetName string `json:"target_name"`
		ClubName   string `json:"club_name"`
	} `json:"items"`
	Total  int64 `json:"total"`
	Paging struct {
		HasNext bool `json:"has_next"`
		HasPrev bool `json:"has_prev"`
	} `json:"paging"`
}

func list(t *testing.T, h *auditlog.Handler, target string) listBody {
	t.Helper()
	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest("GET", target, testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)
	var body listBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	return body
}

func TestServeList_FiltersAndNames(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader, club := f.CreateLeader(ctx, "Lee", "lee@example.com", "Chess")
	visitor := f.CreateVisitor(ctx, "Vi", "vi@example.com")

	store := audit.New(f.DB())
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	events := []audit.Event{
		{Timestamp: base, Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, UserID: &visitor.ID, Success: true},
		{Timestamp: base.Add(time.Hour), Category: audit.CategoryClub, EventType: audit.EventJoinRequested, UserID: &visitor.ID, ClubID: &club.ID, Success: true},
		{Timestamp: base.AddDate(0, 0, 2), Category: audit.CategoryClub, EventType: audit.EventJoinAccepted, ActorID: &leader.ID, UserID: &visitor.ID, ClubID: &club.ID, Success: true},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	body := list(t, h, "/audit")
	if body.Total != 3 || len(body.Items) != 3 {
		t.Fatalf("expected 3 events, got %+v", body)
	}
	first := body.Items[0]
	if first.EventType != audit.EventJoinAccepted || first.ActorName != "Lee" || first.TargetName != "Vi" || first.ClubName != "Chess" {
		t.Errorf("most recent event should come first with names resolved, got %+v", first)
	}

	body = list(t, h, "/audit?category=club")
	if body.Total != 2 {
		t.Errorf("category filter: total = %d, want 2", body.Total)
	}

	body = list(t, h, "/audit?start_date=2026-03-10&end_date=2026-03-10")
	if body.Total != 2 {
		t.Errorf("date filter: total = %d, want 2", body.Total)
	}

	body = list(t, h, "/audit?club_id="+club.ID.Hex()+"&event_type="+audit.EventJoinRequested)
	if body.Total != 1 {
		t.Errorf("club + type filter: total = %d, want 1", body.Total)
	}
}

func TestServeList_Paging(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := audit.New(f.DB())
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < paging.PageSize+5; i++ {
		if err := store.Log(ctx, audit.Event{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Category:  audit.CategoryAuth,
			EventType: audit.EventLogout,
		}); err != nil {
			t.Fatal(err)
		}
	}

	body := list(t, h, "/audit")
	if len(body.Items) != paging.PageSize || !body.Paging.HasNext || body.Paging.HasPrev {
		t.Errorf("first page: %d items, paging %+v", len(body.Items), body.Paging)
	}

	body = list(t, h, "/audit?start=51")
	if len(body.Items) != 5 || body.Paging.HasNext || !body.Paging.HasPrev {
		t.Errorf("second page: %d items, paging %+v", len(body.Items), body.Paging)
	}
}

func TestServeList_BadFilters(t *testing.T) {
	h, _ := newTestHandler(t)

	for _, target := range []string{
		"/audit?category=nope",
		"/audit?category=auth&event_type=club_created",
		"/audit?club_id=xyz",
		"/audit?start_date=10/03/2026",
	} {
		rec := testutil.NewRecorder()
		h.ServeList(rec, testutil.NewAuthenticatedRequest("GET", target, testutil.AdminUser()))
		rec.AssertStatus(t, http.StatusBadRequest)
	}
}

func TestRoutes_AdminOnly(t *testing.T) {
	h, _ := newTestHandler(t)
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	router := auditlog.Routes(h, sm)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", "/", testutil.VisitorUser()))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", "/", testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)
}
