// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	"github.com/dalemusser/clubhub/internal/app/store/audit"
	clubstore "github.com/dalemusser/clubhub/internal/app/store/clubs"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/paging"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// ServeList handles GET /audit: audit events, most recent first.
//
// Filters: category, event_type, club_id, user_id, start_date and
// end_date (YYYY-MM-DD, inclusive). Paging uses ?start=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(query.Get(r, "category"))
	eventType := strings.TrimSpace(query.Get(r, "event_type"))
	startDate := strings.TrimSpace(query.Get(r, "start_date"))
	endDate := strings.TrimSpace(query.Get(r, "end_date"))
	start := paging.ParseStart(r)

	if category != "" && eventTypesForCategory(category) == nil {
		uierrors.BadRequest(w, "Unknown category.")
		return
	}
	if eventType != "" && !knownEventType(category, eventType) {
		uierrors.BadRequest(w, "Unknown event type.")
		return
	}

	filter := audit.QueryFilter{
		Category:  category,
		EventType: eventType,
		Limit:     paging.LimitPlusOne(),
		Offset:    paging.Offset(start),
	}

	var ok bool
	if filter.ClubID, ok = optionalID(w, r, "club_id"); !ok {
		return
	}
	if filter.UserID, ok = optionalID(w, r, "user_id"); !ok {
		return
	}

	if startDate != "" {
		t, err := time.Parse(dateLayout, startDate)
		if err != nil {
			uierrors.BadRequest(w, "start_date must be YYYY-MM-DD.")
			return
		}
		filter.StartTime = &t
	}
	if endDate != "" {
		t, err := time.Parse(dateLayout, endDate)
		if err != nil {
			uierrors.BadRequest(w, "end_date must be YYYY-MM-DD.")
			return
		}
		// end of day
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &endOfDay
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	store := audit.New(h.DB)
	events, err := store.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "query audit events failed", err, "A database error occurred.")
		return
	}
	total, err := store.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count audit events failed", err, "A database error occurred.")
		return
	}
	pg := paging.TrimPage(&events, start)

	// batch-resolve names
	userSet := make(map[primitive.ObjectID]struct{})
	clubSet := make(map[primitive.ObjectID]struct{})
	for _, e := range events {
		if e.ActorID != nil {
			userSet[*e.ActorID] = struct{}{}
		}
		if e.UserID != nil {
			userSet[*e.UserID] = struct{}{}
		}
		if e.ClubID != nil {
			clubSet[*e.ClubID] = struct{}{}
		}
	}

	userNames, err := userstore.New(h.DB).NamesByIDs(ctx, keys(userSet))
	if err != nil {
		h.Log.Warn("failed to fetch user names for audit log", zap.Error(err))
		userNames = map[primitive.ObjectID]string{}
	}
	clubNames, err := clubstore.New(h.DB).NamesByIDs(ctx, keys(clubSet))
	if err != nil {
		h.Log.Warn("failed to fetch club names for audit log", zap.Error(err))
		clubNames = map[primitive.ObjectID]string{}
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:        e.ID.Hex(),
			Timestamp: e.Timestamp,
			Category:  e.Category,
			EventType: e.EventType,
			IP:        e.IP,
			Success:   e.Success,
			Reason:    e.FailureReason,
			Details:   e.Details,
		}
		if e.ActorID != nil {
			item.ActorID = e.ActorID.Hex()
			item.ActorName = userNames[*e.ActorID]
		}
		if e.UserID != nil {
			item.TargetID = e.UserID.Hex()
			item.TargetName = userNames[*e.UserID]
		}
		if e.ClubID != nil {
			item.ClubID = e.ClubID.Hex()
			item.ClubName = clubNames[*e.ClubID]
		}
		items = append(items, item)
	}

	uierrors.WriteJSON(w, http.StatusOK, listData{
		Items:      items,
		Total:      total,
		Range:      paging.ComputeRange(start, len(items)),
		Paging:     pg,
		Category:   category,
		EventType:  eventType,
		StartDate:  startDate,
		EndDate:    endDate,
		EventTypes: eventTypesForCategory(category),
	})
}

// optionalID parses an optional ObjectID query parameter, answering 400
// when it is present but malformed.
func optionalID(w http.ResponseWriter, r *http.Request, key string) (*primitive.ObjectID, bool) {
	v := strings.TrimSpace(query.Get(r, key))
	if v == "" {
		return nil, true
	}
	id, err := primitive.ObjectIDFromHex(v)
	if err != nil {
		uierrors.BadRequest(w, "Invalid "+key+".")
		return nil, false
	}
	return &id, true
}

func keys(set map[primitive.ObjectID]struct{}) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
