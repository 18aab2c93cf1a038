// internal/app/features/events/types.go
package events

import (
	"strings"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clubhub/internal/app/system/limits"
	"github.com/dalemusser/clubhub/internal/app/system/normalize"
	"github.com/dalemusser/clubhub/internal/domain/models"
)

const (
	maxTitleLen    = 200
	maxLocationLen = 200
	dateLayout     = "2006-01-02"
)

type proposalInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"` // YYYY-MM-DD or RFC 3339
	Location    string `json:"location"`
}

// parseDate accepts a calendar date or a full timestamp.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// clean normalizes the input in place and returns the event date, or a
// user-facing message when the input is rejected. Dates before today
// (UTC) are rejected.
func (in *proposalInput) clean(now time.Time) (time.Time, string) {
	in.Title = normalize.Text(in.Title)
	in.Description = strings.TrimSpace(htmlsanitize.Sanitize(in.Description))
	in.Location = normalize.Text(in.Location)

	switch {
	case in.Title == "":
		return time.Time{}, "Event title is required."
	case len(in.Title) > maxTitleLen:
		return time.Time{}, "Event title is too long."
	case len(in.Description) > limits.MaxDescriptionLen:
		return time.Time{}, "Description is too long."
	case len(in.Location) > maxLocationLen:
		return time.Time{}, "Location is too long."
	}

	date, ok := parseDate(in.Date)
	if !ok {
		return time.Time{}, "Event date must be YYYY-MM-DD."
	}
	today := now.UTC().Truncate(24 * time.Hour)
	if date.Before(today) {
		return time.Time{}, "Event date cannot be in the past."
	}
	return date, ""
}

type eventsData struct {
	Events []models.Event `json:"events"`
}

type proposalsData struct {
	Proposals []models.EventProposal `json:"proposals"`
}

type approvedData struct {
	Event models.Event `json:"event"`
}
