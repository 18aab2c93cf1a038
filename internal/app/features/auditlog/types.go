// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/clubhub/internal/app/store/audit"
	"github.com/dalemusser/clubhub/internal/app/system/paging"
)

// listItem is one audit event with ids resolved to names where possible.
type listItem struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Category   string            `json:"category"`
	EventType  string            `json:"event_type"`
	ActorID    string            `json:"actor_id,omitempty"`
	ActorName  string            `json:"actor_name,omitempty"`
	TargetID   string            `json:"target_id,omitempty"`
	TargetName string            `json:"target_name,omitempty"`
	ClubID     string            `json:"club_id,omitempty"`
	ClubName   string            `json:"club_name,omitempty"`
	IP         string            `json:"ip"`
	Success    bool              `json:"success"`
	Reason     string            `json:"failure_reason,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

type listData struct {
	Items  []listItem    `json:"items"`
	Total  int64         `json:"total"`
	Range  paging.Range  `json:"range"`
	Paging paging.Result `json:"paging"`

	// echoed filters
	Category   string   `json:"category,omitempty"`
	EventType  string   `json:"event_type,omitempty"`
	StartDate  string   `json:"start_date,omitempty"`
	EndDate    string   `json:"end_date,omitempty"`
	EventTypes []string `json:"event_types"`
}

// eventTypesForCategory returns the event types for a given category.
// If category is empty, returns all event types.
func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventSignUp,
		audit.EventLoginSuccess,
		audit.EventLoginFailedUserNotFound,
		audit.EventLoginFailedWrongPassword,
		audit.EventLoginFailedRateLimit,
		audit.EventLogout,
	}

	adminEvents := []string{
		audit.EventAdminBootstrapped,
		audit.EventClubCreated,
		audit.EventClubUpdated,
		audit.EventClubDeleted,
		audit.EventProposalApproved,
		audit.EventProposalRejected,
	}

	clubEvents := []string{
		audit.EventJoinRequested,
		audit.EventJoinAccepted,
		audit.EventJoinRejected,
		audit.EventMemberRemoved,
		audit.EventProposalSubmitted,
		audit.EventMessageDeleted,
		audit.EventEventDeleted,
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryAdmin:
		return adminEvents
	case audit.CategoryClub:
		return clubEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(adminEvents)+len(clubEvents))
		all = append(all, authEvents...)
		all = append(all, adminEvents...)
		all = append(all, clubEvents...)
		return all
	default:
		return nil
	}
}

func knownEventType(category, eventType string) bool {
	for _, t := range eventTypesForCategory(category) {
		if t == eventType {
			return true
		}
	}
	return false
}
