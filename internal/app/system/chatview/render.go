package chatview

import (
	"strings"
	"time"

	"github.com/dalemusser/clubhub/internal/app/policy/clubpolicy"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Badge is how a role is shown next to a name.
type Badge struct {
	Label string `json:"label"`
	Tone  string `json:"tone"`
}

// RoleBadge returns the badge for role. Unknown roles get no badge.
func RoleBadge(role string) Badge {
	switch role {
	case models.RoleAdmin:
		return Badge{Label: "Admin", Tone: "danger"}
	case models.RoleLeader:
		return Badge{Label: "Leader", Tone: "primary"}
	case models.RoleMember:
		return Badge{Label: "Member", Tone: "success"}
	case models.RoleVisitor:
		return Badge{Label: "Visitor", Tone: "muted"}
	}
	return Badge{}
}

// DisplayName falls back to the local part of email, then to "Anonymous".
func DisplayName(name, email string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	if e := strings.TrimSpace(email); e != "" {
		return e
	}
	return "Anonymous"
}

type MessageView struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	SenderID    string    `json:"sender_id"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	Badge       Badge     `json:"badge"`
	ClientID    string    `json:"client_id,omitempty"`
	Seq         int64     `json:"seq"`
	CreatedAt   time.Time `json:"created_at"`
	Mine        bool      `json:"mine"`
	CanDelete   bool      `json:"can_delete"`
}

// NewMessageView renders m for a viewer holding role in the club.
func NewMessageView(m models.Message, viewerID primitive.ObjectID, role string) MessageView {
	return MessageView{
		ID:          m.ID.Hex(),
		Text:        m.Text,
		SenderID:    m.SenderID.Hex(),
		DisplayName: DisplayName(m.DisplayName, ""),
		Role:        m.Role,
		Badge:       RoleBadge(m.Role),
		ClientID:    m.ClientID,
		Seq:         m.Seq,
		CreatedAt:   m.CreatedAt,
		Mine:        !viewerID.IsZero() && m.SenderID == viewerID,
		CanDelete:   clubpolicy.CanDeleteMessage(m, viewerID, role),
	}
}

type ViewModel struct {
	State    State         `json:"state"`
	ClubID   string        `json:"club_id"`
	Role     string        `json:"role,omitempty"`
	Badge    Badge         `json:"badge"`
	CanSend  bool          `json:"can_send"`
	Draft    string        `json:"draft,omitempty"`
	Messages []MessageView `json:"messages"`
	Error    string        `json:"error,omitempty"`
}

// Render returns the view model for the current state. Messages are only
// present in the ready state.
func (v *View) Render() ViewModel {
	v.mu.Lock()
	defer v.mu.Unlock()

	vm := ViewModel{
		State:    v.state,
		ClubID:   v.clubID.Hex(),
		Role:     v.res.Role,
		Badge:    RoleBadge(v.res.Role),
		Draft:    v.draft,
		Messages: []MessageView{},
	}

	switch v.state {
	case StateReady:
		vm.CanSend = true
		vm.Messages = make([]MessageView, 0, len(v.msgs))
		for _, m := range v.msgs {
			vm.Messages = append(vm.Messages, NewMessageView(m, v.userID, v.res.Role))
		}
	case StateUnauthenticated:
		vm.Error = "Sign in to use club chat."
	case StateForbidden:
		vm.Error = "Chat is open to club members and leaders. Join the club to take part."
	case StateError:
		vm.Error = "Chat is temporarily unavailable. Try again."
	}
	return vm
}
