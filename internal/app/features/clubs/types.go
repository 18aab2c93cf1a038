// internal/app/features/clubs/types.go
package clubs

import (
	"time"

	"github.com/dalemusser/clubhub/internal/app/policy/clubpolicy"
	"github.com/dalemusser/clubhub/internal/domain/models"
)

type clubRow struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	LeaderID    string    `json:"leader_id,omitempty"`
	MemberCount int64     `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
}

func toRow(c models.Club, members int64) clubRow {
	row := clubRow{
		ID:          c.ID.Hex(),
		Name:        c.Name,
		Description: c.Description,
		MemberCount: members,
		CreatedAt:   c.CreatedAt,
	}
	if leader := c.EffectiveLeaderID(); !leader.IsZero() {
		row.LeaderID = leader.Hex()
	}
	return row
}

type listData struct {
	Clubs []clubRow `json:"clubs"`
}

// viewer describes the caller's standing in one club.
type viewer struct {
	Role          string `json:"role"`
	AllowedInChat bool   `json:"allowed_in_chat"`
	CanManage     bool   `json:"can_manage"`
	JoinPending   bool   `json:"join_pending"`
	CanJoin       bool   `json:"can_join"`
}

type clubData struct {
	Club   clubRow `json:"club"`
	Viewer viewer  `json:"viewer"`
}

type clubInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	LeaderID    string `json:"leader_id"`
}

func newViewer(res clubpolicy.Resolution, canManage, pending bool) viewer {
	return viewer{
		Role:          res.Role,
		AllowedInChat: res.AllowedInChat,
		CanManage:     canManage,
		JoinPending:   pending,
		CanJoin:       res.Role == models.RoleVisitor && !pending,
	}
}
