// internal/domain/models/member.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member is the authoritative join between a user and a club.
// Exactly one document per (club_id, user_id). Name, email, stream and
// course are copied from the user when the join request is accepted.
type Member struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClubID   primitive.ObjectID `bson:"club_id" json:"club_id"`
	UserID   primitive.ObjectID `bson:"user_id" json:"user_id"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email" json:"email"`
	Role     string             `bson:"role,omitempty" json:"role,omitempty"` // "leader" | "member"; empty reads as member
	Stream   string             `bson:"stream,omitempty" json:"stream,omitempty"`
	Course   string             `bson:"course,omitempty" json:"course,omitempty"`
	JoinedAt time.Time          `bson:"joined_at" json:"joined_at"`
}

// EffectiveRole returns the stored role, defaulting to member.
func (m Member) EffectiveRole() string {
	if m.Role == "" {
		return RoleMember
	}
	return m.Role
}
