// internal/domain/models/club.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Club is an organizational unit with one leader.
//
// Older documents name the leader "coordinator_id"; both are decoded and
// EffectiveLeaderID picks whichever is set.
type Club struct {
	ID            primitive.ObjectID  `bson:"_id" json:"id"`
	Name          string              `bson:"name" json:"name"`
	NameCI        string              `bson:"name_ci" json:"-"`
	Description   string              `bson:"description" json:"description"`
	LeaderID      *primitive.ObjectID `bson:"leader_id,omitempty" json:"leader_id,omitempty"`
	CoordinatorID *primitive.ObjectID `bson:"coordinator_id,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// EffectiveLeaderID returns the club's leader, preferring leader_id over
// the legacy coordinator_id. Returns NilObjectID when neither is set.
func (c Club) EffectiveLeaderID() primitive.ObjectID {
	if c.LeaderID != nil && !c.LeaderID.IsZero() {
		return *c.LeaderID
	}
	if c.CoordinatorID != nil {
		return *c.CoordinatorID
	}
	return primitive.NilObjectID
}
