// internal/domain/models/joinrequest.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Join request statuses. Accepted requests are deleted, not marked.
const (
	JoinRequestPending  = "pending"
	JoinRequestRejected = "rejected"
)

// JoinRequest is a user's pending application to join a club.
type JoinRequest struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClubID      primitive.ObjectID `bson:"club_id" json:"club_id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	Email       string             `bson:"email" json:"email"`
	DisplayName string             `bson:"display_name" json:"display_name"`
	Status      string             `bson:"status" json:"status"`
	RequestedAt time.Time          `bson:"requested_at" json:"requested_at"`
}
