// internal/domain/models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Proposal statuses.
const (
	ProposalPending  = "pending"
	ProposalApproved = "approved"
	ProposalRejected = "rejected"
)

// Event is an approved, club-scoped activity.
type Event struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ClubID      primitive.ObjectID  `bson:"club_id" json:"club_id"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description" json:"description"`
	Date        time.Time           `bson:"date" json:"date"`
	Location    string              `bson:"location,omitempty" json:"location,omitempty"`
	ProposalID  *primitive.ObjectID `bson:"proposal_id,omitempty" json:"proposal_id,omitempty"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
}

// EventProposal is a leader-submitted event awaiting an admin decision.
// Approval copies it into events and deletes the proposal; rejection
// keeps it with status "rejected".
type EventProposal struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ClubID      primitive.ObjectID  `bson:"club_id" json:"club_id"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description" json:"description"`
	Date        time.Time           `bson:"date" json:"date"`
	Location    string              `bson:"location,omitempty" json:"location,omitempty"`
	SubmittedBy primitive.ObjectID  `bson:"submitted_by" json:"submitted_by"`
	Status      string              `bson:"status" json:"status"`
	DecidedBy   *primitive.ObjectID `bson:"decided_by,omitempty" json:"decided_by,omitempty"`
	DecidedAt   *time.Time          `bson:"decided_at,omitempty" json:"decided_at,omitempty"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
}
