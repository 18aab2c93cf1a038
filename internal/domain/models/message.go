// internal/domain/models/message.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a single chat line in a club. Messages are immutable once
// stored; the only mutation is deletion.
//
// Ordering is (created_at, seq). created_at is assigned by the server at
// insert; seq is a per-club counter that breaks ties in arrival order.
// ClientID is an optional nonce the sender supplies so an optimistic
// local copy can be matched to the stored message.
type Message struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClubID      primitive.ObjectID `bson:"club_id" json:"club_id"`
	Text        string             `bson:"text" json:"text"`
	SenderID    primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	DisplayName string             `bson:"display_name" json:"display_name"`
	Role        string             `bson:"role" json:"role"`
	ClientID    string             `bson:"client_id,omitempty" json:"client_id,omitempty"`
	Seq         int64              `bson:"seq" json:"seq"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// Before reports whether m sorts before o in the club's total order.
func (m Message) Before(o Message) bool {
	if !m.CreatedAt.Equal(o.CreatedAt) {
		return m.CreatedAt.Before(o.CreatedAt)
	}
	return m.Seq < o.Seq
}
