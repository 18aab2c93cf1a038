// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a person who has signed in at least once.
//
// NOTE:
//   - ClubID is a denormalized pointer to the user's primary club. The
//     club_members collection is authoritative for membership; ClubID
//     may lag behind it.
//   - Role is the single global role (admin | leader | member | visitor).
type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DisplayName   string             `bson:"display_name" json:"display_name"`
	DisplayNameCI string             `bson:"display_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email         string             `bson:"email" json:"email"`
	AuthMethod    string             `bson:"auth_method,omitempty" json:"auth_method,omitempty"` // password | google
	PasswordHash  string             `bson:"password_hash,omitempty" json:"-"`
	GoogleID      string             `bson:"google_id,omitempty" json:"-"`

	Role   string              `bson:"role" json:"role"`
	ClubID *primitive.ObjectID `bson:"club_id,omitempty" json:"club_id,omitempty"`

	// Profile completion fields (all optional).
	Phone  string `bson:"phone,omitempty" json:"phone,omitempty"`
	DOB    string `bson:"dob,omitempty" json:"dob,omitempty"`
	Gender string `bson:"gender,omitempty" json:"gender,omitempty"`
	Stream string `bson:"stream,omitempty" json:"stream,omitempty"`
	Course string `bson:"course,omitempty" json:"course,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ProfileComplete reports whether the fields collected after first sign-in are present.
func (u User) ProfileComplete() bool {
	return u.Phone != "" && u.Stream != "" && u.Course != ""
}
