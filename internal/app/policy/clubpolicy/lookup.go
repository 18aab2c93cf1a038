// internal/app/policy/clubpolicy/lookup.go
package clubpolicy

import (
	"context"

	clubstore "github.com/dalemusser/clubhub/internal/app/store/clubs"
	memberstore "github.com/dalemusser/clubhub/internal/app/store/members"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoLookup reads the clubs, club_members and users collections.
type MongoLookup struct {
	clubs   *clubstore.Store
	members *memberstore.Store
	users   *userstore.Store
}

func NewMongoLookup(db *mongo.Database) *MongoLookup {
	return &MongoLookup{
		clubs:   clubstore.New(db),
		members: memberstore.New(db),
		users:   userstore.New(db),
	}
}

func (l *MongoLookup) ClubLeaderID(ctx context.Context, clubID primitive.ObjectID) (primitive.ObjectID, bool, error) {
	return l.clubs.LeaderOf(ctx, clubID)
}

// MemberRole returns the stored role as is; an empty role means the
// record predates per-member roles.
func (l *MongoLookup) MemberRole(ctx context.Context, clubID, userID primitive.ObjectID) (string, bool, error) {
	m, err := l.members.Get(ctx, clubID, userID)
	if err != nil {
		return "", false, err
	}
	if m == nil {
		return "", false, nil
	}
	return m.Role, true, nil
}

func (l *MongoLookup) UserRole(ctx context.Context, userID primitive.ObjectID) (string, bool, error) {
	return l.users.RoleOf(ctx, userID)
}
