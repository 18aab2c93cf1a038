// internal/app/store/members/memberstore.go
package memberstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/clubhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("club_members")}
}

var errBadRole = errors.New(`role must be "leader" or "member"`)

var ErrAlreadyMember = errors.New("user is already a member of this club")

// Add creates the member record for (m.ClubID, m.UserID). Name, email,
// stream and course are taken from m as given.
func (s *Store) Add(ctx context.Context, m models.Member) (models.Member, error) {
	if m.Role == "" {
		m.Role = models.RoleMember
	}
	if m.Role != models.RoleLeader && m.Role != models.RoleMember {
		return models.Member{}, errBadRole
	}
	m.ID = primitive.NewObjectID()
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Member{}, ErrAlreadyMember
		}
		return models.Member{}, err
	}
	return m, nil
}

// Get returns the member record, or nil when the user is not a member.
func (s *Store) Get(ctx context.Context, clubID, userID primitive.ObjectID) (*models.Member, error) {
	var m models.Member
	err := s.c.FindOne(ctx, bson.M{"club_id": clubID, "user_id": userID}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns the club's members sorted by name.
func (s *Store) List(ctx context.Context, clubID primitive.ObjectID) ([]models.Member, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"club_id": clubID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Member
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Remove deletes the member record for (clubID, userID). Removing a
// non-member is not an error.
func (s *Store) Remove(ctx context.Context, clubID, userID primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"club_id": clubID, "user_id": userID})
	return err
}

func (s *Store) CountByClub(ctx context.Context, clubID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"club_id": clubID})
}
