// internal/app/store/joinrequests/joinrequeststore.go
package joinrequeststore

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

// ErrAlreadyRequested is returned when the user already has a pending
// request for the club.
var ErrAlreadyRequested = errors.New("a join request for this club is already pending")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("join_requests")}
}

// Create records a pending request from u to join clubID.
func (s *Store) Create(ctx context.Context, clubID primitive.ObjectID, u models.User) (models.JoinRequest, error) {
	jr := models.JoinRequest{
		ID:          primitive.NewObjectID(),
		ClubID:      clubID,
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Status:      models.JoinRequestPending,
		RequestedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, jr); err != nil {
		if wafflemongo.IsDup(err) {
			return models.JoinRequest{}, ErrAlreadyRequested
		}
		return models.JoinRequest{}, err
	}
	return jr, nil
}

// Get returns the request for (clubID, userID) in any status.
// Returns mongo.ErrNoDocuments when there is none.
func (s *Store) Get(ctx context.Context, clubID, userID primitive.ObjectID) (models.JoinRequest, error) {
	var jr models.JoinRequest
	err := s.c.FindOne(ctx, bson.M{"club_id": clubID, "user_id": userID}).Decode(&jr)
	if err != nil {
		return models.JoinRequest{}, err
	}
	return jr, nil
}

// ListPending returns pending requests for the club, oldest first.
func (s *Store) ListPending(ctx context.Context, clubID primitive.ObjectID) ([]models.JoinRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "requested_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"club_id": clubID, "status": models.JoinRequestPending}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.JoinRequest
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the request for (clubID, userID). Returns the number of
// documents deleted.
func (s *Store) Delete(ctx context.Context, clubID, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"club_id": clubID, "user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
