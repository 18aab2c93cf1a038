// internal/app/store/events/eventstore.go
package eventstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/clubhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotPending is returned when deciding a proposal that was already decided.
	ErrNotPending    = errors.New("proposal is not pending")
	errTitleRequired = errors.New("event title is required")
)

// Store holds proposals and approved events.
type Store struct {
	proposals *mongo.Collection
	events    *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		proposals: db.Collection("event_proposals"),
		events:    db.Collection("events"),
	}
}

// NewProposal is the input for Propose.
type NewProposal struct {
	Title       string
	Description string
	Date        time.Time
	Location    string
}

// Propose stores a pending proposal for clubID submitted by a leader.
func (s *Store) Propose(ctx context.Context, clubID, submittedBy primitive.ObjectID, np NewProposal) (models.EventProposal, error) {
	title := strings.TrimSpace(np.Title)
	if title == "" {
		return models.EventProposal{}, errTitleRequired
	}
	p := models.EventProposal{
		ID:          primitive.NewObjectID(),
		ClubID:      clubID,
		Title:       title,
		Description: strings.TrimSpace(np.Description),
		Date:        np.Date.UTC(),
		Location:    strings.TrimSpace(np.Location),
		SubmittedBy: submittedBy,
		Status:      models.ProposalPending,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.proposals.InsertOne(ctx, p); err != nil {
		return models.EventProposal{}, err
	}
	return p, nil
}

// GetProposal returns mongo.ErrNoDocuments when the proposal does not
// exist in clubID.
func (s *Store) GetProposal(ctx context.Context, clubID, id primitive.ObjectID) (models.EventProposal, error) {
	var p models.EventProposal
	if err := s.proposals.FindOne(ctx, bson.M{"_id": id, "club_id": clubID}).Decode(&p); err != nil {
		return models.EventProposal{}, err
	}
	return p, nil
}

// ListProposals returns proposals with the given status. A nil clubID
// lists across all clubs.
func (s *Store) ListProposals(ctx context.Context, clubID *primitive.ObjectID, status string) ([]models.EventProposal, error) {
	filter := bson.M{}
	if clubID != nil {
		filter["club_id"] = *clubID
	}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.proposals.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.EventProposal
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Approve copies a pending proposal into events and deletes the proposal.
//
// The proposal is first claimed by moving it from pending to approved, so
// a concurrent Reject can no longer match it. The event keeps proposal_id
// and a unique index on it: a second approver, a retry after a partial
// failure, or a call after the proposal is gone all return the same event.
func (s *Store) Approve(ctx context.Context, clubID, id primitive.ObjectID) (models.Event, error) {
	var p models.EventProposal
	err := s.proposals.FindOneAndUpdate(ctx,
		bson.M{
			"_id":     id,
			"club_id": clubID,
			"status":  bson.M{"$in": bson.A{models.ProposalPending, models.ProposalApproved}},
		},
		bson.M{"$set": bson.M{"status": models.ProposalApproved}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		ev, found, ferr := s.eventForProposal(ctx, clubID, id)
		if ferr != nil {
			return models.Event{}, ferr
		}
		if found {
			return ev, nil
		}
		if _, gerr := s.GetProposal(ctx, clubID, id); gerr != nil {
			return models.Event{}, gerr
		}
		return models.Event{}, ErrNotPending
	}
	if err != nil {
		return models.Event{}, err
	}

	ev, found, err := s.eventForProposal(ctx, clubID, p.ID)
	if err != nil {
		return models.Event{}, err
	}
	if !found {
		pid := p.ID
		ev = models.Event{
			ID:          primitive.NewObjectID(),
			ClubID:      p.ClubID,
			Title:       p.Title,
			Description: p.Description,
			Date:        p.Date,
			Location:    p.Location,
			ProposalID:  &pid,
			CreatedAt:   time.Now().UTC(),
		}
		if _, err := s.events.InsertOne(ctx, ev); err != nil {
			if !wafflemongo.IsDup(err) {
				return models.Event{}, err
			}
			// another approver copied it first
			var ferr error
			ev, found, ferr = s.eventForProposal(ctx, clubID, p.ID)
			if ferr != nil {
				return models.Event{}, ferr
			}
			if !found {
				return models.Event{}, err
			}
		}
	}

	if _, err := s.proposals.DeleteOne(ctx, bson.M{"_id": p.ID}); err != nil {
		return models.Event{}, err
	}
	return ev, nil
}

func (s *Store) eventForProposal(ctx context.Context, clubID, proposalID primitive.ObjectID) (models.Event, bool, error) {
	var ev models.Event
	err := s.events.FindOne(ctx, bson.M{"proposal_id": proposalID, "club_id": clubID}).Decode(&ev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Event{}, false, nil
	}
	if err != nil {
		return models.Event{}, false, err
	}
	return ev, true, nil
}

// Reject marks a pending proposal rejected and records who decided.
func (s *Store) Reject(ctx context.Context, clubID, id, decidedBy primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.proposals.UpdateOne(ctx,
		bson.M{"_id": id, "club_id": clubID, "status": models.ProposalPending},
		bson.M{"$set": bson.M{
			"status":     models.ProposalRejected,
			"decided_by": decidedBy,
			"decided_at": now,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetProposal(ctx, clubID, id); err != nil {
			return err
		}
		return ErrNotPending
	}
	return nil
}

// ListEvents returns the club's events by date.
func (s *Store) ListEvents(ctx context.Context, clubID primitive.ObjectID) ([]models.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.events.Find(ctx, bson.M{"club_id": clubID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Event
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteEvent removes an event. Deleting an absent event is not an error.
func (s *Store) DeleteEvent(ctx context.Context, clubID, id primitive.ObjectID) error {
	_, err := s.events.DeleteOne(ctx, bson.M{"_id": id, "club_id": clubID})
	return err
}
