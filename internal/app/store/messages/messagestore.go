// internal/app/store/messages/messagestore.go
package messagestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MaxTextLen caps a single message, in bytes after trimming.
const MaxTextLen = 4000

var (
	// ErrEmptyMessage is returned by Append, before touching the database,
	// when the text is empty or whitespace only.
	ErrEmptyMessage = errors.New("message text is empty")
	// ErrTooLong is returned by Append when the text exceeds MaxTextLen.
	ErrTooLong = errors.New("message text is too long")
	// ErrWatchUnsupported is returned by Watch when the server cannot open
	// change streams (a standalone mongod rather than a replica set).
	ErrWatchUnsupported = errors.New("change streams are not supported by this deployment")
)

// Store is the club-scoped, append-only message log.
type Store struct {
	c        *mongo.Collection
	counters *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:        db.Collection("messages"),
		counters: db.Collection("counters"),
	}
}

// NewMessage is the caller-supplied part of a message.
type NewMessage struct {
	Text        string
	SenderID    primitive.ObjectID
	DisplayName string
	Role        string
	ClientID    string
}

// Append stores a message with a server-assigned created_at and the next
// per-club seq, and returns it once the write is acknowledged.
func (s *Store) Append(ctx context.Context, clubID primitive.ObjectID, nm NewMessage) (models.Message, error) {
	text := strings.TrimSpace(nm.Text)
	if text == "" {
		return models.Message{}, ErrEmptyMessage
	}
	if len(text) > MaxTextLen {
		return models.Message{}, ErrTooLong
	}

	seq, err := s.nextSeq(ctx, clubID)
	if err != nil {
		return models.Message{}, err
	}

	m := models.Message{
		ID:          primitive.NewObjectID(),
		ClubID:      clubID,
		Text:        text,
		SenderID:    nm.SenderID,
		DisplayName: strings.TrimSpace(nm.DisplayName),
		Role:        nm.Role,
		ClientID:    nm.ClientID,
		Seq:         seq,
		// BSON dates hold milliseconds; truncate so the returned value
		// matches what a later read decodes.
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Message{}, err
	}
	return m, nil
}

func (s *Store) nextSeq(ctx context.Context, clubID primitive.ObjectID) (int64, error) {
	var row struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": "messages:" + clubID.Hex()},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&row)
	if err != nil {
		return 0, err
	}
	return row.Seq, nil
}

// Remove deletes a message. Removing an absent id is not an error.
func (s *Store) Remove(ctx context.Context, clubID, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "club_id": clubID})
	return err
}

// Get returns the message, or nil when it does not exist in clubID.
func (s *Store) Get(ctx context.Context, clubID, id primitive.ObjectID) (*models.Message, error) {
	var m models.Message
	err := s.c.FindOne(ctx, bson.M{"_id": id, "club_id": clubID}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns the club's messages ascending by (created_at, seq, _id).
// With limit > 0 only the newest limit messages are returned, still in
// ascending order.
func (s *Store) List(ctx context.Context, clubID primitive.ObjectID, limit int) ([]models.Message, error) {
	dir := 1
	if limit > 0 {
		dir = -1
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: dir},
		{Key: "seq", Value: dir},
		{Key: "_id", Value: dir},
	})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := s.c.Find(ctx, bson.M{"club_id": clubID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.Message, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	if dir < 0 {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

// Changes reports that a club's message list may have changed. Each
// successful Next means the caller should re-read the list.
type Changes interface {
	Next(ctx context.Context) bool
	Err() error
	Close(ctx context.Context) error
}

// Watch opens a change stream over the club's inserts and all deletes.
// Delete events carry only the document key, so deletes in other clubs
// also wake the watcher; callers re-read, which converges either way.
func (s *Store) Watch(ctx context.Context, clubID primitive.ObjectID) (Changes, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$or": bson.A{
			bson.M{"operationType": "insert", "fullDocument.club_id": clubID},
			bson.M{"operationType": "delete"},
		}}}},
	}
	cs, err := s.c.Watch(ctx, pipeline)
	if err != nil {
		if isWatchUnsupported(err) {
			return nil, ErrWatchUnsupported
		}
		return nil, err
	}
	return cs, nil
}

// isWatchUnsupported matches the server errors returned when $changeStream
// runs against a standalone server.
func isWatchUnsupported(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		// 40573: "only supported on replica sets"; 20: IllegalOperation.
		return ce.Code == 40573 || ce.Code == 20
	}
	var se mongo.ServerError
	if errors.As(err, &se) {
		return se.HasErrorCode(40573)
	}
	return false
}
