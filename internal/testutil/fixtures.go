package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Calling it again on the returned request adds to the same route context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, _ := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a password-less user with the given global role.
func (f *Fixtures) CreateUser(ctx context.Context, displayName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:            primitive.NewObjectID(),
		DisplayName:   displayName,
		DisplayNameCI: text.Fold(displayName),
		Email:         email,
		AuthMethod:    "password",
		Role:          role,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

func (f *Fixtures) CreateAdmin(ctx context.Context, displayName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, displayName, email, models.RoleAdmin)
}

func (f *Fixtures) CreateVisitor(ctx context.Context, displayName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, displayName, email, models.RoleVisitor)
}

// CreateClub inserts a club. leaderID may be nil.
func (f *Fixtures) CreateClub(ctx context.Context, name string, leaderID *primitive.ObjectID) models.Club {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Club{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Description: "A test club",
		LeaderID:    leaderID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("clubs").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test club: %v", err)
	}
	return c
}

// CreateLeader inserts a leader user, a club it leads and its leader
// member record.
func (f *Fixtures) CreateLeader(ctx context.Context, displayName, email, clubName string) (models.User, models.Club) {
	f.t.Helper()

	u := f.CreateUser(ctx, displayName, email, models.RoleLeader)
	c := f.CreateClub(ctx, clubName, &u.ID)
	f.AddMember(ctx, c.ID, u, models.RoleLeader)
	if _, err := f.db.Collection("users").UpdateByID(ctx, u.ID, bson.M{"$set": bson.M{"club_id": c.ID}}); err != nil {
		f.t.Fatalf("failed to set leader club: %v", err)
	}
	cid := c.ID
	u.ClubID = &cid
	return u, c
}

// AddMember inserts a member record copied from u.
func (f *Fixtures) AddMember(ctx context.Context, clubID primitive.ObjectID, u models.User, role string) models.Member {
	f.t.Helper()

	m := models.Member{
		ID:       primitive.NewObjectID(),
		ClubID:   clubID,
		UserID:   u.ID,
		Name:     u.DisplayName,
		Email:    u.Email,
		Role:     role,
		Stream:   u.Stream,
		Course:   u.Course,
		JoinedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("club_members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test member: %v", err)
	}
	return m
}

// CreateMember inserts a member user and its member record in clubID.
func (f *Fixtures) CreateMember(ctx context.Context, displayName, email string, clubID primitive.ObjectID) models.User {
	f.t.Helper()

	u := f.CreateUser(ctx, displayName, email, models.RoleMember)
	f.AddMember(ctx, clubID, u, models.RoleMember)
	return u
}

// CreateMessage inserts a message directly, bypassing the counter.
func (f *Fixtures) CreateMessage(ctx context.Context, clubID primitive.ObjectID, sender models.User, body string, at time.Time, seq int64) models.Message {
	f.t.Helper()

	m := models.Message{
		ID:          primitive.NewObjectID(),
		ClubID:      clubID,
		Text:        body,
		SenderID:    sender.ID,
		DisplayName: sender.DisplayName,
		Role:        sender.Role,
		Seq:         seq,
		CreatedAt:   at.UTC().Truncate(time.Millisecond),
	}
	if _, err := f.db.Collection("messages").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test message: %v", err)
	}
	return m
}
