package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/validators"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func setup(t *testing.T) *mongo.Database {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return db
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Second call should also succeed (idempotent)
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	collMap := make(map[string]bool)
	for _, name := range names {
		collMap[name] = true
	}

	for _, expected := range []string{
		"users", "clubs", "club_members", "join_requests",
		"event_proposals", "events", "messages",
		"counters", "oauth_states", "audit_events",
	} {
		if !collMap[expected] {
			t.Errorf("expected collection %q to exist", expected)
		}
	}
}

func TestValidators(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	club := primitive.NewObjectID()
	user := primitive.NewObjectID()

	tests := []struct {
		name    string
		coll    string
		doc     bson.M
		wantErr bool
	}{
		{"user ok", "users", bson.M{"email": "a@example.com", "role": "visitor", "auth_method": "password"}, false},
		{"user missing email", "users", bson.M{"role": "visitor"}, true},
		{"user bad role", "users", bson.M{"email": "b@example.com", "role": "superadmin"}, true},
		{"user bad auth method", "users", bson.M{"email": "c@example.com", "role": "member", "auth_method": "clever"}, true},

		{"club ok", "clubs", bson.M{"name": "Chess", "name_ci": "chess", "description": ""}, false},
		{"club blank name", "clubs", bson.M{"name": "  ", "name_ci": "  "}, true},

		{"member ok", "club_members", bson.M{"club_id": club, "user_id": user, "role": "member", "joined_at": now}, false},
		{"member without role", "club_members", bson.M{"club_id": club, "user_id": primitive.NewObjectID()}, false},
		{"member bad role", "club_members", bson.M{"club_id": club, "user_id": primitive.NewObjectID(), "role": "admin"}, true},

		{"join request ok", "join_requests", bson.M{"club_id": club, "user_id": user, "status": "pending", "requested_at": now}, false},
		{"join request bad status", "join_requests", bson.M{"club_id": club, "user_id": user, "status": "accepted"}, true},

		{"proposal ok", "event_proposals", bson.M{"club_id": club, "title": "Blitz", "date": now, "submitted_by": user, "status": "pending"}, false},
		{"proposal missing date", "event_proposals", bson.M{"club_id": club, "title": "Blitz", "submitted_by": user, "status": "pending"}, true},

		{"event ok", "events", bson.M{"club_id": club, "title": "Blitz", "date": now}, false},
		{"event string date", "events", bson.M{"club_id": club, "title": "Blitz", "date": "tomorrow"}, true},

		{"message ok", "messages", bson.M{"club_id": club, "sender_id": user, "text": "hi", "seq": int64(1), "created_at": now}, false},
		{"message empty text", "messages", bson.M{"club_id": club, "sender_id": user, "text": "", "seq": int64(2), "created_at": now}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.Collection(tt.coll).InsertOne(ctx, tt.doc)
			if (err != nil) != tt.wantErr {
				t.Errorf("InsertOne(%s) err = %v, wantErr %v", tt.coll, err, tt.wantErr)
			}
		})
	}
}
