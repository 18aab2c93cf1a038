package indexes_test

import (
	"testing"

	"github.com/dalemusser/clubhub/internal/app/system/indexes"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func indexNames(t *testing.T, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes on %s failed: %v", coll, err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	// SetupTestDB already ran EnsureAll once.
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)

	want := map[string][]string{
		"users":           {"uniq_users_email", "uniq_users_google_id", "idx_users_role_nameci__id"},
		"clubs":           {"uniq_clubs_nameci", "idx_clubs_leader"},
		"club_members":    {"uniq_members_club_user", "idx_members_club_name__id", "idx_members_user"},
		"join_requests":   {"uniq_joinreq_club_user_pending", "idx_joinreq_club_status_requested"},
		"event_proposals": {"idx_proposals_club_status_created", "idx_proposals_status_created"},
		"events":          {"idx_events_club_date__id", "uniq_events_proposal"},
		"messages":        {"idx_messages_club_created_seq__id"},
		"oauth_states":    {"uniq_oauth_state", "ttl_oauth_expires"},
		"audit_events":    {"idx_audit_ts__id", "idx_audit_club_ts", "idx_audit_user_ts", "idx_audit_cat_type_ts"},
	}
	for coll, names := range want {
		got := indexNames(t, db, coll)
		for _, name := range names {
			if !got[name] {
				t.Errorf("expected index %q on %s", name, coll)
			}
		}
	}
}

func TestEnsureAll_RenamesIndexWithSameKeys(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coll := db.Collection("clubs")
	if _, err := coll.Indexes().DropOne(ctx, "idx_clubs_leader"); err != nil {
		t.Fatalf("drop failed: %v", err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "leader_id", Value: 1}},
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	got := indexNames(t, db, "clubs")
	if !got["idx_clubs_leader"] {
		t.Error("expected idx_clubs_leader after reconcile")
	}
	if got["leader_id_1"] {
		t.Error("expected default-named index to be replaced")
	}
}

func TestEnsureAll_PendingJoinRequestIsUnique(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	clubID, userID := primitive.NewObjectID(), primitive.NewObjectID()
	coll := db.Collection("join_requests")

	if _, err := coll.InsertOne(ctx, bson.M{"club_id": clubID, "user_id": userID, "status": "rejected"}); err != nil {
		t.Fatalf("insert rejected failed: %v", err)
	}
	if _, err := coll.InsertOne(ctx, bson.M{"club_id": clubID, "user_id": userID, "status": "pending"}); err != nil {
		t.Fatalf("a rejected row must not block a pending one: %v", err)
	}
	_, err := coll.InsertOne(ctx, bson.M{"club_id": clubID, "user_id": userID, "status": "pending"})
	if !mongo.IsDuplicateKeyError(err) {
		t.Errorf("expected duplicate key error for second pending request, got %v", err)
	}
}
