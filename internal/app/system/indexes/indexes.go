// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Errors are aggregated so every problem shows up in one startup failure.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	steps := []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"clubs", ensureClubs},
		{"club_members", ensureClubMembers},
		{"join_requests", ensureJoinRequests},
		{"event_proposals", ensureEventProposals},
		{"events", ensureEvents},
		{"messages", ensureMessages},
		{"oauth_states", ensureOAuthStates},
		{"audit_events", ensureAuditEvents},
	}

	var problems []string
	for _, s := range steps {
		if err := s.fn(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Reconcile desired indexes for one collection                               */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name               string `bson:"name"`
	Key                bson.D `bson:"key"`
	Unique             *bool  `bson:"unique,omitempty"`
	Sparse             *bool  `bson:"sparse,omitempty"`
	ExpireAfterSeconds *int32 `bson:"expireAfterSeconds,omitempty"`
	Partial            bson.M `bson:"partialFilterExpression,omitempty"`
}

type wantIndex struct {
	name    string
	sig     string
	unique  bool
	sparse  bool
	ttl     *int32
	partial bool
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolOf(p *bool) bool { return p != nil && *p }

func describe(m mongo.IndexModel) wantIndex {
	w := wantIndex{sig: keySig(m.Keys.(bson.D))}
	if o := m.Options; o != nil {
		if o.Name != nil {
			w.name = *o.Name
		}
		w.unique = boolOf(o.Unique)
		w.sparse = boolOf(o.Sparse)
		w.ttl = o.ExpireAfterSeconds
		w.partial = o.PartialFilterExpression != nil
	}
	return w
}

// sameOptions compares the options that change an index's behavior.
// Partial filters are compared by presence only.
func (w wantIndex) sameOptions(ex existingIndex) bool {
	if w.unique != boolOf(ex.Unique) || w.sparse != boolOf(ex.Sparse) {
		return false
	}
	if w.partial != (ex.Partial != nil) {
		return false
	}
	switch {
	case w.ttl == nil && ex.ExpireAfterSeconds == nil:
		return true
	case w.ttl == nil || ex.ExpireAfterSeconds == nil:
		return false
	default:
		return *w.ttl == *ex.ExpireAfterSeconds
	}
}

// Mongo and DocumentDB return IndexOptionsConflict when an index with the
// same keys exists under another name or with other options.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listBySig(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	out := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		// collection not created yet
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	fail := func(w wantIndex, what string, err error) {
		zap.L().Warn("index ensure failed",
			zap.String("collection", coll.Name()),
			zap.String("name", w.name),
			zap.String("keys", w.sig),
			zap.String("step", what),
			zap.Error(err))
		if mongo.IsDuplicateKeyError(err) && w.unique {
			errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index, duplicates present", coll.Name(), w.name))
			return
		}
		errs = append(errs, fmt.Sprintf("%s(%s): %s: %v", coll.Name(), w.name, what, err))
	}

	for _, m := range models {
		w := describe(m)
		start := time.Now()
		existing := listBySig(ctx, coll)

		ex, ok := existing[w.sig]
		if ok && w.sameOptions(ex) && (w.name == "" || ex.Name == w.name) {
			zap.L().Debug("reusing existing index",
				zap.String("collection", coll.Name()),
				zap.String("name", ex.Name),
				zap.String("keys", w.sig))
			continue
		}
		if ok {
			// same keys, different name or options: drop and recreate
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				fail(w, "drop "+ex.Name, err)
				continue
			}
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if isOptionsConflictErr(err) {
			if ex, ok := listBySig(ctx, coll)[w.sig]; ok {
				if _, dropErr := coll.Indexes().DropOne(ctx, ex.Name); dropErr == nil {
					created, err = coll.Indexes().CreateOne(ctx, m)
				}
			}
		}
		if err != nil {
			fail(w, "create", err)
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", created),
			zap.String("keys", w.sig),
			zap.Bool("unique", w.unique),
			zap.Bool("recreated", ok),
			zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                             */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_users_email").SetUnique(true),
		},
		{
			// password users have no google_id
			Keys:    bson.D{{Key: "google_id", Value: 1}},
			Options: options.Index().SetName("uniq_users_google_id").SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "display_name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_users_role_nameci__id"),
		},
	})
}

func ensureClubs(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("clubs"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("uniq_clubs_nameci").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "leader_id", Value: 1}},
			Options: options.Index().SetName("idx_clubs_leader"),
		},
	})
}

func ensureClubMembers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("club_members"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "club_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetName("uniq_members_club_user").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "club_id", Value: 1}, {Key: "name", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_members_club_name__id"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_members_user"),
		},
	})
}

func ensureJoinRequests(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("join_requests"), []mongo.IndexModel{
		{
			// one pending request per (club, user); legacy rejected rows don't block a new one
			Keys: bson.D{{Key: "club_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_joinreq_club_user_pending").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": "pending"}),
		},
		{
			Keys:    bson.D{{Key: "club_id", Value: 1}, {Key: "status", Value: 1}, {Key: "requested_at", Value: 1}},
			Options: options.Index().SetName("idx_joinreq_club_status_requested"),
		},
	})
}

func ensureEventProposals(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("event_proposals"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "club_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_proposals_club_status_created"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_proposals_status_created"),
		},
	})
}

func ensureEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "club_id", Value: 1}, {Key: "date", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_events_club_date__id"),
		},
		{
			Keys:    bson.D{{Key: "proposal_id", Value: 1}},
			Options: options.Index().SetName("uniq_events_proposal").SetUnique(true).SetSparse(true),
		},
	})
}

func ensureMessages(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("messages"), []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "club_id", Value: 1},
				{Key: "created_at", Value: 1},
				{Key: "seq", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_messages_club_created_seq__id"),
		},
	})
}

func ensureOAuthStates(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("oauth_states"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "state", Value: 1}},
			Options: options.Index().SetName("uniq_oauth_state").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("ttl_oauth_expires").SetExpireAfterSeconds(0),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("audit_events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_audit_ts__id"),
		},
		{
			Keys:    bson.D{{Key: "club_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_club_ts"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_user_ts"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_cat_type_ts"),
		},
	})
}
