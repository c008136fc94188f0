// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each index set is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	for _, set := range indexSets() {
		if err := ensureIndexSet(ctx, db.Collection(set.collection), set.models); err != nil {
			problems = append(problems, set.collection+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type collectionIndexes struct {
	collection string
	models     []mongo.IndexModel
}

func idx(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name)}
}

func uniq(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name).SetUnique(true)}
}

func indexSets() []collectionIndexes {
	return []collectionIndexes{
		{"users", []mongo.IndexModel{
			uniq("uniq_users_emailci", bson.D{{Key: "email_ci", Value: 1}}),
			// Admin lists filter by role and sort by folded name.
			idx("idx_users_role_fullnameci_id", bson.D{{Key: "role", Value: 1}, {Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}}),
			idx("idx_users_teacher", bson.D{{Key: "teacher_id", Value: 1}}),
			idx("idx_users_children", bson.D{{Key: "child_ids", Value: 1}}),
		}},
		{"applications", []mongo.IndexModel{
			idx("idx_applications_emailci_status", bson.D{{Key: "email_ci", Value: 1}, {Key: "status", Value: 1}}),
			// At most one pending application per email.
			{
				Keys: bson.D{{Key: "email_ci", Value: 1}},
				Options: options.Index().
					SetName("uniq_applications_pending_emailci").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": "pending"}),
			},
			idx("idx_applications_status_created", bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}),
		}},
		{"subscriptions", []mongo.IndexModel{
			idx("idx_subscriptions_user_status", bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}),
			// The expiry sweep scans active subscriptions by end date.
			idx("idx_subscriptions_status_enddate", bson.D{{Key: "status", Value: 1}, {Key: "end_date", Value: 1}}),
		}},
		{"discounts", []mongo.IndexModel{
			uniq("uniq_discounts_code", bson.D{{Key: "code", Value: 1}}),
		}},
		{"assignments", []mongo.IndexModel{
			idx("idx_assignments_student_status", bson.D{{Key: "student_id", Value: 1}, {Key: "status", Value: 1}}),
			idx("idx_assignments_teacher", bson.D{{Key: "teacher_id", Value: 1}}),
		}},
		{"goals", []mongo.IndexModel{
			idx("idx_goals_student", bson.D{{Key: "student_id", Value: 1}}),
		}},
		{"gamification_profiles", []mongo.IndexModel{
			uniq("uniq_gamification_user", bson.D{{Key: "user_id", Value: 1}}),
			idx("idx_gamification_xp", bson.D{{Key: "xp", Value: -1}}),
		}},
		{"learning_modules", []mongo.IndexModel{
			idx("idx_modules_subject_published_difficulty", bson.D{{Key: "subject", Value: 1}, {Key: "is_published", Value: 1}, {Key: "difficulty", Value: 1}}),
		}},
		{"module_progress", []mongo.IndexModel{
			uniq("uniq_progress_user_module", bson.D{{Key: "user_id", Value: 1}, {Key: "module_id", Value: 1}}),
		}},
		{"video_sessions", []mongo.IndexModel{
			idx("idx_video_participant_scheduled", bson.D{{Key: "participants.user_id", Value: 1}, {Key: "scheduled_at", Value: 1}}),
			idx("idx_video_teacher_scheduled", bson.D{{Key: "teacher_id", Value: 1}, {Key: "scheduled_at", Value: -1}}),
		}},
		{"study_groups", []mongo.IndexModel{
			idx("idx_studygroups_members", bson.D{{Key: "member_ids", Value: 1}}),
			idx("idx_studygroups_subject_public", bson.D{{Key: "subject", Value: 1}, {Key: "is_public", Value: 1}}),
		}},
		{"group_posts", []mongo.IndexModel{
			idx("idx_posts_group_created", bson.D{{Key: "group_id", Value: 1}, {Key: "created_at", Value: -1}}),
		}},
		{"parent_notifications", []mongo.IndexModel{
			idx("idx_notifications_parent_read_created", bson.D{{Key: "parent_id", Value: 1}, {Key: "read", Value: 1}, {Key: "created_at", Value: -1}}),
			idx("idx_notifications_created", bson.D{{Key: "created_at", Value: 1}}),
		}},
		{"audit_events", []mongo.IndexModel{
			idx("idx_audit_created", bson.D{{Key: "created_at", Value: -1}}),
			idx("idx_audit_category_created", bson.D{{Key: "category", Value: 1}, {Key: "created_at", Value: -1}}),
		}},
		{"oauth_states", []mongo.IndexModel{
			uniq("uniq_oauth_state", bson.D{{Key: "state", Value: 1}}),
			// TTL cleanup; the worker sweep covers delays in the TTL monitor.
			{
				Keys:    bson.D{{Key: "expires_at", Value: 1}},
				Options: options.Index().SetName("ttl_oauth_expires").SetExpireAfterSeconds(0),
			},
		}},
	}
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolVal(b *bool) bool { return b != nil && *b }

func listIndexes(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var ix existingIndex
		if err := cur.Decode(&ix); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(ix.Key)] = ix
	}
	return existing
}

// ensureIndexSet creates each desired index, reusing one with the same keys
// and options, and dropping and recreating one whose name or uniqueness
// differs.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	existing := listIndexes(ctx, coll)

	for _, m := range models {
		name := *m.Options.Name
		unique := boolVal(m.Options.Unique)
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", unique),
		}

		ex, found := existing[sig]
		if found && boolVal(ex.Unique) == unique && ex.Name == name {
			zap.L().Debug("reusing existing index", fields...)
			continue
		}
		if found {
			zap.L().Info("replacing index with mismatched name or options",
				append(fields, zap.String("existing_name", ex.Name))...)
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if unique && wafflemongo.IsDup(err) {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present on %s)", coll.Name(), name, sig))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			zap.L().Warn("index ensure failed", append(fields, zap.Error(err))...)
			continue
		}
		zap.L().Info("index ensured", append(fields, zap.Duration("took", time.Since(start)))...)
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
