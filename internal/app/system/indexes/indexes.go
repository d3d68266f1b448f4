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
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureDioceses(ctx, db); err != nil {
		problems = append(problems, "dioceses: "+err.Error())
	}
	if err := ensureParishes(ctx, db); err != nil {
		problems = append(problems, "parishes: "+err.Error())
	}
	if err := ensureChurches(ctx, db); err != nil {
		problems = append(problems, "churches: "+err.Error())
	}
	if err := ensureDonationTypes(ctx, db); err != nil {
		problems = append(problems, "donation_types: "+err.Error())
	}
	if err := ensurePrayerTimes(ctx, db); err != nil {
		problems = append(problems, "prayer_times: "+err.Error())
	}
	if err := ensureNews(ctx, db); err != nil {
		problems = append(problems, "parish_news: "+err.Error())
	}
	if err := ensureDonations(ctx, db); err != nil {
		problems = append(problems, "donations: "+err.Error())
	}
	if err := ensureNotifications(ctx, db); err != nil {
		problems = append(problems, "parish_notifications: "+err.Error())
	}
	if err := ensureAuditEvents(ctx, db); err != nil {
		problems = append(problems, "audit_events: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
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

func sameBoolPtr(a, b *bool) bool {
	av := a != nil && *a
	bv := b != nil && *b
	return av == bv
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			if m.Options.Unique != nil {
				desiredUnique = m.Options.Unique
			}
		}
		desiredSig := keySig(m.Keys.(bson.D))

		start := time.Now()

		// Load existing indexes so ensure stays idempotent across restarts.
		existing := map[string]existingIndex{} // sig -> index
		cur, err := coll.Indexes().List(ctx)
		if err == nil {
			for cur.Next(ctx) {
				var idx existingIndex
				if err := cur.Decode(&idx); err != nil {
					zap.L().Warn("failed to decode existing index",
						zap.String("collection", coll.Name()),
						zap.Error(err))
					continue
				}
				existing[keySig(idx.Key)] = idx
			}
			cur.Close(ctx)
		}

		if ex, ok := existing[desiredSig]; ok {
			if sameBoolPtr(desiredUnique, ex.Unique) {
				// Same keys, same options: reuse, renaming if needed.
				if desiredName != "" && ex.Name != desiredName {
					if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
						errs = append(errs, fmt.Sprintf("%s(%s): rename drop failed: %v", coll.Name(), desiredName, err))
						continue
					}
					if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
						errs = append(errs, fmt.Sprintf("%s(%s): rename create failed: %v", coll.Name(), desiredName, err))
						continue
					}
				}
				continue
			}

			// Options mismatch (e.g., upgrading to unique). Drop & recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
			if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
				continue
			}
			zap.L().Info("index dropped and recreated",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.String("took", time.Since(start).String()))
			continue
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.Error(err))
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique),
			zap.String("took", time.Since(start).String()))
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
	c := db.Collection("users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Email is the login identifier; globally unique.
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		// Admin lists scoped to a parish, segmented by role.
		{
			Keys: bson.D{
				{Key: "parish_id", Value: 1},
				{Key: "role", Value: 1},
				{Key: "full_name_ci", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_users_parish_role_nameci_id"),
		},
		// Diocese-wide user listings for diocese/archdiocese admins.
		{
			Keys: bson.D{
				{Key: "diocese_id", Value: 1},
				{Key: "role", Value: 1},
				{Key: "full_name_ci", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_users_diocese_role_nameci_id"),
		},
		// Church admin lookup when resolving a church's administrators.
		{
			Keys:    bson.D{{Key: "church_id", Value: 1}, {Key: "role", Value: 1}},
			Options: options.Index().SetName("idx_users_church_role"),
		},
	})
}

func ensureDioceses(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("dioceses")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Diocese codes ("DAKAR", "THIES", ...) are the stable identifiers
		// everything else references.
		{
			Keys:    bson.D{{Key: "diocese_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_dioceses_code"),
		},
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_dioceses_nameci__id"),
		},
	})
}

func ensureParishes(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("parishes")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// No duplicate parish names inside one diocese (folded via name_ci).
		{
			Keys:    bson.D{{Key: "diocese_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_parishes_diocese_nameci"),
		},
		// Diocese-scoped listing with stable sort.
		{
			Keys: bson.D{
				{Key: "diocese_id", Value: 1},
				{Key: "is_active", Value: 1},
				{Key: "name_ci", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_parishes_diocese_active_nameci__id"),
		},
	})
}

func ensureChurches(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("churches")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// No duplicate church names inside one parish.
		{
			Keys:    bson.D{{Key: "parish_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_churches_parish_nameci"),
		},
		// Parish-scoped listing.
		{
			Keys: bson.D{
				{Key: "parish_id", Value: 1},
				{Key: "is_active", Value: 1},
				{Key: "name_ci", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_churches_parish_active_nameci__id"),
		},
		// Diocese rollups (diocese_id is denormalized onto churches).
		{
			Keys:    bson.D{{Key: "diocese_id", Value: 1}},
			Options: options.Index().SetName("idx_churches_diocese"),
		},
	})
}

// Both the internal collection and its public mirror carry the same scoped
// listing indexes so reads stay cheap on either side of the sync.
func ensureDonationTypes(ctx context.Context, db *mongo.Database) error {
	scoped := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "parish_id", Value: 1},
				{Key: "is_active", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_dontypes_parish_active_created"),
		},
		{
			Keys:    bson.D{{Key: "church_id", Value: 1}},
			Options: options.Index().SetName("idx_dontypes_church"),
		},
		{
			Keys:    bson.D{{Key: "diocese_id", Value: 1}},
			Options: options.Index().SetName("idx_dontypes_diocese"),
		},
	}
	if err := ensureIndexSet(ctx, db.Collection("donation_types"), append(scoped, mongo.IndexModel{
		// Pending-approval queue: church-authored items awaiting parish validation.
		Keys: bson.D{
			{Key: "parish_id", Value: 1},
			{Key: "validated_by_parish", Value: 1},
			{Key: "created_at", Value: -1},
		},
		Options: options.Index().SetName("idx_dontypes_parish_validated_created"),
	})); err != nil {
		return err
	}
	return ensureIndexSet(ctx, db.Collection("donation_types_public"), scoped)
}

func ensurePrayerTimes(ctx context.Context, db *mongo.Database) error {
	scoped := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "parish_id", Value: 1},
				{Key: "active", Value: 1},
				{Key: "time", Value: 1},
			},
			Options: options.Index().SetName("idx_prayers_parish_active_time"),
		},
		{
			Keys:    bson.D{{Key: "church_id", Value: 1}},
			Options: options.Index().SetName("idx_prayers_church"),
		},
		{
			Keys:    bson.D{{Key: "diocese_id", Value: 1}},
			Options: options.Index().SetName("idx_prayers_diocese"),
		},
	}
	if err := ensureIndexSet(ctx, db.Collection("prayer_times"), append(scoped, mongo.IndexModel{
		Keys: bson.D{
			{Key: "parish_id", Value: 1},
			{Key: "validated_by_parish", Value: 1},
			{Key: "created_at", Value: -1},
		},
		Options: options.Index().SetName("idx_prayers_parish_validated_created"),
	})); err != nil {
		return err
	}
	return ensureIndexSet(ctx, db.Collection("prayer_times_public"), scoped)
}

func ensureNews(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("parish_news")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Parish feed, latest first.
		{
			Keys: bson.D{
				{Key: "parish_id", Value: 1},
				{Key: "published", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_news_parish_published_created"),
		},
		// Diocese and archdiocese scoped feeds.
		{
			Keys: bson.D{
				{Key: "scope", Value: 1},
				{Key: "diocese_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_news_scope_diocese_created"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_news_category_created"),
		},
	})
}

func ensureDonations(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("donations")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Receipt numbers are issued once per donation.
		{
			Keys:    bson.D{{Key: "receipt_no", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_donations_receipt"),
		},
		// Parish ledger, latest first, optionally filtered by status.
		{
			Keys: bson.D{
				{Key: "parish_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_donations_parish_status_created"),
		},
		{
			Keys:    bson.D{{Key: "church_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_donations_church_created"),
		},
		{
			Keys:    bson.D{{Key: "diocese_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_donations_diocese_created"),
		},
		// Per-type summaries.
		{
			Keys:    bson.D{{Key: "donation_type_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_donations_type_created"),
		},
	})
}

func ensureNotifications(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("parish_notifications")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Recent notifications per parish, plus the unread badge count.
		{
			Keys: bson.D{
				{Key: "parish_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_notif_parish_created"),
		},
		{
			Keys: bson.D{
				{Key: "parish_id", Value: 1},
				{Key: "read", Value: 1},
			},
			Options: options.Index().SetName("idx_notif_parish_read"),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("audit_events")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Site-wide recent events (latest-first).
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_created"),
		},
		{
			Keys:    bson.D{{Key: "actor_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_actor_created"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "event", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_category_event_created"),
		},
		{
			Keys:    bson.D{{Key: "parish_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_parish_created"),
		},
	})
}
