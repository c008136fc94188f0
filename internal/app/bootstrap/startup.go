// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	billingsvc "github.com/Elqomdes/hedeflynet/internal/app/services/billing"
	gamesvc "github.com/Elqomdes/hedeflynet/internal/app/services/gamification"
	"github.com/Elqomdes/hedeflynet/internal/app/services/notifier"
	discountstore "github.com/Elqomdes/hedeflynet/internal/app/store/discounts"
	notificationstore "github.com/Elqomdes/hedeflynet/internal/app/store/notifications"
	"github.com/Elqomdes/hedeflynet/internal/app/store/oauthstate"
	subscriptionstore "github.com/Elqomdes/hedeflynet/internal/app/store/subscriptions"
	userstore "github.com/Elqomdes/hedeflynet/internal/app/store/users"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respcache"
	"github.com/Elqomdes/hedeflynet/internal/app/system/workers"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Startup runs after schema setup and before the handler is built.
// It starts the background workers.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Workers != nil {
		deps.Workers.Start()
	}
	return nil
}

// buildWorkers assembles the periodic jobs. Jobs with a zero interval are
// skipped by the runner.
func buildWorkers(appCfg AppConfig, deps DBDeps, logger *zap.Logger) *workers.Runner {
	billing := billingsvc.New(subscriptionstore.New(deps.MongoDatabase), discountstore.New(deps.MongoDatabase), deps.Metrics, logger)
	notes := notificationstore.New(deps.MongoDatabase)
	states := oauthstate.New(deps.MongoDatabase)

	jobs := []workers.Job{
		{
			Name:     "subscription_sweep",
			Interval: appCfg.SubscriptionSweepInterval,
			Run:      billing.ExpireDue,
		},
		{
			Name:     "oauth_state_cleanup",
			Interval: 15 * time.Minute,
			Run:      states.CleanupExpired,
		},
	}

	if retention := appCfg.NotificationRetention; retention > 0 {
		jobs = append(jobs, workers.Job{
			Name:     "notification_retention",
			Interval: 24 * time.Hour,
			Timeout:  2 * time.Minute,
			Run: func(ctx context.Context) (int64, error) {
				return notes.DeleteOlderThan(ctx, time.Now().Add(-retention))
			},
		})
	}

	// Redis expires keys itself; the memory cache needs a sweep.
	if mem, ok := deps.Cache.(*respcache.Memory); ok {
		jobs = append(jobs, workers.Job{
			Name:     "cache_sweep",
			Interval: time.Minute,
			Run: func(context.Context) (int64, error) {
				return int64(mem.Sweep()), nil
			},
		})
	}

	return workers.NewRunner(logger, deps.Metrics.WorkerRun, jobs...)
}

// achievementNotifier tells parents when their child unlocks an achievement.
func achievementNotifier(users *userstore.Store, notify *notifier.Service, logger *zap.Logger) gamesvc.AwardHook {
	return func(ctx context.Context, userID primitive.ObjectID, a models.Achievement) {
		name := "Your child"
		if u, err := users.GetByID(ctx, userID); err == nil {
			name = u.FullName
		}
		if _, err := notify.NotifyParents(ctx, notifier.AchievementEarned(userID, name, a)); err != nil {
			logger.Warn("achievement notification failed",
				zap.String("user_id", userID.Hex()), zap.String("achievement", a.Code), zap.Error(err))
		}
	}
}
