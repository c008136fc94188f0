// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	userstore "github.com/Elqomdes/hedeflynet/internal/app/store/users"
	"github.com/Elqomdes/hedeflynet/internal/app/system/indexes"
	"github.com/Elqomdes/hedeflynet/internal/app/system/metrics"
	"github.com/Elqomdes/hedeflynet/internal/app/system/normalize"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respcache"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// ConnectDB opens MongoDB and, when configured, Redis. The background job
// runner is built here too so Startup and Shutdown share one instance.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	opts := options.Client().ApplyURI(appCfg.MongoURI)
	if appCfg.MongoMaxPoolSize > 0 {
		opts.SetMaxPoolSize(appCfg.MongoMaxPoolSize)
	}
	client, err := mongo.Connect(cctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
		Metrics:       metrics.New(),
	}

	if appCfg.RedisAddr != "" {
		rc, err := respcache.Dial(cctx, appCfg.RedisAddr, appCfg.RedisPassword, 0)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return DBDeps{}, err
		}
		deps.Redis = rc
		deps.Cache = respcache.NewRedis(rc, "hedeflynet")
		logger.Info("response cache: redis", zap.String("addr", appCfg.RedisAddr))
	} else {
		deps.Cache = respcache.NewMemory()
		logger.Info("response cache: in-process memory")
	}

	deps.Workers = buildWorkers(appCfg, deps, logger)
	return deps, nil
}

// EnsureSchema creates indexes and the bootstrap admin.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("index setup failed", zap.Error(err))
		return err
	}
	if appCfg.AdminEmail != "" {
		if err := ensureAdmin(ctx, deps.MongoDatabase, appCfg.AdminEmail, appCfg.AdminPassword, logger); err != nil {
			logger.Error("admin bootstrap failed", zap.Error(err))
			return err
		}
	}
	return nil
}

// ensureAdmin creates the admin account for email if no user has it yet.
// An existing non-admin with that email is promoted and re-activated.
func ensureAdmin(ctx context.Context, db *mongo.Database, email, password string, logger *zap.Logger) error {
	users := userstore.New(db)
	email = normalize.Email(email)

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == models.RoleAdmin && existing.IsActive {
			return nil
		}
		_, err := db.Collection("users").UpdateOne(ctx,
			bson.M{"_id": existing.ID},
			bson.M{"$set": bson.M{
				"role":       models.RoleAdmin,
				"is_active":  true,
				"updated_at": time.Now().UTC(),
			}})
		if err != nil {
			return fmt.Errorf("promote %s: %w", email, err)
		}
		logger.Warn("promoted existing user to admin",
			zap.String("email", email), zap.String("previous_role", existing.Role))
		return nil
	case !errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("look up %s: %w", email, err)
	}

	if password == "" {
		return fmt.Errorf("admin %s does not exist and no admin_password is set", email)
	}
	u, err := users.Create(ctx, models.User{
		FullName: "Administrator",
		Email:    email,
		Role:     models.RoleAdmin,
		IsActive: true,
	}, password)
	if err != nil {
		return fmt.Errorf("create admin %s: %w", email, err)
	}
	logger.Info("created bootstrap admin", zap.String("email", u.Email), zap.String("user_id", u.ID.Hex()))
	return nil
}
