// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/Elqomdes/hedeflynet/internal/app/system/metrics"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respcache"
	"github.com/Elqomdes/hedeflynet/internal/app/system/workers"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the backends shared by every lifecycle hook.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Redis is nil when the in-process cache is used.
	Redis *redis.Client
	Cache respcache.Cache

	Metrics *metrics.Metrics
	Workers *workers.Runner
}
