package shared

import (
	"context"

	"github.com/Elqomdes/hedeflynet/internal/app/system/respcache"
	"go.uber.org/zap"
)

// AdminStatsKey caches GET /api/admin/stats.
const AdminStatsKey = "admin:stats"

// Invalidate drops cached entries after a mutation that changes them.
// A nil cache is a no-op; failures are logged, never returned.
func Invalidate(ctx context.Context, c respcache.Cache, log *zap.Logger, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.Delete(ctx, keys...); err != nil {
		log.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
