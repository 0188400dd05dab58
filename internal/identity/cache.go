package identity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const roleKeyPrefix = "role:"

// CachedRoleResolver кэширует найденные роли в Redis.
// Промахи не кэшируются: роль, выданную в провайдере, видно со следующего запроса.
type CachedRoleResolver struct {
	log  *slog.Logger
	rdb  redis.Cmdable
	next RoleResolver
	ttl  time.Duration
}

func NewCachedRoleResolver(log *slog.Logger, rdb redis.Cmdable, next RoleResolver, ttl time.Duration) *CachedRoleResolver {
	return &CachedRoleResolver{
		log:  log,
		rdb:  rdb,
		next: next,
		ttl:  ttl,
	}
}

func (c *CachedRoleResolver) ResolveRole(ctx context.Context, caller *Caller) RoleLookup {
	const op = "identity.CachedRoleResolver.ResolveRole"
	if caller == nil {
		return c.next.ResolveRole(ctx, caller)
	}
	logger := c.log.With(slog.String("op", op), slog.String("userID", caller.ID))
	key := roleKeyPrefix + caller.ID

	role, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil && role != "":
		return RoleLookup{Role: role, Source: SourceCache, Found: true}
	case err != nil && !errors.Is(err, redis.Nil):
		// кэш недоступен, идём к провайдеру
		logger.Warn("role cache read failed", slog.Any("error", err))
	}

	lookup := c.next.ResolveRole(ctx, caller)
	if !lookup.Found {
		return lookup
	}
	if err := c.rdb.Set(ctx, key, lookup.Role, c.ttl).Err(); err != nil {
		logger.Warn("role cache write failed", slog.Any("error", err))
	}
	return lookup
}
