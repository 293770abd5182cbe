package policies

import (
	"context"

	"marketdesk/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// SessionDropper closes in-memory sessions.
type SessionDropper interface {
	Drop(sid string)
}

// DestroyUserSessions signs a user out everywhere. It runs after a role
// change so no session keeps serving the old role from its snapshot.
func DestroyUserSessions(ctx context.Context, rdb *redis.Client, sessions SessionDropper, userID string) int {
	if rdb == nil || userID == "" {
		return 0
	}
	key := middleware.UserSessionsPrefix + userID
	sids, err := rdb.SMembers(ctx, key).Result()
	if err != nil || len(sids) == 0 {
		rdb.Del(ctx, key)
		return 0
	}
	for _, sid := range sids {
		rdb.Del(ctx, middleware.SessionRedisPrefix+sid)
		if sessions != nil {
			sessions.Drop(sid)
		}
	}
	rdb.Del(ctx, key)
	return len(sids)
}
