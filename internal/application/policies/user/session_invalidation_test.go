package policies

import (
	"context"
	"testing"

	"marketdesk/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dropRecorder []string

func (d *dropRecorder) Drop(sid string) { *d = append(*d, sid) }

func TestDestroyUserSessions(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	require.NoError(t, rdb.SAdd(ctx, middleware.UserSessionsPrefix+"u1", "s1", "s2").Err())
	require.NoError(t, rdb.Set(ctx, middleware.SessionRedisPrefix+"s1", "{}", 0).Err())
	require.NoError(t, rdb.Set(ctx, middleware.SessionRedisPrefix+"s2", "{}", 0).Err())
	require.NoError(t, rdb.Set(ctx, middleware.SessionRedisPrefix+"other", "{}", 0).Err())

	var dropped dropRecorder
	n := DestroyUserSessions(ctx, rdb, &dropped, "u1")

	assert.Equal(t, 2, n)
	assert.ElementsMatch(t, []string{"s1", "s2"}, []string(dropped))
	assert.False(t, mr.Exists(middleware.SessionRedisPrefix+"s1"))
	assert.False(t, mr.Exists(middleware.SessionRedisPrefix+"s2"))
	assert.True(t, mr.Exists(middleware.SessionRedisPrefix+"other"))
	assert.False(t, mr.Exists(middleware.UserSessionsPrefix+"u1"))
}

func TestDestroyUserSessions_NoSessions(t *testing.T) {
	assert.Equal(t, 0, DestroyUserSessions(context.Background(), nil, nil, "u1"))
}
