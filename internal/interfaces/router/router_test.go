package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketdesk/internal/config"
	"marketdesk/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, redisURL string) *fiber.App {
	t.Helper()
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"Not authenticated"}`)
	}))
	cfg := &config.Config{
		Env:              "test",
		UpstreamURL:      up.URL + "/api",
		UpstreamTimeout:  2 * time.Second,
		SearchDebounce:   10 * time.Millisecond,
		WorkspaceIdleTTL: time.Minute,
		RedisURL:         redisURL,
		DatabaseURL:      "sqlite://:memory:",
	}
	app, db, rdb, err := CreateApp(cfg)
	require.NoError(t, err)
	require.NotNil(t, db)
	t.Cleanup(func() {
		_ = app.Shutdown()
		if rdb != nil {
			_ = rdb.Close()
		}
		up.Close()
	})
	return app
}

func do(t *testing.T, app *fiber.App, method, path string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, path, nil), -1)
	require.NoError(t, err)
	return resp
}

func TestCreateApp_CopiesRequestStrings(t *testing.T) {
	app := newApp(t, "")
	assert.True(t, app.Config().Immutable)
}

func TestCreateApp_WithoutRedisReportsIssue(t *testing.T) {
	app := newApp(t, "")
	resp := do(t, app, "GET", "/health/json")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestCreateApp_AnonymousIsTurnedAway(t *testing.T) {
	mr := miniredis.RunT(t)
	app := newApp(t, "redis://"+mr.Addr())

	me := do(t, app, "GET", "/api/v1/auth/me")
	assert.Equal(t, http.StatusUnauthorized, me.StatusCode)
	var sid string
	for _, ck := range me.Cookies() {
		if ck.Name == middleware.SessionCookieName {
			sid = ck.Value
		}
	}
	require.NotEmpty(t, sid)
	assert.True(t, mr.Exists(middleware.SessionRedisPrefix+sid))

	for _, path := range []string{"/api/v1/seller/businesses/b1/leads", "/api/v1/admin/users", "/api/v1/profile", "/api/v1/activity"} {
		resp := do(t, app, "GET", path)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestCreateApp_BadRedisURL(t *testing.T) {
	_, _, _, err := CreateApp(&config.Config{RedisURL: "not a url"})
	assert.Error(t, err)
}
