// Package handlertest wires a fiber app the way the server does, against
// miniredis and a fake marketplace API, for handler tests.
package handlertest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketdesk/internal/application/activity"
	"marketdesk/internal/application/session"
	"marketdesk/internal/application/workspace"
	"marketdesk/internal/domain"
	"marketdesk/internal/infrastructure/database"
	"marketdesk/internal/infrastructure/marketapi"
	"marketdesk/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// Env is one test server. Register fake upstream routes on Upstream under
// "/api/...", then mount handlers on App.
type Env struct {
	App      *fiber.App
	Rdb      *redis.Client
	Redis    *miniredis.Miniredis
	Registry *workspace.Registry
	Upstream *http.ServeMux
	Config   middleware.SessionConfig
}

func New(t *testing.T) *Env {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)

	reg := workspace.NewRegistry(workspace.Options{
		NewClient: func() *marketapi.Client { return marketapi.New(srv.URL+"/api", 5*time.Second, 0) },
		Debounce:  10 * time.Millisecond,
	})
	t.Cleanup(func() {
		reg.Close()
		srv.Close()
		rdb.Close()
		mr.Close()
	})

	cfg := middleware.SessionConfig{}
	app := fiber.New(fiber.Config{Immutable: true})
	app.Use(middleware.Session(cfg, rdb, reg))
	app.Use(middleware.Feedback())
	return &Env{App: app, Rdb: rdb, Redis: mr, Registry: reg, Upstream: mux, Config: cfg}
}

// SignIn creates the workspace of sid already signed in as u.
func (e *Env) SignIn(sid string, u domain.User) *workspace.Workspace {
	ws, _ := e.Registry.Get(sid)
	ws.Session.Restore(&session.Snapshot{Authenticated: true, User: &u})
	return ws
}

// Request describes one call against App.
type Request struct {
	Method  string
	Path    string
	Body    interface{}
	Session string
	Confirm bool
}

// Response is a decoded envelope.
type Response struct {
	Status  int
	Body    map[string]interface{}
	Raw     []byte
	Header  http.Header
	Cookies []*http.Cookie
}

func (e *Env) Do(t *testing.T, r Request) Response {
	t.Helper()
	var body io.Reader
	if r.Body != nil {
		b, err := json.Marshal(r.Body)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(r.Method, r.Path, body)
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.Session != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: r.Session})
	}
	if r.Confirm {
		req.Header.Set(middleware.ConfirmHeader, "true")
	}
	resp, err := e.App.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := Response{Status: resp.StatusCode, Raw: raw, Header: resp.Header, Cookies: resp.Cookies()}
	_ = json.Unmarshal(raw, &out.Body)
	return out
}

// Data returns the "data" member of a success envelope.
func (r Response) Data() map[string]interface{} {
	d, _ := r.Body["data"].(map[string]interface{})
	return d
}

// ErrorMessage returns error.message of an error envelope.
func (r Response) ErrorMessage() string {
	e, _ := r.Body["error"].(map[string]interface{})
	m, _ := e["message"].(string)
	return m
}

// Details returns error.details of an error envelope.
func (r Response) Details() map[string]interface{} {
	e, _ := r.Body["error"].(map[string]interface{})
	d, _ := e["details"].(map[string]interface{})
	return d
}

// JSON writes v as a JSON response from a fake upstream handler.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Recorder returns an activity recorder on an in-memory SQLite database.
func Recorder(t *testing.T) *activity.Recorder {
	t.Helper()
	db, err := database.Open("sqlite://:memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return &activity.Recorder{DB: db}
}
