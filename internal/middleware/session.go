package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"marketdesk/internal/application/session"
	"marketdesk/internal/application/workspace"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SessionConfig for the Redis-backed console session.
type SessionConfig struct {
	Secret            string
	AllowCrossSiteDev bool
	IsProduction      bool
}

const (
	SessionCookieName  = "marketdesk.sid"
	SessionRedisPrefix = "console:session:"
	UserSessionsPrefix = "console:user_sessions:"
	sessionMaxAge      = 24 * time.Hour

	sessionIDLocal = "session_id"
	workspaceLocal = "workspace"
)

// StoredSession is what survives a process restart: the upstream session
// cookies and the resolved auth state.
type StoredSession struct {
	Cookies []StoredCookie    `json:"cookies"`
	Auth    *session.Snapshot `json:"auth,omitempty"`
}

type StoredCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Expires time.Time `json:"expires,omitempty"`
}

// Session attaches the caller's workspace. A request without a valid cookie
// gets a fresh session id. A workspace not yet in memory is restored from
// Redis, and its state is written back after the handler ran.
func Session(cfg SessionConfig, rdb *redis.Client, reg *workspace.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		sid := cfg.verify(c.Cookies(SessionCookieName))
		fresh := sid == ""
		if fresh {
			sid = uuid.New().String()
		}
		ws, created := reg.Get(sid)
		if created && !fresh {
			restore(ctx, rdb, ws)
		}
		if fresh {
			SetSessionCookie(c, cfg, sid)
		}
		c.Locals(sessionIDLocal, sid)
		c.Locals(workspaceLocal, ws)

		err := c.Next()

		if ws := GetWorkspace(c); ws != nil && !ws.Closed() {
			persist(ctx, rdb, GetSessionID(c), ws)
		}
		return err
	}
}

func restore(ctx context.Context, rdb *redis.Client, ws *workspace.Workspace) {
	if rdb == nil {
		return
	}
	b, err := rdb.Get(ctx, SessionRedisPrefix+ws.ID).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("session: could not load stored session")
		}
		return
	}
	var stored StoredSession
	if err := json.Unmarshal(b, &stored); err != nil {
		log.Warn().Err(err).Msg("session: stored session is corrupt, starting over")
		return
	}
	cookies := make([]*http.Cookie, 0, len(stored.Cookies))
	for _, ck := range stored.Cookies {
		cookies = append(cookies, &http.Cookie{Name: ck.Name, Value: ck.Value, Expires: ck.Expires})
	}
	ws.API.SetCookies(cookies)
	ws.Session.Restore(stored.Auth)
}

func persist(ctx context.Context, rdb *redis.Client, sid string, ws *workspace.Workspace) {
	if rdb == nil || sid == "" {
		return
	}
	stored := StoredSession{Auth: ws.Session.Snapshot()}
	for _, ck := range ws.API.Cookies() {
		stored.Cookies = append(stored.Cookies, StoredCookie{Name: ck.Name, Value: ck.Value, Expires: ck.Expires})
	}
	b, _ := json.Marshal(stored)
	if err := rdb.Set(ctx, SessionRedisPrefix+sid, b, sessionMaxAge).Err(); err != nil {
		log.Warn().Err(err).Msg("session: could not save session")
	}
}

// GetSessionID returns the current session ID.
func GetSessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals(sessionIDLocal).(string)
	return sid
}

// GetWorkspace returns the caller's workspace, nil after DestroySession.
func GetWorkspace(c *fiber.Ctx) *workspace.Workspace {
	ws, _ := c.Locals(workspaceLocal).(*workspace.Workspace)
	return ws
}

// RegenerateSessionID moves the workspace to a new session id after sign-in
// and drops the old Redis entry. The caller sets the cookie.
func RegenerateSessionID(c *fiber.Ctx, rdb *redis.Client, reg *workspace.Registry) string {
	oldID := GetSessionID(c)
	newID := uuid.New().String()
	reg.Rename(oldID, newID)
	if rdb != nil && oldID != "" {
		_ = rdb.Del(c.UserContext(), SessionRedisPrefix+oldID).Err()
	}
	c.Locals(sessionIDLocal, newID)
	return newID
}

// TrackUserSession remembers which sessions belong to a user so they can be
// invalidated together.
func TrackUserSession(ctx context.Context, rdb *redis.Client, userID, sid string) error {
	if rdb == nil || userID == "" || sid == "" {
		return nil
	}
	return rdb.SAdd(ctx, UserSessionsPrefix+userID, sid).Err()
}

// DestroySession closes the workspace and deletes the stored session.
func DestroySession(c *fiber.Ctx, rdb *redis.Client, reg *workspace.Registry, userID string) {
	sid := GetSessionID(c)
	if sid != "" {
		reg.Drop(sid)
		if rdb != nil {
			ctx := c.UserContext()
			_ = rdb.Del(ctx, SessionRedisPrefix+sid).Err()
			if userID != "" {
				_ = rdb.SRem(ctx, UserSessionsPrefix+userID, sid).Err()
			}
		}
	}
	c.Locals(workspaceLocal, nil)
	c.Locals(sessionIDLocal, "")
}

// SessionCookieConfig returns the cookie options for SetCookie/ClearCookie.
func SessionCookieConfig(cfg SessionConfig) fiber.Cookie {
	sameSite := "Lax"
	if cfg.AllowCrossSiteDev {
		sameSite = "None"
	}
	return fiber.Cookie{
		Name:     SessionCookieName,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   cfg.IsProduction || cfg.AllowCrossSiteDev,
		SameSite: sameSite,
	}
}

// SetSessionCookie writes the signed session cookie.
func SetSessionCookie(c *fiber.Ctx, cfg SessionConfig, sid string) {
	cookie := SessionCookieConfig(cfg)
	cookie.Value = cfg.sign(sid)
	c.Cookie(&cookie)
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c *fiber.Ctx, cfg SessionConfig) {
	cookie := SessionCookieConfig(cfg)
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	c.Cookie(&cookie)
}

// sign appends an HMAC of the id when a secret is configured.
func (cfg SessionConfig) sign(sid string) string {
	if cfg.Secret == "" {
		return sid
	}
	mac := hmac.New(sha256.New, []byte(cfg.Secret))
	mac.Write([]byte(sid))
	return sid + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// verify returns the session id of a cookie value, or "" if it was tampered with.
func (cfg SessionConfig) verify(value string) string {
	if value == "" {
		return ""
	}
	if cfg.Secret == "" {
		sid, _, _ := strings.Cut(value, ".")
		return sid
	}
	sid, _, ok := strings.Cut(value, ".")
	if !ok || !hmac.Equal([]byte(cfg.sign(sid)), []byte(value)) {
		return ""
	}
	return sid
}
