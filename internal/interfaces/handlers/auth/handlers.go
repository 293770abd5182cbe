package auth

import (
	"net/http"

	"marketdesk/internal/application/session"
	"marketdesk/internal/application/workspace"
	"marketdesk/internal/middleware"
	"marketdesk/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	Rdb      *redis.Client
	Registry *workspace.Registry
	Config   middleware.SessionConfig
}

var errStatus = map[error]int{
	session.ErrStillLoading:           http.StatusServiceUnavailable,
	session.ErrCredentialsRequired:    http.StatusBadRequest,
	session.ErrInvalidCredentials:     http.StatusUnauthorized,
	session.ErrRegistrationIncomplete: http.StatusBadRequest,
	session.ErrInvalidName:            http.StatusBadRequest,
	session.ErrInvalidEmail:           http.StatusBadRequest,
	session.ErrWeakPassword:           http.StatusBadRequest,
	session.ErrInvalidPhone:           http.StatusBadRequest,
	session.ErrInvalidRole:            http.StatusBadRequest,
	session.ErrNoUser:                 http.StatusBadGateway,
}

// LoginRequest body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login POST /api/v1/auth/login. Signs in upstream, then moves the workspace
// to a fresh session id.
func (h *Handlers) Login(c *fiber.Ctx) error {
	fb := middleware.GetFeedback(c)
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, session.ErrCredentialsRequired.Error(), fiber.StatusBadRequest, nil)
	}
	ws := middleware.GetWorkspace(c)
	ws.Session.Init(c.UserContext())
	prev, _ := ws.Session.User()
	user, err := ws.Session.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return fb.Fail(c, err, errStatus)
	}
	h.signIn(c, ws, prev.ID, user.ID)
	return fb.OK(c, "Login successful", fiber.Map{"user": user})
}

// Register POST /api/v1/auth/register. Only buyer and seller accounts can be
// created here.
func (h *Handlers) Register(c *fiber.Ctx) error {
	fb := middleware.GetFeedback(c)
	var in session.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	ws := middleware.GetWorkspace(c)
	ws.Session.Init(c.UserContext())
	prev, _ := ws.Session.User()
	user, err := ws.Session.Register(c.UserContext(), in)
	if err != nil {
		return fb.Fail(c, err, errStatus)
	}
	h.signIn(c, ws, prev.ID, user.ID)
	return response.SuccessCreated(c, "Registration successful", fiber.Map{"user": user}, nil)
}

// signIn rotates the session id. Boards loaded for a different user are dropped.
func (h *Handlers) signIn(c *fiber.Ctx, ws *workspace.Workspace, prevUserID, userID string) {
	oldSID := middleware.GetSessionID(c)
	if prevUserID != userID {
		ws.Reset()
		if prevUserID != "" && h.Rdb != nil {
			_ = h.Rdb.SRem(c.UserContext(), middleware.UserSessionsPrefix+prevUserID, oldSID).Err()
		}
	}
	sid := middleware.RegenerateSessionID(c, h.Rdb, h.Registry)
	middleware.SetSessionCookie(c, h.Config, sid)
	if err := middleware.TrackUserSession(c.UserContext(), h.Rdb, userID, sid); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("auth: could not track session")
	}
}

// Me GET /api/v1/auth/me.
func (h *Handlers) Me(c *fiber.Ctx) error {
	ws := middleware.GetWorkspace(c)
	switch st := ws.Session.Init(c.UserContext()).(type) {
	case session.Authenticated:
		return response.Success(c, "Authenticated", fiber.Map{"user": st.User}, nil)
	case session.Loading:
		return response.Error(c, session.ErrStillLoading.Error(), fiber.StatusServiceUnavailable, nil)
	}
	return response.Error(c, "Not authenticated", fiber.StatusUnauthorized, nil)
}

// Logout DELETE /api/v1/auth/logout. The local session ends even when the
// upstream call fails.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	ws := middleware.GetWorkspace(c)
	userID := ""
	if u, ok := ws.Session.User(); ok {
		userID = u.ID
	}
	_ = ws.Session.Logout(c.UserContext())
	middleware.DestroySession(c, h.Rdb, h.Registry, userID)
	middleware.ClearSessionCookie(c, h.Config)
	return response.Success(c, "Logout successful", nil, nil)
}
