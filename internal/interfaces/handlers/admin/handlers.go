package admin

import (
	"net/http"

	"marketdesk/internal/application/activity"
	adminsvc "marketdesk/internal/application/admin"
	policies "marketdesk/internal/application/policies/user"
	"marketdesk/internal/domain"
	"marketdesk/internal/middleware"
	"marketdesk/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Handlers serve the admin console tables, modals and dashboard.
type Handlers struct {
	Activity *activity.Recorder
	Rdb      *redis.Client
	Sessions policies.SessionDropper
}

var errStatus = map[error]int{
	adminsvc.ErrInvalidRole:     http.StatusBadRequest,
	adminsvc.ErrOwnRole:         http.StatusForbidden,
	adminsvc.ErrUnknownField:    http.StatusBadRequest,
	adminsvc.ErrInvalidEmail:    http.StatusBadRequest,
	adminsvc.ErrUserNotFound:    http.StatusNotFound,
	adminsvc.ErrQueryNotFound:   http.StatusNotFound,
	adminsvc.ErrProductNotFound: http.StatusNotFound,
	adminsvc.ErrUnknownTab:      http.StatusNotFound,
	adminsvc.ErrBusy:            http.StatusConflict,
	adminsvc.ErrAlreadyResolved: http.StatusConflict,
}

// Dashboard GET /admin/dashboard. A half that failed is listed in data.errors.
func (h *Handlers) Dashboard(c *fiber.Ctx) error {
	fb := middleware.GetFeedback(c)
	view := middleware.GetWorkspace(c).Dashboard().Load(c.UserContext(), fb.UI())
	return fb.OK(c, "Dashboard fetched successfully", view)
}

// Users GET /admin/users. A changed filter goes through the table's debounce,
// so a burst of requests costs one upstream call; each request waits for it.
func (h *Handlers) Users(c *fiber.Ctx) error {
	fb := middleware.GetFeedback(c)
	table := middleware.GetWorkspace(c).Users()
	var f domain.UserFilter
	if err := c.QueryParser(&f); err != nil {
		return response.Error(c, "Invalid filter", fiber.StatusBadRequest, nil)
	}
	var (
		view adminsvc.UsersView
		err  error
	)
	if f != table.View().Filter {
		table.SetFilter(f)
		view, err = table.Wait(c.UserContext(), fb.UI())
	} else {
		view, err = table.Load(c.UserContext(), fb.UI())
	}
	if err != nil {
		return fb.Fail(c, err, errStatus)
	}
	return fb.OK(c, "Users fetched successfully", view)
}

// UpdateUser PUT /admin/users/:id with the fields to change.
func (h *Handlers) UpdateUser(c *fiber.Ctx) error {
	fb := middleware.GetFeedback(c)
	var fields map[string]interface{}
	if err := c.BodyParser(&fields); err != nil || len(fields) == 0 {
		return response.Error(c, "No fields to update", fiber.StatusBadRequest, nil)
	}
	id := c.Params("id")
	user, err := middleware.GetWorkspace(c).Users().UpdateUser(c.UserContext(), fb.UI(), id, fields)
	if err != nil {
		return fb.Fail(c, err, errStatus)
	}
	h.record(c, activity.KindUserUpdated, "user", id, fields)
	return fb.OK(c, "User updated successfully", user)
}

type roleRequest struct {
	Role string `json:"role"`
}

// ChangeRole PUT /admin/users/:id/role. The target is signed out of every
// session so the new role takes effect at their next sign-in.
func (h *Handlers) ChangeRole(c *fiber.Ctx) error {
	fb := middleware.GetFeedback(c)
	var req roleRequest
	if err := c.BodyParser(&req); err != nil || req.Role == "" {
		return response.Error(c, "Role is required", fiber.StatusBadRequest, nil)
	}
	actor, _ := middleware.GetUser(c)
	id := c.Params("id")
	user, err := middleware.GetWorkspace(c).Users().ChangeRole(c.UserContext(), fb.UI(), actor.ID, id, req.Role)
	if err != nil {
		return fb.Fail(c, err, errStatus)
	}
	if n := policies.DestroyUserSessions(c.UserContext(), h.Rdb, h.Sessions, id); n > 0 {
		log.Info().Str("user_id", id).Int("sessions", n).Msg("admin: signed out user after role change")
	}
	h.record(c, activity.KindRoleChanged, "user", id, fiber.Map{"role": user.Role})
	return fb.OK(c, "Role updated successfully", user)
}

// UserTab GET /admin/users/:id/:tab (listings, leads, orders).
func (h *Handlers) UserTab(c *fiber.Ctx) error {
	fb := middleware.GetFeedback(c)
	detail := middleware.GetWorkspace(c).UserDetail(c.Params("id"))
	rows, err := detail.Tab(c.UserContext(), fb.UI(), c.Params("tab"))
	if err != nil {
		return fb.Fail(c, err, errStatus)
	}
	return fb.OK(c, "OK", fiber.Map{"tab": detail.Active(), "rows": rows})
}

// Businesses GET /admin/businesses. Filtering happens in memory; refresh=1 refetches.
func (h *Handlers) Businesses(c *fiber.Ctx) error {
	fb := middleware.GetFeedback(c)
	table := middleware.GetWorkspace(c).Businesses()
	var f domain.BusinessFilter
	if err := c.QueryParser(&f); err != nil {
		return response.Error(c, "Invalid filter", fiber.StatusBadRequest, nil)
	}
	load := table.Load
	if c.Query("refresh") == "1" {
		load = table.Refresh
	}
	if err := load(c.UserContext(), fb.UI()); err != nil {
		return fb.Fail(c, err, errStatus)
	}
	table.SetFilter(f)
	return fb.OK(c, "Businesses fetched successfully", table.View())
}

// BusinessTab GET /admin/businesses/:id/:tab (overview, products).
func (h *Handlers) BusinessTab(c *fiber.Ctx) error {
	fb := middleware.GetFeedback(c)
	detail := middleware.GetWorkspace(c).BusinessDetail(c.Params("id"))
	data, err := detail.Tab(c.UserContext(), fb.UI(), c.Params("tab"))
	if err != nil {
		return fb.Fail(c, err, errStatus)
	}
	return fb.OK(c, "OK", fiber.Map{"tab": detail.Active(), "data": data})
}

// ToggleProduct POST /admin/products/:id/toggle-status?businessId=... flips a
// product from the business modal.
func (h *Handlers) ToggleProduct(c *fiber.Ctx) error {
	fb := middleware.GetFeedback(c)
	businessID := c.Query("businessId")
	if businessID == "" {
		return response.Error(c, "businessId is required", fiber.StatusBadRequest, nil)
	}
	id := c.Params("id")
	product, err := middleware.GetWorkspace(c).BusinessDetail(businessID).ToggleProduct(c.UserContext(), fb.UI(), id)
	if err != nil {
		return fb.Fail(c, err, errStatus)
	}
	h.record(c, activity.KindProductToggled, "product", id, fiber.Map{"status": product.Status, "businessId": businessID})
	return fb.OK(c, "Product status updated", product)
}

// Support GET /admin/support. Same rules as Businesses.
func (h *Handlers) Support(c *fiber.Ctx) error {
	fb := middleware.GetFeedback(c)
	table := middleware.GetWorkspace(c).Support()
	var f domain.SupportFilter
	if err := c.QueryParser(&f); err != nil {
		return response.Error(c, "Invalid filter", fiber.StatusBadRequest, nil)
	}
	load := table.Load
	if c.Query("refresh") == "1" {
		load = table.Refresh
	}
	if err := load(c.UserContext(), fb.UI()); err != nil {
		return fb.Fail(c, err, errStatus)
	}
	table.SetFilter(f)
	return fb.OK(c, "Support queries fetched successfully", table.View())
}

// ResolveSupport POST /admin/support/:id/resolve.
func (h *Handlers) ResolveSupport(c *fiber.Ctx) error {
	fb := middleware.GetFeedback(c)
	id := c.Params("id")
	q, err := middleware.GetWorkspace(c).Support().Resolve(c.UserContext(), fb.UI(), id)
	if err != nil {
		return fb.Fail(c, err, errStatus)
	}
	h.record(c, activity.KindSupportResolved, "support_query", id, nil)
	return fb.OK(c, "Query resolved", q)
}

// DeleteSupport DELETE /admin/support/:id.
func (h *Handlers) DeleteSupport(c *fiber.Ctx) error {
	fb := middleware.GetFeedback(c)
	id := c.Params("id")
	if err := middleware.GetWorkspace(c).Support().Delete(c.UserContext(), fb.UI(), id); err != nil {
		return fb.Fail(c, err, errStatus)
	}
	h.record(c, activity.KindSupportDeleted, "support_query", id, nil)
	return fb.OK(c, "Query deleted", fiber.Map{"id": id})
}

func (h *Handlers) record(c *fiber.Ctx, kind, entityType, id string, data interface{}) {
	u, ok := middleware.GetUser(c)
	if !ok {
		return
	}
	h.Activity.RecordQuietly(c.UserContext(), activity.Action{
		ActorID:    u.ID,
		ActorRole:  u.Role,
		Kind:       kind,
		EntityType: entityType,
		EntityID:   id,
		Data:       data,
	})
}
