package listings

import (
	"net/http"

	"marketdesk/internal/application/activity"
	listsvc "marketdesk/internal/application/listings"
	"marketdesk/internal/domain"
	"marketdesk/internal/middleware"
	"marketdesk/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers serve the seller listing board.
type Handlers struct {
	Activity *activity.Recorder
}

var errStatus = map[error]int{
	listsvc.ErrNoBusiness:      http.StatusBadRequest,
	listsvc.ErrListingNotFound: http.StatusNotFound,
	listsvc.ErrBusy:            http.StatusConflict,
	listsvc.ErrInvalidPrices:   http.StatusBadRequest,
}

// List GET /seller/businesses/:businessId/listings. Same query rules as the lead board.
func (h *Handlers) List(c *fiber.Ctx) error {
	fb := middleware.GetFeedback(c)
	board := middleware.GetWorkspace(c).Listings()
	ctx := c.UserContext()

	var f domain.ListingFilter
	if err := c.QueryParser(&f); err != nil {
		return response.Error(c, "Invalid filter", fiber.StatusBadRequest, nil)
	}
	if err := board.SetBusiness(ctx, fb.UI(), c.Params("businessId")); err != nil {
		return fb.Fail(c, err, errStatus)
	}
	var err error
	switch {
	case c.Query("clear") == "1":
		err = board.Clear(ctx, fb.UI())
	case !f.IsZero() && f.Query().Encode() != board.View().Filter.Query().Encode():
		board.SetFilter(f)
		err = board.Apply(ctx, fb.UI())
	case c.Query("refresh") == "1":
		err = board.Refresh(ctx, fb.UI())
	}
	if err != nil {
		return fb.Fail(c, err, errStatus)
	}
	return fb.OK(c, "Listings fetched successfully", board.View())
}

// ToggleStatus POST /seller/listings/:id/toggle-status.
func (h *Handlers) ToggleStatus(c *fiber.Ctx) error {
	fb := middleware.GetFeedback(c)
	id := c.Params("id")
	asset, err := middleware.GetWorkspace(c).Listings().ToggleStatus(c.UserContext(), fb.UI(), id)
	if err != nil {
		return fb.Fail(c, err, errStatus)
	}
	h.record(c, activity.KindListingToggled, id, fiber.Map{"status": asset.Status})
	return fb.OK(c, "Listing status updated", asset)
}

// Delete DELETE /seller/listings/:id.
func (h *Handlers) Delete(c *fiber.Ctx) error {
	fb := middleware.GetFeedback(c)
	id := c.Params("id")
	board := middleware.GetWorkspace(c).Listings()
	title := ""
	if a, ok := board.Listing(id); ok {
		title = a.Title
	}
	if err := board.Delete(c.UserContext(), fb.UI(), id); err != nil {
		return fb.Fail(c, err, errStatus)
	}
	h.record(c, activity.KindListingDeleted, id, fiber.Map{"title": title})
	return fb.OK(c, "Listing deleted", fiber.Map{"id": id})
}

func (h *Handlers) record(c *fiber.Ctx, kind, id string, data interface{}) {
	u, ok := middleware.GetUser(c)
	if !ok {
		return
	}
	h.Activity.RecordQuietly(c.UserContext(), activity.Action{
		ActorID:    u.ID,
		ActorRole:  u.Role,
		Kind:       kind,
		EntityType: "listing",
		EntityID:   id,
		Data:       data,
	})
}
