package activity

import (
	activitysvc "marketdesk/internal/application/activity"
	"marketdesk/internal/middleware"
	"marketdesk/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Recorder *activitysvc.Recorder
}

// Recent GET /activity?limit=N lists the caller's own actions, newest first.
func (h *Handlers) Recent(c *fiber.Ctx) error {
	u, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	events, err := h.Recorder.Recent(c.UserContext(), u.ID, c.QueryInt("limit", activitysvc.DefaultLimit))
	if err != nil {
		log.Error().Err(err).Str("user_id", u.ID).Msg("activity: list failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Activity fetched successfully", events, fiber.Map{"count": len(events)})
}
