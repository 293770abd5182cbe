package profile

import (
	"net/http"

	"marketdesk/internal/application/activity"
	profilesvc "marketdesk/internal/application/profile"
	"marketdesk/internal/middleware"
	"marketdesk/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers serve the signed-in user's own profile.
type Handlers struct {
	Activity *activity.Recorder
}

var errStatus = map[error]int{
	profilesvc.ErrUnknownField:  http.StatusBadRequest,
	profilesvc.ErrInvalidName:   http.StatusBadRequest,
	profilesvc.ErrInvalidPhone:  http.StatusBadRequest,
	profilesvc.ErrNothingToSave: http.StatusBadRequest,
	profilesvc.ErrImageRequired: http.StatusBadRequest,
	profilesvc.ErrImageType:     http.StatusBadRequest,
	profilesvc.ErrImageTooLarge: http.StatusRequestEntityTooLarge,
}

func service(c *fiber.Ctx) *profilesvc.Service {
	return &profilesvc.Service{API: middleware.GetWorkspace(c).API}
}

// Get GET /profile.
func (h *Handlers) Get(c *fiber.Ctx) error {
	fb := middleware.GetFeedback(c)
	u, err := service(c).Get(c.UserContext(), fb.UI())
	if err != nil {
		return fb.Fail(c, err, errStatus)
	}
	return fb.OK(c, "Profile fetched successfully", u)
}

// Update PUT /profile. The stored session user follows the change.
func (h *Handlers) Update(c *fiber.Ctx) error {
	fb := middleware.GetFeedback(c)
	var fields map[string]interface{}
	if err := c.BodyParser(&fields); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	u, err := service(c).Update(c.UserContext(), fb.UI(), fields)
	if err != nil {
		return fb.Fail(c, err, errStatus)
	}
	middleware.GetWorkspace(c).Session.Refresh(u)
	h.record(c, fields)
	return fb.OK(c, "Profile updated successfully", u)
}

// UploadImage POST /profile/image, multipart field "image".
func (h *Handlers) UploadImage(c *fiber.Ctx) error {
	fb := middleware.GetFeedback(c)
	fh, err := c.FormFile("image")
	if err != nil {
		return fb.Fail(c, profilesvc.ErrImageRequired, errStatus)
	}
	f, err := fh.Open()
	if err != nil {
		return fb.Fail(c, err, errStatus)
	}
	defer f.Close()

	url, err := service(c).UploadImage(c.UserContext(), fb.UI(), fh.Filename, fh.Size, f)
	if err != nil {
		return fb.Fail(c, err, errStatus)
	}
	h.record(c, fiber.Map{"avatar": url})
	return fb.OK(c, "Profile picture updated", fiber.Map{"url": url})
}

func (h *Handlers) record(c *fiber.Ctx, data interface{}) {
	u, ok := middleware.GetUser(c)
	if !ok {
		return
	}
	h.Activity.RecordQuietly(c.UserContext(), activity.Action{
		ActorID:    u.ID,
		ActorRole:  u.Role,
		Kind:       activity.KindProfileUpdated,
		EntityType: "user",
		EntityID:   u.ID,
		Data:       data,
	})
}
