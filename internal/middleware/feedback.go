package middleware

import (
	"context"
	"errors"
	"net/http"

	"marketdesk/internal/application/feedback"
	"marketdesk/internal/application/mount"
	"marketdesk/internal/infrastructure/marketapi"
	"marketdesk/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ConfirmHeader carries the user's answer to a confirmation prompt.
const ConfirmHeader = "X-Confirm"

const feedbackLocal = "feedback"

// RequestFeedback is the dialog and toast surface of one request.
type RequestFeedback struct {
	Confirmer *feedback.RequestConfirmer
	Toasts    *feedback.Collector
}

// UI is what view model actions take.
func (f *RequestFeedback) UI() feedback.UI {
	return feedback.UI{
		Confirmer: f.Confirmer,
		Notifier:  feedback.Multi{f.Toasts, feedback.LogNotifier{}},
	}
}

// Feedback gives every request its own confirmer and toast collector.
func Feedback() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(feedbackLocal, newFeedback(c))
		return c.Next()
	}
}

func newFeedback(c *fiber.Ctx) *RequestFeedback {
	return &RequestFeedback{
		Confirmer: &feedback.RequestConfirmer{Confirmed: c.Get(ConfirmHeader) == "true"},
		Toasts:    &feedback.Collector{},
	}
}

// GetFeedback returns the request's feedback, creating one if Feedback did not run.
func GetFeedback(c *fiber.Ctx) *RequestFeedback {
	if f, ok := c.Locals(feedbackLocal).(*RequestFeedback); ok {
		return f
	}
	f := newFeedback(c)
	c.Locals(feedbackLocal, f)
	return f
}

// OK answers with data and the toasts raised while producing it.
func (f *RequestFeedback) OK(c *fiber.Ctx, message string, data interface{}) error {
	return response.Success(c, message, data, response.Toasts(f.Toasts.Toasts()))
}

// Fail answers a failed action. A declined confirmation becomes 409 with the
// prompt to show. Errors found in table get its status and their own message;
// upstream errors keep a 4xx status and turn 5xx into 502.
func (f *RequestFeedback) Fail(c *fiber.Ctx, err error, table map[error]int) error {
	if errors.Is(err, feedback.ErrDeclined) {
		if p := f.Confirmer.Pending(); p != nil {
			return response.ConfirmationRequired(c, p)
		}
	}
	status, message := Classify(err, table)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("trace_id", GetTraceID(c)).Str("path", c.Path()).Msg("console action failed")
	}
	return response.Error(c, message, status, response.Toasts(f.Toasts.Toasts()))
}

// Classify maps an error to a status code and a user-facing message.
func Classify(err error, table map[error]int) (int, string) {
	for target, status := range table {
		if errors.Is(err, target) {
			return status, target.Error()
		}
	}
	var apiErr *marketapi.APIError
	switch {
	case errors.As(err, &apiErr):
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return apiErr.Status, apiErr.Message
		}
		return http.StatusBadGateway, apiErr.Message
	case errors.Is(err, feedback.ErrDeclined):
		return http.StatusConflict, feedback.ErrDeclined.Error()
	case errors.Is(err, mount.ErrUnmounted):
		return http.StatusConflict, mount.ErrUnmounted.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Upstream request timed out"
	}
	return http.StatusInternalServerError, "Internal Server Error"
}
