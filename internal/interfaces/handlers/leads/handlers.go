package leads

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"marketdesk/internal/application/activity"
	"marketdesk/internal/application/invoice"
	leadsvc "marketdesk/internal/application/leads"
	"marketdesk/internal/domain"
	"marketdesk/internal/middleware"
	"marketdesk/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers serve the seller lead board of the caller's workspace.
type Handlers struct {
	Activity *activity.Recorder
	Now      func() time.Time
}

var errStatus = map[error]int{
	leadsvc.ErrNoBusiness:        http.StatusBadRequest,
	leadsvc.ErrLeadNotFound:      http.StatusNotFound,
	leadsvc.ErrBusy:              http.StatusConflict,
	leadsvc.ErrMissingSaleID:     http.StatusConflict,
	leadsvc.ErrInvalidTotal:      http.StatusBadRequest,
	leadsvc.ErrInvalidQuantity:   http.StatusBadRequest,
	leadsvc.ErrPriceEntryForeign: http.StatusBadRequest,
	domain.ErrNotNegotiating:     http.StatusConflict,
	domain.ErrInvalidStatus:      http.StatusBadRequest,
	domain.ErrNotAccepted:        http.StatusConflict,
	domain.ErrNotResolvable:      http.StatusConflict,
	domain.ErrNoSale:             http.StatusConflict,
	invoice.ErrNotSold:           http.StatusConflict,
}

// List GET /seller/businesses/:businessId/leads. Query parameters are the
// filter panel; clear=1 resets it, refresh=1 refetches with the applied filter.
func (h *Handlers) List(c *fiber.Ctx) error {
	fb := middleware.GetFeedback(c)
	board := middleware.GetWorkspace(c).Leads()
	ctx := c.UserContext()

	var f domain.LeadFilter
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
	return fb.OK(c, "Leads fetched successfully", board.View())
}

// Toggle POST /seller/leads/:id/toggle expands or collapses a row.
func (h *Handlers) Toggle(c *fiber.Ctx) error {
	board := middleware.GetWorkspace(c).Leads()
	id := c.Params("id")
	if _, ok := board.Lead(id); !ok {
		return response.Error(c, leadsvc.ErrLeadNotFound.Error(), fiber.StatusNotFound, nil)
	}
	return response.Success(c, "OK", fiber.Map{"expanded": board.Toggle(id)}, nil)
}

func (h *Handlers) Accept(c *fiber.Ctx) error {
	fb := middleware.GetFeedback(c)
	id := c.Params("id")
	lead, err := middleware.GetWorkspace(c).Leads().Accept(c.UserContext(), fb.UI(), id)
	if err != nil {
		return fb.Fail(c, err, errStatus)
	}
	h.record(c, activity.KindLeadAccepted, id, nil)
	return fb.OK(c, "Lead accepted", lead)
}

func (h *Handlers) Reject(c *fiber.Ctx) error {
	fb := middleware.GetFeedback(c)
	id := c.Params("id")
	lead, err := middleware.GetWorkspace(c).Leads().Reject(c.UserContext(), fb.UI(), id)
	if err != nil {
		return fb.Fail(c, err, errStatus)
	}
	h.record(c, activity.KindLeadRejected, id, nil)
	return fb.OK(c, "Lead rejected", lead)
}

// PriceEntry GET /seller/leads/:id/price-entry returns the prefilled dialog.
func (h *Handlers) PriceEntry(c *fiber.Ctx) error {
	fb := middleware.GetFeedback(c)
	entry, err := middleware.GetWorkspace(c).Leads().OpenPriceEntry(c.Params("id"))
	if err != nil {
		return fb.Fail(c, err, errStatus)
	}
	return response.Success(c, "OK", fiber.Map{"entry": entry, "unitPrice": entry.UnitPrice()}, nil)
}

// MarkSoldRequest is what the seller typed into the price dialog.
type MarkSoldRequest struct {
	Quantity int     `json:"quantity"`
	Total    float64 `json:"total"`
}

// MarkSold POST /seller/leads/:id/mark-sold.
func (h *Handlers) MarkSold(c *fiber.Ctx) error {
	fb := middleware.GetFeedback(c)
	var req MarkSoldRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Quantity and total are required", fiber.StatusBadRequest, nil)
	}
	board := middleware.GetWorkspace(c).Leads()
	id := c.Params("id")
	entry, err := board.OpenPriceEntry(id)
	if err != nil {
		return fb.Fail(c, err, errStatus)
	}
	if req.Quantity != 0 {
		entry.SetQuantity(req.Quantity)
	}
	entry.SetTotal(req.Total)

	lead, err := board.MarkSold(c.UserContext(), fb.UI(), id, entry)
	if err != nil {
		return fb.Fail(c, err, errStatus)
	}
	h.record(c, activity.KindSaleSold, id, fiber.Map{
		"saleId":   lead.SaleID(),
		"price":    entry.UnitPrice(),
		"quantity": entry.Quantity,
	})
	return fb.OK(c, "Lead marked as sold", lead)
}

func (h *Handlers) MarkUnsold(c *fiber.Ctx) error {
	fb := middleware.GetFeedback(c)
	id := c.Params("id")
	lead, err := middleware.GetWorkspace(c).Leads().MarkUnsold(c.UserContext(), fb.UI(), id)
	if err != nil {
		return fb.Fail(c, err, errStatus)
	}
	h.record(c, activity.KindSaleUnsold, id, fiber.Map{"saleId": lead.SaleID()})
	return fb.OK(c, "Lead marked as unsold", lead)
}

func (h *Handlers) Unmark(c *fiber.Ctx) error {
	fb := middleware.GetFeedback(c)
	board := middleware.GetWorkspace(c).Leads()
	id := c.Params("id")
	var saleID string
	if l, ok := board.Lead(id); ok {
		saleID = l.SaleID()
	}
	lead, err := board.Unmark(c.UserContext(), fb.UI(), id)
	if err != nil {
		return fb.Fail(c, err, errStatus)
	}
	h.record(c, activity.KindSaleUnmarked, id, fiber.Map{"saleId": saleID})
	return fb.OK(c, "Sale unmarked", lead)
}

// Invoice GET /seller/leads/:id/invoice streams the PDF of a sold lead.
func (h *Handlers) Invoice(c *fiber.Ctx) error {
	fb := middleware.GetFeedback(c)
	lead, ok := middleware.GetWorkspace(c).Leads().Lead(c.Params("id"))
	if !ok {
		return fb.Fail(c, leadsvc.ErrLeadNotFound, errStatus)
	}
	seller, _ := middleware.GetUser(c)
	inv, err := invoice.FromLead(lead, seller.Name, h.now())
	if err != nil {
		return fb.Fail(c, err, errStatus)
	}
	var buf bytes.Buffer
	if err := invoice.Render(&buf, inv); err != nil {
		return fb.Fail(c, fmt.Errorf("render invoice %s: %w", inv.Number, err), errStatus)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", inv.FileName()))
	return c.Send(buf.Bytes())
}

func (h *Handlers) record(c *fiber.Ctx, kind, leadID string, data interface{}) {
	u, ok := middleware.GetUser(c)
	if !ok {
		return
	}
	h.Activity.RecordQuietly(c.UserContext(), activity.Action{
		ActorID:    u.ID,
		ActorRole:  u.Role,
		Kind:       kind,
		EntityType: "lead",
		EntityID:   leadID,
		Data:       data,
	})
}

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
