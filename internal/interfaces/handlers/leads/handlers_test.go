package leads

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"marketdesk/internal/application/activity"
	"marketdesk/internal/domain"
	"marketdesk/internal/interfaces/handlers/handlertest"
	"marketdesk/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upstream struct {
	mu       sync.Mutex
	statuses []string
	sales    []map[string]interface{}
	deleted  []string
}

func setupLeads(t *testing.T) (*handlertest.Env, *upstream, *activity.Recorder) {
	env := handlertest.New(t)
	rec := handlertest.Recorder(t)
	h := &Handlers{Activity: rec, Now: func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }}

	seller := env.App.Group("/seller", middleware.RequireRole("seller"))
	seller.Get("/businesses/:businessId/leads", h.List)
	seller.Post("/leads/:id/toggle", h.Toggle)
	seller.Post("/leads/:id/accept", h.Accept)
	seller.Post("/leads/:id/reject", h.Reject)
	seller.Get("/leads/:id/price-entry", h.PriceEntry)
	seller.Post("/leads/:id/mark-sold", h.MarkSold)
	seller.Post("/leads/:id/mark-unsold", h.MarkUnsold)
	seller.Post("/leads/:id/unmark", h.Unmark)
	seller.Get("/leads/:id/invoice", h.Invoice)

	up := &upstream{}
	env.Upstream.HandleFunc("/api/interests/business/b1", func(w http.ResponseWriter, r *http.Request) {
		rows := []map[string]interface{}{
			{"_id": "l1", "status": "negotiating", "quantity": 2, "price": 50, "createdAt": "2026-02-01T00:00:00Z",
				"buyer": map[string]string{"_id": "u7", "name": "Bea"}, "asset": map[string]interface{}{"_id": "a1", "title": "Teak chair", "price": 55}},
			{"_id": "l2", "status": "accepted", "quantity": 3, "price": 40, "createdAt": "2026-02-03T00:00:00Z",
				"buyer": map[string]string{"_id": "u8", "name": "Cal"}, "asset": map[string]interface{}{"_id": "a2", "title": "Oak desk"}},
		}
		if r.URL.Query().Get("status") == "accepted" {
			rows = rows[1:]
		}
		handlertest.JSON(w, http.StatusOK, rows)
	})
	env.Upstream.HandleFunc("/api/interests/l1/status", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		up.mu.Lock()
		up.statuses = append(up.statuses, body["status"])
		up.mu.Unlock()
		handlertest.JSON(w, http.StatusOK, map[string]interface{}{"_id": "l1", "status": body["status"], "buyer": "u7", "asset": "a1"})
	})
	env.Upstream.HandleFunc("/api/sales", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		up.mu.Lock()
		up.sales = append(up.sales, body)
		up.mu.Unlock()
		handlertest.JSON(w, http.StatusCreated, map[string]interface{}{"_id": "sale-1", "status": body["status"]})
	})
	env.Upstream.HandleFunc("/api/sales/sale-1", func(w http.ResponseWriter, r *http.Request) {
		up.mu.Lock()
		up.deleted = append(up.deleted, "sale-1")
		up.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	env.SignIn("s1", domain.User{ID: "seller-1", Name: "Sam Seller", Role: "seller"})
	return env, up, rec
}

func load(t *testing.T, env *handlertest.Env) handlertest.Response {
	t.Helper()
	resp := env.Do(t, handlertest.Request{Method: "GET", Path: "/seller/businesses/b1/leads", Session: "s1"})
	require.Equal(t, http.StatusOK, resp.Status)
	return resp
}

func leadIDs(resp handlertest.Response) []string {
	rows, _ := resp.Data()["leads"].([]interface{})
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		m, _ := r.(map[string]interface{})
		id, _ := m["_id"].(string)
		out = append(out, id)
	}
	return out
}

func TestList_RequiresSeller(t *testing.T) {
	env, _, _ := setupLeads(t)
	env.SignIn("buyer", domain.User{ID: "b-1", Role: "buyer"})

	resp := env.Do(t, handlertest.Request{Method: "GET", Path: "/seller/businesses/b1/leads", Session: "buyer"})
	assert.Equal(t, http.StatusForbidden, resp.Status)
	assert.Equal(t, "/", resp.Details()["redirect"])
}

func TestList_NewestFirstThenFilterAndClear(t *testing.T) {
	env, _, _ := setupLeads(t)
	assert.Equal(t, []string{"l2", "l1"}, leadIDs(load(t, env)))

	filtered := env.Do(t, handlertest.Request{Method: "GET", Path: "/seller/businesses/b1/leads?status=accepted", Session: "s1"})
	require.Equal(t, http.StatusOK, filtered.Status)
	assert.Equal(t, []string{"l2"}, leadIDs(filtered))

	cleared := env.Do(t, handlertest.Request{Method: "GET", Path: "/seller/businesses/b1/leads?clear=1", Session: "s1"})
	require.Equal(t, http.StatusOK, cleared.Status)
	assert.Equal(t, []string{"l2", "l1"}, leadIDs(cleared))
}

func TestAccept_AsksForConfirmationFirst(t *testing.T) {
	env, up, rec := setupLeads(t)
	load(t, env)

	resp := env.Do(t, handlertest.Request{Method: "POST", Path: "/seller/leads/l1/accept", Session: "s1"})
	require.Equal(t, http.StatusConflict, resp.Status)
	prompt, _ := resp.Details()["prompt"].(map[string]interface{})
	require.NotNil(t, prompt)
	assert.Empty(t, up.statuses)

	resp = env.Do(t, handlertest.Request{Method: "POST", Path: "/seller/leads/l1/accept", Session: "s1", Confirm: true})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "accepted", resp.Data()["status"])
	asset, _ := resp.Data()["asset"].(map[string]interface{})
	assert.Equal(t, "Teak chair", asset["title"], "populated asset survives an unpopulated response")
	assert.Equal(t, []string{"accepted"}, up.statuses)

	meta, _ := resp.Body["metadata"].(map[string]interface{})
	toasts, _ := meta["toasts"].([]interface{})
	assert.Len(t, toasts, 1)

	events, err := rec.Recent(context.Background(), "seller-1", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, activity.KindLeadAccepted, events[0].Kind)
}

func TestActionOnUnknownLead(t *testing.T) {
	env, _, _ := setupLeads(t)
	resp := env.Do(t, handlertest.Request{Method: "POST", Path: "/seller/leads/l1/accept", Session: "s1", Confirm: true})
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestMarkSold_OnlyAfterAccept(t *testing.T) {
	env, up, _ := setupLeads(t)
	load(t, env)

	resp := env.Do(t, handlertest.Request{Method: "POST", Path: "/seller/leads/l1/mark-sold", Session: "s1", Confirm: true,
		Body: fiber.Map{"quantity": 2, "total": 90}})
	assert.Equal(t, http.StatusConflict, resp.Status)
	assert.Empty(t, up.sales)
}

func TestPriceEntryMarkSoldInvoiceUnmark(t *testing.T) {
	env, up, _ := setupLeads(t)
	load(t, env)

	entry := env.Do(t, handlertest.Request{Method: "GET", Path: "/seller/leads/l2/price-entry", Session: "s1"})
	require.Equal(t, http.StatusOK, entry.Status)
	e, _ := entry.Data()["entry"].(map[string]interface{})
	assert.Equal(t, float64(3), e["quantity"])
	assert.Equal(t, float64(120), e["total"])

	sold := env.Do(t, handlertest.Request{Method: "POST", Path: "/seller/leads/l2/mark-sold", Session: "s1", Confirm: true,
		Body: fiber.Map{"quantity": 2, "total": 90}})
	require.Equal(t, http.StatusOK, sold.Status)
	assert.Equal(t, "sold", sold.Data()["salesStatus"])
	require.Len(t, up.sales, 1)
	assert.Equal(t, float64(45), up.sales[0]["price"])
	assert.Equal(t, float64(2), up.sales[0]["quantity"])

	pdf := env.Do(t, handlertest.Request{Method: "GET", Path: "/seller/leads/l2/invoice", Session: "s1"})
	require.Equal(t, http.StatusOK, pdf.Status)
	assert.Equal(t, "application/pdf", pdf.Header.Get("Content-Type"))
	assert.Contains(t, pdf.Header.Get("Content-Disposition"), "attachment")
	assert.Equal(t, "%PDF", string(pdf.Raw[:4]))

	unmarked := env.Do(t, handlertest.Request{Method: "POST", Path: "/seller/leads/l2/unmark", Session: "s1", Confirm: true})
	require.Equal(t, http.StatusOK, unmarked.Status)
	assert.Equal(t, []string{"sale-1"}, up.deleted)
	assert.Equal(t, "accepted", unmarked.Data()["status"])
}

func TestInvoice_UnsoldLeadIsRefused(t *testing.T) {
	env, _, _ := setupLeads(t)
	load(t, env)
	resp := env.Do(t, handlertest.Request{Method: "GET", Path: "/seller/leads/l2/invoice", Session: "s1"})
	assert.Equal(t, http.StatusConflict, resp.Status)
}

func TestToggle_ExpandsOneRowAtATime(t *testing.T) {
	env, _, _ := setupLeads(t)
	load(t, env)

	resp := env.Do(t, handlertest.Request{Method: "POST", Path: "/seller/leads/l1/toggle", Session: "s1"})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "l1", resp.Data()["expanded"])

	resp = env.Do(t, handlertest.Request{Method: "POST", Path: "/seller/leads/l2/toggle", Session: "s1"})
	assert.Equal(t, "l2", resp.Data()["expanded"])
}

func TestBoardsKeepTheirOwnIDsAcrossSessions(t *testing.T) {
	env, _, _ := setupLeads(t)
	env.Upstream.HandleFunc("/api/interests/business/b2", func(w http.ResponseWriter, r *http.Request) {
		handlertest.JSON(w, http.StatusOK, []interface{}{})
	})
	env.SignIn("s2", domain.User{ID: "seller-2", Role: "seller"})

	load(t, env)
	resp := env.Do(t, handlertest.Request{Method: "POST", Path: "/seller/leads/l1/toggle", Session: "s1"})
	require.Equal(t, http.StatusOK, resp.Status)
	other := env.Do(t, handlertest.Request{Method: "GET", Path: "/seller/businesses/b2/leads", Session: "s2"})
	require.Equal(t, http.StatusOK, other.Status)

	ws, ok := env.Registry.Lookup("s1")
	require.True(t, ok)
	view := ws.Leads().View()
	assert.Equal(t, "b1", view.BusinessID)
	assert.Equal(t, "l1", view.Expanded)
	assert.Len(t, view.Leads, 2)
}
