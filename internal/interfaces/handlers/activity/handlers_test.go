package activity

import (
	"context"
	"net/http"
	"testing"

	activitysvc "marketdesk/internal/application/activity"
	"marketdesk/internal/domain"
	"marketdesk/internal/interfaces/handlers/handlertest"
	"marketdesk/internal/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecent_OnlyOwnActions(t *testing.T) {
	env := handlertest.New(t)
	rec := handlertest.Recorder(t)
	h := &Handlers{Recorder: rec}
	env.App.Get("/activity", middleware.RequireAuth(), h.Recent)

	ctx := context.Background()
	require.NoError(t, rec.Record(ctx, activitysvc.Action{ActorID: "u1", Kind: activitysvc.KindLeadAccepted, EntityType: "lead", EntityID: "l1"}))
	require.NoError(t, rec.Record(ctx, activitysvc.Action{ActorID: "u1", Kind: activitysvc.KindSaleSold, EntityType: "lead", EntityID: "l1"}))
	require.NoError(t, rec.Record(ctx, activitysvc.Action{ActorID: "u2", Kind: activitysvc.KindListingDeleted, EntityType: "listing", EntityID: "a1"}))
	env.SignIn("s1", domain.User{ID: "u1", Role: "seller"})

	resp := env.Do(t, handlertest.Request{Method: "GET", Path: "/activity?limit=1", Session: "s1"})
	require.Equal(t, http.StatusOK, resp.Status)
	rows, _ := resp.Body["data"].([]interface{})
	require.Len(t, rows, 1)
	assert.Equal(t, activitysvc.KindSaleSold, rows[0].(map[string]interface{})["kind"])
}
