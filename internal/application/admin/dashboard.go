package admin

import (
	"context"

	"marketdesk/internal/application/feedback"
	"marketdesk/internal/application/mount"
	"marketdesk/internal/domain"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Dashboard loads the admin counters and the activity feed side by side.
type Dashboard struct {
	api  DashboardAPI
	life *mount.Lifetime
}

func NewDashboard(api DashboardAPI) *Dashboard {
	return &Dashboard{api: api, life: mount.New()}
}

// Unmount cancels a load in flight.
func (d *Dashboard) Unmount() {
	d.life.Close()
}

type DashboardView struct {
	Stats    *domain.AdminStats     `json:"stats"`
	Activity []domain.ActivityEntry `json:"activity"`
	Errors   []string               `json:"errors,omitempty"`
}

// Load never fails as a whole: a half that could not be fetched stays empty
// and is reported. After Unmount it returns an empty view and reports nothing.
func (d *Dashboard) Load(ctx context.Context, ui feedback.UI) DashboardView {
	if d.life.Closed() {
		return DashboardView{Activity: []domain.ActivityEntry{}}
	}
	ctx, cancel := d.life.Scope(ctx)
	defer cancel()
	var (
		view     DashboardView
		statsErr error
		feedErr  error
		g        errgroup.Group
	)
	g.Go(func() error {
		view.Stats, statsErr = d.api.AdminStats(ctx)
		return nil
	})
	g.Go(func() error {
		view.Activity, feedErr = d.api.AdminActivity(ctx)
		return nil
	})
	_ = g.Wait()
	if d.life.Closed() {
		return DashboardView{Activity: []domain.ActivityEntry{}}
	}

	if statsErr != nil {
		log.Warn().Err(statsErr).Msg("admin dashboard: stats")
		view.Stats = nil
		view.Errors = append(view.Errors, "Failed to load stats")
	}
	if feedErr != nil {
		log.Warn().Err(feedErr).Msg("admin dashboard: activity")
		view.Activity = nil
		view.Errors = append(view.Errors, "Failed to load activity")
	}
	if view.Activity == nil {
		view.Activity = []domain.ActivityEntry{}
	}
	for _, msg := range view.Errors {
		feedback.Failed(ui, msg)
	}
	return view
}
