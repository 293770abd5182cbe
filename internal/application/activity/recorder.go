// Package activity keeps the audit trail of console mutations.
package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"marketdesk/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	KindLeadAccepted    = "lead.accepted"
	KindLeadRejected    = "lead.rejected"
	KindSaleSold        = "sale.sold"
	KindSaleUnsold      = "sale.unsold"
	KindSaleUnmarked    = "sale.unmarked"
	KindListingToggled  = "listing.toggled"
	KindListingDeleted  = "listing.deleted"
	KindUserUpdated     = "user.updated"
	KindRoleChanged     = "user.role_changed"
	KindProductToggled  = "product.toggled"
	KindSupportResolved = "support.resolved"
	KindSupportDeleted  = "support.deleted"
	KindProfileUpdated  = "profile.updated"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

var ErrActorRequired = errors.New("Actor ID is required")

// Action is what happened, before it is stored.
type Action struct {
	ActorID    string
	ActorRole  string
	Kind       string
	EntityType string
	EntityID   string
	Data       interface{}
}

// Recorder writes and reads action events. A nil DB turns it into a no-op.
type Recorder struct {
	DB *gorm.DB
}

func (r *Recorder) Record(ctx context.Context, a Action) error {
	if r == nil || r.DB == nil {
		return nil
	}
	if a.ActorID == "" {
		return ErrActorRequired
	}
	data := []byte("{}")
	if a.Data != nil {
		b, err := json.Marshal(a.Data)
		if err != nil {
			return fmt.Errorf("activity data: %w", err)
		}
		data = b
	}
	ev := models.ActionEvent{
		ActorID:    a.ActorID,
		ActorRole:  a.ActorRole,
		Kind:       a.Kind,
		EntityType: a.EntityType,
		EntityID:   a.EntityID,
		Data:       datatypes.JSON(data),
	}
	if err := r.DB.WithContext(ctx).Create(&ev).Error; err != nil {
		return fmt.Errorf("record %s: %w", a.Kind, err)
	}
	return nil
}

// RecordQuietly logs instead of failing; the mutation it describes already happened.
func (r *Recorder) RecordQuietly(ctx context.Context, a Action) {
	if err := r.Record(ctx, a); err != nil {
		log.Warn().Err(err).Str("kind", a.Kind).Str("entity_id", a.EntityID).Msg("activity: could not record action")
	}
}

// Recent lists an actor's events, newest first.
func (r *Recorder) Recent(ctx context.Context, actorID string, limit int) ([]models.ActionEvent, error) {
	if actorID == "" {
		return nil, ErrActorRequired
	}
	if r == nil || r.DB == nil {
		return []models.ActionEvent{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	var events []models.ActionEvent
	err := r.DB.WithContext(ctx).
		Where("actor_id = ?", actorID).
		Order("event_id DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
