package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActionEvent is one console mutation, written after the marketplace API acknowledged it.
type ActionEvent struct {
	EventID    string         `gorm:"column:event_id;type:varchar(26);primaryKey" json:"event_id"`
	ActorID    string         `gorm:"column:actor_id;type:varchar(64);not null;index" json:"actor_id"`
	ActorRole  string         `gorm:"column:actor_role;type:varchar(20)" json:"actor_role"`
	Kind       string         `gorm:"column:kind;type:varchar(40);not null" json:"kind"`
	EntityType string         `gorm:"column:entity_type;type:varchar(30);not null" json:"entity_type"`
	EntityID   string         `gorm:"column:entity_id;type:varchar(64);not null" json:"entity_id"`
	Data       datatypes.JSON `gorm:"column:data" json:"data"`
	CreatedAt  time.Time      `json:"createdAt"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ActionEvent) TableName() string {
	return "ActionEvents"
}

// BeforeCreate assigns a time-ordered id.
func (e *ActionEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == "" {
		e.EventID = ulid.Make().String()
	}
	return nil
}
