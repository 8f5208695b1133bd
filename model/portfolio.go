package model

import (
	"time"

	"gorm.io/datatypes"
)

// Portfolio holds the one editable portfolio content record rendered by the
// front end. The payload is opaque to the backend.
type Portfolio struct {
	ID        uint           `gorm:"primaryKey"`
	Content   datatypes.JSON `gorm:"type:json;not null"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (Portfolio) TableName() string {
	return "portfolio"
}
