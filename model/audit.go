package model

import (
	"time"

	"gorm.io/datatypes"
)

type AuditEntry struct {
	ID         uint64         `gorm:"primaryKey;autoIncrement"`
	Action     string         `gorm:"size:64;not null;index"`  // auth_success, auth_failed...
	Resource   string         `gorm:"size:64;not null;index"`  // admin_session, admin_settings, portfolio...
	ResourceID string         `gorm:"size:64"`                 // (optional)
	Actor      string         `gorm:"size:64;not null"`        // masked actor identifier, never a raw secret
	IP         string         `gorm:"size:45;not null"`        // IPv4/IPv6
	UserAgent  string         `gorm:"size:512"`                // user agent string
	Changes    datatypes.JSON `gorm:"type:json"`               // action-specific payload
	CreatedAt  time.Time      `gorm:"autoCreateTime;index"`
}

func (AuditEntry) TableName() string {
	return "audit"
}
