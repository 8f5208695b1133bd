package model

import "time"

// AdminCredential is the single credential record gating the admin UI.
// Exactly one row exists at a time; rotation replaces it in place.
type AdminCredential struct {
	ID         uint      `gorm:"primaryKey"`
	SecretHash string    `gorm:"size:128;not null"` // bcrypt hash, never the plaintext
	TOTPSecret string    `gorm:"size:128"`          // base32 TOTP secret, empty if not enrolled
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (AdminCredential) TableName() string {
	return "admin_credential"
}
