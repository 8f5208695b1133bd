package model

import "time"

type ContactMessage struct {
	ID        uint64    `gorm:"primaryKey"`
	Reference string    `gorm:"size:36;not null;uniqueIndex"` // correlation id returned to the sender
	Name      string    `gorm:"size:100;not null"`
	Email     string    `gorm:"size:254;not null"`
	Message   string    `gorm:"size:5000;not null"`
	IP        string    `gorm:"size:45;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

func (ContactMessage) TableName() string {
	return "contact_message"
}
