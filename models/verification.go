package models

import "time"

// PhoneVerification is the single live one-time-code record for a phone
// number. A new send replaces any prior record; the code expires 30 minutes
// after CreatedAt.
type PhoneVerification struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	Phone     string    `gorm:"unique;not null" json:"phone"`
	Code      string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
