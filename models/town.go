package models

import "time"

// Town is an address-keyed reference row, created on demand the first time a
// user registers with its address.
type Town struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Address   string    `gorm:"unique;not null" json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
