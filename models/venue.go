package models

import "time"

// Venue is the tenant. Every scoped table carries venue_id.
type Venue struct {
	ID        string    `gorm:"primary_key;size:36" json:"id"`
	Name      string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	Address   string    `gorm:"type:text" json:"address"`
	Timezone  string    `gorm:"size:50" json:"timezone"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
