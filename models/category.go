package models

import "time"

// ForumCategory groups posts on the discussion board. Only admins may manage
// categories; PostCount is a denormalized counter maintained by SQL-side
// increments on post create/delete.
type ForumCategory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:64;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	Icon        string    `gorm:"size:64" json:"icon"`
	SortOrder   int       `gorm:"default:0" json:"sort_order"`
	PostCount   int       `gorm:"default:0" json:"post_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
