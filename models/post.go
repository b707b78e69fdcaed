package models

import "time"

// ForumPost is a discussion thread. Author identity is denormalized at write
// time so a thread survives profile changes intact. Views and Replies are
// counters updated with atomic SQL increments, never read-modify-write.
type ForumPost struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	CategoryID  uint      `gorm:"index;not null" json:"category_id"`
	AuthorID    uint      `gorm:"index;not null" json:"author_id"`
	AuthorName  string    `gorm:"size:64" json:"author_name"`
	AuthorEmail string    `gorm:"size:255;index" json:"author_email"`
	Views       int       `gorm:"default:0" json:"views"`
	Replies     int       `gorm:"default:0" json:"replies"`
	IsPinned    bool      `gorm:"default:false" json:"is_pinned"`
	IsLocked    bool      `gorm:"default:false" json:"is_locked"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
