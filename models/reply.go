package models

import "time"

// Reply is a response inside a thread.
type Reply struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PostID      uint      `gorm:"index;not null" json:"post_id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	AuthorID    uint      `gorm:"index;not null" json:"author_id"`
	AuthorName  string    `gorm:"size:64" json:"author_name"`
	AuthorEmail string    `gorm:"size:255" json:"author_email"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
