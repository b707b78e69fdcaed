package models

import "time"

// Notification types.
const (
	NotifyReply        = "reply"
	NotifyMention      = "mention"
	NotifyQuote        = "quote"
	NotifyAnnouncement = "announcement"
)

// Notification is an in-app message for a user, created as a side effect of
// forum activity and polled by the client. Delivery is best-effort.
type Notification struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserEmail        string    `gorm:"size:255;not null;index" json:"user_email"`
	Type             string    `gorm:"size:16;not null" json:"type"`
	Title            string    `gorm:"size:255;not null" json:"title"`
	Message          string    `gorm:"size:512;not null" json:"message"`
	Link             string    `gorm:"size:512" json:"link"`
	IsRead           bool      `gorm:"default:false;index" json:"is_read"`
	RelatedPostID    string    `gorm:"size:64" json:"related_post_id"`
	RelatedUserEmail string    `gorm:"size:255" json:"related_user_email"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
}
