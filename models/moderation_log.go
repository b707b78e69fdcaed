package models

import "time"

// Moderation actions recorded in the audit trail.
const (
	ActionPin         = "pin"
	ActionUnpin       = "unpin"
	ActionLock        = "lock"
	ActionUnlock      = "unlock"
	ActionDeletePost  = "delete_post"
	ActionDeleteReply = "delete_reply"
	ActionEditPost    = "edit_post"
	ActionEditReply   = "edit_reply"
	ActionBanUser     = "ban_user"
	ActionUnbanUser   = "unban_user"
)

// Moderation target kinds.
const (
	TargetPost  = "post"
	TargetReply = "reply"
	TargetUser  = "user"
)

// ModerationLog is one row of the append-only audit trail. Rows are written
// in the same transaction as the mutation they describe and are never
// updated or deleted.
type ModerationLog struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ModeratorID    uint      `gorm:"index" json:"moderator_id"`
	ModeratorEmail string    `gorm:"size:255" json:"moderator_email"`
	ModeratorName  string    `gorm:"size:64" json:"moderator_name"`
	Action         string    `gorm:"size:32;not null;index" json:"action"`
	TargetType     string    `gorm:"size:16;not null" json:"target_type"`
	TargetID       string    `gorm:"size:64;not null;index" json:"target_id"`
	TargetTitle    string    `gorm:"size:255" json:"target_title"`
	Reason         string    `gorm:"size:512" json:"reason"`
	Details        string    `gorm:"type:text" json:"details"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}
