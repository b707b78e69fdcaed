package models

import "time"

// UploadedFile tracks avatar uploads on disk so the background cleaner can
// remove files that are no longer referenced by any profile.
type UploadedFile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	FilePath  string    `gorm:"size:512" json:"file_path"`
	URL       string    `gorm:"size:512" json:"url"`
	CreatedAt time.Time `json:"created_at"`
}
