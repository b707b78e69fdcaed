package utils

import (
	"os"
	"time"

	"github.com/realwrld/forum/config"
	"github.com/realwrld/forum/models"
)

// StartAvatarCleaner launches a background goroutine that periodically removes
// uploaded avatar files no longer referenced by any user profile. Best-effort;
// failures are logged and retried on the next sweep.
func StartAvatarCleaner(interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	go func() {
		for {
			// Sleep first to avoid racing immediately at startup
			time.Sleep(interval)
			db := config.DB()
			if db == nil {
				continue
			}
			var items []models.UploadedFile
			// Grace period of one hour so an in-flight profile save is not swept.
			cutoff := time.Now().Add(-time.Hour)
			sub := db.Model(&models.User{}).Select("avatar_url").Where("avatar_url <> ''")
			if err := db.Where("created_at < ? AND url NOT IN (?)", cutoff, sub).Limit(100).Find(&items).Error; err != nil {
				if Sugar != nil {
					Sugar.Warnf("avatar cleaner query failed: %v", err)
				}
				continue
			}
			for _, it := range items {
				if it.FilePath != "" {
					_ = os.Remove(it.FilePath)
				}
				// Remove row regardless of file deletion outcome
				if err := db.Delete(&models.UploadedFile{}, it.ID).Error; err != nil && Sugar != nil {
					Sugar.Warnf("avatar cleaner delete row failed: %v", err)
				}
			}
		}
	}()
}
