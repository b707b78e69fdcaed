package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/realwrld/forum/models"
	"github.com/realwrld/forum/utils"
)

// ModerationController handles pin/lock toggles and the audit trail. Every
// moderation mutation and its ModerationLog row commit in one transaction;
// a failed audit write rolls the mutation back.
type ModerationController struct {
	db *gorm.DB
}

// NewModerationController creates a new ModerationController instance.
func NewModerationController(db *gorm.DB) *ModerationController {
	return &ModerationController{db: db}
}

// recordModeration appends one audit entry inside the caller's transaction.
func recordModeration(tx *gorm.DB, moderator *models.User, action, targetType, targetID, targetTitle, reason string) error {
	details, _ := json.Marshal(gin.H{"timestamp": time.Now().UTC().Format(time.RFC3339)})
	entry := models.ModerationLog{
		ModeratorID:    moderator.ID,
		ModeratorEmail: moderator.Email,
		ModeratorName:  moderator.DisplayName(),
		Action:         action,
		TargetType:     targetType,
		TargetID:       targetID,
		TargetTitle:    targetTitle,
		Reason:         reason,
		Details:        string(details),
	}
	return tx.Create(&entry).Error
}

// TogglePin flips is_pinned on a post. The audit action is derived from the
// value before the flip: pinning logs "pin", unpinning logs "unpin".
func (m *ModerationController) TogglePin(ctx *gin.Context) {
	m.togglePostFlag(ctx, "is_pinned")
}

// ToggleLock flips is_locked on a post, logging "lock" or "unlock".
func (m *ModerationController) ToggleLock(ctx *gin.Context) {
	m.togglePostFlag(ctx, "is_locked")
}

func (m *ModerationController) togglePostFlag(ctx *gin.Context, column string) {
	user, ok := currentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if !user.IsAdmin() {
		utils.Error(ctx, http.StatusForbidden, 40310, "admin role required")
		return
	}

	postID := ctx.Param("id")
	var post models.ForumPost
	if err := m.db.First(&post, postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40430, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load post")
		return
	}

	var action string
	var newValue bool
	switch column {
	case "is_pinned":
		newValue = !post.IsPinned
		if post.IsPinned {
			action = models.ActionUnpin
		} else {
			action = models.ActionPin
		}
	case "is_locked":
		newValue = !post.IsLocked
		if post.IsLocked {
			action = models.ActionUnlock
		} else {
			action = models.ActionLock
		}
	}

	err := m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ForumPost{}).Where("id = ?", post.ID).
			Update(column, newValue).Error; err != nil {
			return err
		}
		return recordModeration(tx, user, action, models.TargetPost,
			strconv.Itoa(int(post.ID)), post.Title, "")
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to apply moderation action")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")

	switch column {
	case "is_pinned":
		post.IsPinned = newValue
	case "is_locked":
		post.IsLocked = newValue
	}
	utils.Success(ctx, gin.H{"post": post, "action": action})
}

// ListLogs returns the most recent audit entries, newest first.
func (m *ModerationController) ListLogs(ctx *gin.Context) {
	limit := 100
	if v := ctx.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	var logs []models.ModerationLog
	if err := m.db.Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to list moderation logs")
		return
	}
	utils.Success(ctx, gin.H{"items": logs})
}
