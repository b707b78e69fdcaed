package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/realwrld/forum/models"
	"github.com/realwrld/forum/utils"
)

// NotificationController serves a user's own notification feed. Every handler
// scopes its queries to the authenticated user's email, so one user can never
// read or mutate another's notifications.
type NotificationController struct {
	db *gorm.DB
}

// NewNotificationController creates a new NotificationController instance.
func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{db: db}
}

// ListNotifications returns the caller's notifications, newest first.
func (n *NotificationController) ListNotifications(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}

	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	var items []models.Notification
	var total int64
	query := n.db.Model(&models.Notification{}).Where("user_email = ?", user.Email)
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to count notifications")
		return
	}
	if err := query.Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to list notifications")
		return
	}

	utils.Success(ctx, gin.H{
		"items": items,
		"pagination": gin.H{
			"page":      page,
			"page_size": pageSize,
			"total":     total,
		},
	})
}

// UnreadCount returns the caller's unread notification count. Clients poll
// this endpoint, so it stays a single indexed COUNT.
func (n *NotificationController) UnreadCount(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40121, "unauthorized")
		return
	}

	var count int64
	if err := n.db.Model(&models.Notification{}).
		Where("user_email = ? AND is_read = ?", user.Email, false).
		Count(&count).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to count unread notifications")
		return
	}

	utils.Success(ctx, gin.H{"unread": count})
}

// MarkRead flags one of the caller's notifications as read.
func (n *NotificationController) MarkRead(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40122, "unauthorized")
		return
	}

	res := n.db.Model(&models.Notification{}).
		Where("id = ? AND user_email = ?", ctx.Param("id"), user.Email).
		Update("is_read", true)
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50053, "failed to mark notification read")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40420, "notification not found")
		return
	}

	utils.Success(ctx, gin.H{"message": "notification marked read"})
}

// MarkAllRead flags every currently unread notification of the caller as read
// in one UPDATE. Notifications arriving after the statement runs stay unread.
func (n *NotificationController) MarkAllRead(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40123, "unauthorized")
		return
	}

	res := n.db.Model(&models.Notification{}).
		Where("user_email = ? AND is_read = ?", user.Email, false).
		Update("is_read", true)
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50054, "failed to mark notifications read")
		return
	}

	utils.Success(ctx, gin.H{"updated": res.RowsAffected})
}

// DeleteNotification removes one of the caller's notifications.
func (n *NotificationController) DeleteNotification(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40124, "unauthorized")
		return
	}

	res := n.db.Where("id = ? AND user_email = ?", ctx.Param("id"), user.Email).
		Delete(&models.Notification{})
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50055, "failed to delete notification")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40421, "notification not found")
		return
	}

	utils.Success(ctx, gin.H{"message": "notification deleted"})
}
