package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/realwrld/forum/models"
)

func notificationRouter(db *gorm.DB, user *models.User) *gin.Engine {
	n := NewNotificationController(db)
	router := gin.New()
	router.Use(authAs(user))
	router.GET("/notifications", n.ListNotifications)
	router.GET("/notifications/unread-count", n.UnreadCount)
	router.PATCH("/notifications/:id/read", n.MarkRead)
	router.POST("/notifications/read-all", n.MarkAllRead)
	router.DELETE("/notifications/:id", n.DeleteNotification)
	return router
}

func seedNotification(t *testing.T, db *gorm.DB, email string, read bool) *models.Notification {
	t.Helper()
	n := &models.Notification{
		UserEmail: email,
		Type:      models.NotifyReply,
		Title:     "New reply to your post",
		Message:   "someone replied",
		IsRead:    read,
	}
	mustCreate(t, db, n)
	return n
}

func TestUnreadCountOnlyCountsOwnUnread(t *testing.T) {
	db := newTestDB(t)
	seedNotification(t, db, "casey@example.com", false)
	seedNotification(t, db, "casey@example.com", true)
	seedNotification(t, db, "riley@example.com", false)

	router := notificationRouter(db, testUser(1, "casey", "casey@example.com", models.RoleUser))
	w := performJSON(t, router, http.MethodGet, "/notifications/unread-count", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Unread int64 `json:"unread"`
	}
	decodeData(t, w, &data)
	assert.Equal(t, int64(1), data.Unread)
}

func TestMarkReadRejectsForeignNotification(t *testing.T) {
	db := newTestDB(t)
	n := seedNotification(t, db, "riley@example.com", false)

	router := notificationRouter(db, testUser(1, "casey", "casey@example.com", models.RoleUser))
	w := performJSON(t, router, http.MethodPatch, "/notifications/1/read", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var fresh models.Notification
	require.NoError(t, db.First(&fresh, n.ID).Error)
	assert.False(t, fresh.IsRead)
}

func TestMarkAllReadOnlyTouchesCurrentUnread(t *testing.T) {
	db := newTestDB(t)
	seedNotification(t, db, "casey@example.com", false)
	seedNotification(t, db, "casey@example.com", false)
	other := seedNotification(t, db, "riley@example.com", false)

	router := notificationRouter(db, testUser(1, "casey", "casey@example.com", models.RoleUser))
	w := performJSON(t, router, http.MethodPost, "/notifications/read-all", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Updated int64 `json:"updated"`
	}
	decodeData(t, w, &data)
	assert.Equal(t, int64(2), data.Updated)

	var unread int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("user_email = ? AND is_read = ?", "casey@example.com", false).
		Count(&unread).Error)
	assert.Zero(t, unread)

	// Another user's feed is untouched.
	var fresh models.Notification
	require.NoError(t, db.First(&fresh, other.ID).Error)
	assert.False(t, fresh.IsRead)
}

func TestDeleteNotificationScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	seedNotification(t, db, "casey@example.com", false)
	foreign := seedNotification(t, db, "riley@example.com", false)

	router := notificationRouter(db, testUser(1, "casey", "casey@example.com", models.RoleUser))

	w := performJSON(t, router, http.MethodDelete, "/notifications/2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performJSON(t, router, http.MethodDelete, "/notifications/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var remaining models.Notification
	require.NoError(t, db.First(&remaining).Error)
	assert.Equal(t, foreign.ID, remaining.ID)
}

func TestListNotificationsNewestFirst(t *testing.T) {
	db := newTestDB(t)
	seedNotification(t, db, "casey@example.com", true)
	second := seedNotification(t, db, "casey@example.com", false)

	router := notificationRouter(db, testUser(1, "casey", "casey@example.com", models.RoleUser))
	w := performJSON(t, router, http.MethodGet, "/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Items []models.Notification `json:"items"`
	}
	decodeData(t, w, &data)
	require.Len(t, data.Items, 2)
	assert.Equal(t, second.ID, data.Items[0].ID)
}
