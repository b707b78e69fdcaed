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

func moderationRouter(db *gorm.DB, user *models.User) *gin.Engine {
	m := NewModerationController(db)
	router := gin.New()
	router.Use(authAs(user))
	router.POST("/posts/:id/pin", m.TogglePin)
	router.POST("/posts/:id/lock", m.ToggleLock)
	router.GET("/moderation/logs", m.ListLogs)
	return router
}

func seedPost(t *testing.T, db *gorm.DB) *models.ForumPost {
	t.Helper()
	mustCreate(t, db, &models.ForumCategory{ID: 1, Name: "General"})
	post := &models.ForumPost{
		Title:       "Server event this weekend",
		Content:     "Meet at the docks.",
		CategoryID:  1,
		AuthorID:    2,
		AuthorName:  "casey",
		AuthorEmail: "casey@example.com",
	}
	mustCreate(t, db, post)
	return post
}

func TestTogglePinWritesAuditEntry(t *testing.T) {
	db := newTestDB(t)
	post := seedPost(t, db)
	admin := testUser(1, "mod", "mod@example.com", models.RoleAdmin)
	router := moderationRouter(db, admin)

	w := performJSON(t, router, http.MethodPost, "/posts/1/pin", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.ForumPost
	require.NoError(t, db.First(&updated, post.ID).Error)
	assert.True(t, updated.IsPinned)

	var logs []models.ModerationLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, models.ActionPin, logs[0].Action)
	assert.Equal(t, models.TargetPost, logs[0].TargetType)
	assert.Equal(t, "1", logs[0].TargetID)
	assert.Equal(t, post.Title, logs[0].TargetTitle)
	assert.Equal(t, admin.Email, logs[0].ModeratorEmail)
}

func TestToggleLockTwiceRestoresStateAndKeepsBothEntries(t *testing.T) {
	db := newTestDB(t)
	seedPost(t, db)
	admin := testUser(1, "mod", "mod@example.com", models.RoleAdmin)
	router := moderationRouter(db, admin)

	w := performJSON(t, router, http.MethodPost, "/posts/1/lock", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = performJSON(t, router, http.MethodPost, "/posts/1/lock", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var post models.ForumPost
	require.NoError(t, db.First(&post, 1).Error)
	assert.False(t, post.IsLocked)

	var logs []models.ModerationLog
	require.NoError(t, db.Order("id ASC").Find(&logs).Error)
	require.Len(t, logs, 2)
	assert.Equal(t, models.ActionLock, logs[0].Action)
	assert.Equal(t, models.ActionUnlock, logs[1].Action)
}

func TestTogglePinRejectsNonAdmin(t *testing.T) {
	db := newTestDB(t)
	seedPost(t, db)
	member := testUser(3, "casey", "casey@example.com", models.RoleUser)
	router := moderationRouter(db, member)

	w := performJSON(t, router, http.MethodPost, "/posts/1/pin", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.ModerationLog{}).Count(&count).Error)
	assert.Zero(t, count)

	var post models.ForumPost
	require.NoError(t, db.First(&post, 1).Error)
	assert.False(t, post.IsPinned)
}

func TestTogglePinUnknownPost(t *testing.T) {
	db := newTestDB(t)
	admin := testUser(1, "mod", "mod@example.com", models.RoleAdmin)
	router := moderationRouter(db, admin)

	w := performJSON(t, router, http.MethodPost, "/posts/999/pin", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListLogsNewestFirst(t *testing.T) {
	db := newTestDB(t)
	seedPost(t, db)
	admin := testUser(1, "mod", "mod@example.com", models.RoleAdmin)
	router := moderationRouter(db, admin)

	performJSON(t, router, http.MethodPost, "/posts/1/pin", nil)
	performJSON(t, router, http.MethodPost, "/posts/1/lock", nil)

	w := performJSON(t, router, http.MethodGet, "/moderation/logs", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Items []models.ModerationLog `json:"items"`
	}
	decodeData(t, w, &data)
	require.Len(t, data.Items, 2)
	assert.Equal(t, models.ActionLock, data.Items[0].Action)
	assert.Equal(t, models.ActionPin, data.Items[1].Action)
}
