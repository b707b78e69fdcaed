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

func postRouter(db *gorm.DB, user *models.User) *gin.Engine {
	p := NewPostController(db)
	router := gin.New()
	router.Use(authAs(user))
	router.GET("/posts", p.ListPosts)
	router.GET("/posts/:id", p.GetPost)
	router.POST("/posts", p.CreatePost)
	router.PUT("/posts/:id", p.UpdatePost)
	router.DELETE("/posts/:id", p.DeletePost)
	router.GET("/posts/:id/replies", p.ListReplies)
	router.POST("/posts/:id/replies", p.CreateReply)
	router.DELETE("/posts/:id/replies/:replyId", p.DeleteReply)
	return router
}

func TestCreatePostIncrementsCategoryCounter(t *testing.T) {
	db := newTestDB(t)
	mustCreate(t, db, &models.ForumCategory{ID: 1, Name: "General"})
	author := testUser(1, "casey", "casey@example.com", models.RoleUser)
	router := postRouter(db, author)

	w := performJSON(t, router, http.MethodPost, "/posts", gin.H{
		"title":       "First patrol schedule",
		"content":     "Sign up below.",
		"category_id": 1,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var category models.ForumCategory
	require.NoError(t, db.First(&category, 1).Error)
	assert.Equal(t, 1, category.PostCount)

	var post models.ForumPost
	require.NoError(t, db.First(&post).Error)
	assert.Equal(t, author.ID, post.AuthorID)
	assert.Equal(t, author.Email, post.AuthorEmail)
}

func TestCreatePostUnknownCategory(t *testing.T) {
	db := newTestDB(t)
	author := testUser(1, "casey", "casey@example.com", models.RoleUser)
	router := postRouter(db, author)

	w := performJSON(t, router, http.MethodPost, "/posts", gin.H{
		"title":       "Orphan",
		"content":     "No board for this.",
		"category_id": 42,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPostIncrementsViews(t *testing.T) {
	db := newTestDB(t)
	post := seedPost(t, db)
	router := postRouter(db, testUser(1, "reader", "reader@example.com", models.RoleUser))

	for i := 0; i < 3; i++ {
		w := performJSON(t, router, http.MethodGet, "/posts/1", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	var updated models.ForumPost
	require.NoError(t, db.First(&updated, post.ID).Error)
	assert.Equal(t, 3, updated.Views)
}

func TestListPostsPinnedFirst(t *testing.T) {
	db := newTestDB(t)
	mustCreate(t, db, &models.ForumCategory{ID: 1, Name: "General"})
	mustCreate(t, db, &models.ForumPost{Title: "older plain", Content: "a", CategoryID: 1, AuthorID: 1})
	mustCreate(t, db, &models.ForumPost{Title: "newer plain", Content: "b", CategoryID: 1, AuthorID: 1})
	mustCreate(t, db, &models.ForumPost{Title: "pinned notice", Content: "c", CategoryID: 1, AuthorID: 1, IsPinned: true})
	router := postRouter(db, testUser(1, "reader", "reader@example.com", models.RoleUser))

	// Search avoids the list cache and still honors pinned-first ordering.
	w := performJSON(t, router, http.MethodGet, "/posts?search=n", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Items []models.ForumPost `json:"items"`
	}
	decodeData(t, w, &data)
	require.Len(t, data.Items, 3)
	assert.Equal(t, "pinned notice", data.Items[0].Title)
}

func TestCreateReplyOnLockedPostRejectedWithoutSideEffects(t *testing.T) {
	db := newTestDB(t)
	post := seedPost(t, db)
	require.NoError(t, db.Model(post).Update("is_locked", true).Error)
	replier := testUser(5, "riley", "riley@example.com", models.RoleUser)
	router := postRouter(db, replier)

	w := performJSON(t, router, http.MethodPost, "/posts/1/replies", gin.H{"content": "Can I still join?"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	var replies, notifications int64
	require.NoError(t, db.Model(&models.Reply{}).Count(&replies).Error)
	require.NoError(t, db.Model(&models.Notification{}).Count(&notifications).Error)
	assert.Zero(t, replies)
	assert.Zero(t, notifications)

	var fresh models.ForumPost
	require.NoError(t, db.First(&fresh, post.ID).Error)
	assert.Equal(t, 0, fresh.Replies)
}

func TestCreateReplyNotifiesPostAuthor(t *testing.T) {
	db := newTestDB(t)
	post := seedPost(t, db)
	replier := testUser(5, "riley", "riley@example.com", models.RoleUser)
	router := postRouter(db, replier)

	w := performJSON(t, router, http.MethodPost, "/posts/1/replies", gin.H{"content": "Count me in."})
	require.Equal(t, http.StatusOK, w.Code)

	var fresh models.ForumPost
	require.NoError(t, db.First(&fresh, post.ID).Error)
	assert.Equal(t, 1, fresh.Replies)

	var notifications []models.Notification
	require.NoError(t, db.Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, post.AuthorEmail, notifications[0].UserEmail)
	assert.Equal(t, models.NotifyReply, notifications[0].Type)
	assert.Equal(t, "/post?id=1", notifications[0].Link)
	assert.Equal(t, replier.Email, notifications[0].RelatedUserEmail)
}

func TestCreateReplySelfReplySkipsNotification(t *testing.T) {
	db := newTestDB(t)
	post := seedPost(t, db)
	author := testUser(post.AuthorID, "casey", post.AuthorEmail, models.RoleUser)
	router := postRouter(db, author)

	w := performJSON(t, router, http.MethodPost, "/posts/1/replies", gin.H{"content": "Bumping my own thread."})
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeletePostCascadesAndAudits(t *testing.T) {
	db := newTestDB(t)
	post := seedPost(t, db)
	require.NoError(t, db.Model(&models.ForumCategory{}).Where("id = ?", 1).
		Update("post_count", 1).Error)
	mustCreate(t, db, &models.Reply{PostID: post.ID, Content: "first", AuthorID: 9})
	mustCreate(t, db, &models.Reply{PostID: post.ID, Content: "second", AuthorID: 9})

	admin := testUser(1, "mod", "mod@example.com", models.RoleAdmin)
	router := postRouter(db, admin)

	w := performJSON(t, router, http.MethodDelete, "/posts/1", gin.H{"reason": "spam"})
	require.Equal(t, http.StatusOK, w.Code)

	var posts, replies int64
	require.NoError(t, db.Model(&models.ForumPost{}).Count(&posts).Error)
	require.NoError(t, db.Model(&models.Reply{}).Count(&replies).Error)
	assert.Zero(t, posts)
	assert.Zero(t, replies)

	var category models.ForumCategory
	require.NoError(t, db.First(&category, 1).Error)
	assert.Equal(t, 0, category.PostCount)

	var logs []models.ModerationLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, models.ActionDeletePost, logs[0].Action)
	assert.Equal(t, "spam", logs[0].Reason)
}

func TestDeletePostRejectsStranger(t *testing.T) {
	db := newTestDB(t)
	seedPost(t, db)
	stranger := testUser(8, "drew", "drew@example.com", models.RoleUser)
	router := postRouter(db, stranger)

	w := performJSON(t, router, http.MethodDelete, "/posts/1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.ForumPost{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDeleteReplyDecrementsCounter(t *testing.T) {
	db := newTestDB(t)
	post := seedPost(t, db)
	require.NoError(t, db.Model(post).Update("replies", 1).Error)
	reply := &models.Reply{PostID: post.ID, Content: "to be removed", AuthorID: 5, AuthorEmail: "riley@example.com"}
	mustCreate(t, db, reply)

	owner := testUser(5, "riley", "riley@example.com", models.RoleUser)
	router := postRouter(db, owner)

	w := performJSON(t, router, http.MethodDelete, "/posts/1/replies/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fresh models.ForumPost
	require.NoError(t, db.First(&fresh, post.ID).Error)
	assert.Equal(t, 0, fresh.Replies)

	var logs []models.ModerationLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, models.ActionDeleteReply, logs[0].Action)
}

func TestUpdatePostAuthorOnly(t *testing.T) {
	db := newTestDB(t)
	post := seedPost(t, db)
	stranger := testUser(8, "drew", "drew@example.com", models.RoleUser)
	router := postRouter(db, stranger)

	w := performJSON(t, router, http.MethodPut, "/posts/1", gin.H{
		"title":   "hijacked",
		"content": "nope",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	author := testUser(post.AuthorID, "casey", post.AuthorEmail, models.RoleUser)
	router = postRouter(db, author)
	w = performJSON(t, router, http.MethodPut, "/posts/1", gin.H{
		"title":   "Updated event time",
		"content": "Now an hour later.",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var fresh models.ForumPost
	require.NoError(t, db.First(&fresh, post.ID).Error)
	assert.Equal(t, "Updated event time", fresh.Title)
}
