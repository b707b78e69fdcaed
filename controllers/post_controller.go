package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/realwrld/forum/models"
	"github.com/realwrld/forum/utils"
)

// PostController manages forum posts and their replies.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

// CreatePost allows authenticated users to open new threads.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Title      string `json:"title" binding:"required,min=1"`
		Content    string `json:"content" binding:"required"`
		CategoryID uint   `json:"category_id" binding:"required"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
		return
	}
	content := utils.Sanitize(req.Content)
	if strings.TrimSpace(content) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40022, "content cannot be empty")
		return
	}

	var category models.ForumCategory
	if err := p.db.First(&category, req.CategoryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusBadRequest, 40023, "unknown category")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to load category")
		return
	}

	user, ok := currentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	post := models.ForumPost{
		Title:       title,
		Content:     content,
		CategoryID:  category.ID,
		AuthorID:    user.ID,
		AuthorName:  user.DisplayName(),
		AuthorEmail: user.Email,
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		return tx.Model(&models.ForumCategory{}).Where("id = ?", category.ID).
			Update("post_count", gorm.Expr("post_count + ?", 1)).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to create post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.InvalidateByPrefix("cache:categories")

	utils.Success(ctx, gin.H{"post": post})
}

// ListPosts returns paginated posts, pinned threads first, newest after.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	search := strings.TrimSpace(ctx.Query("search"))
	categoryID := strings.TrimSpace(ctx.Query("category_id"))

	// Cache board/category lists when no search term to avoid cache key explosion
	cacheKey := fmt.Sprintf("cache:posts:list:cat=%s:page=%d:size=%d", categoryID, page, pageSize)
	if search == "" {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(200, "application/json", b)
			return
		}
	}

	var posts []models.ForumPost
	var total int64

	query := p.db.Model(&models.ForumPost{}).Order("is_pinned DESC, created_at DESC")
	if search != "" {
		query = query.Where("title LIKE ? OR content LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to count posts")
		return
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to list posts")
		return
	}

	payload := gin.H{
		"items": posts,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
	if search == "" {
		utils.CacheSetJSON(cacheKey, envelope(payload), time.Hour)
	}
	utils.Success(ctx, payload)
}

// GetPost returns a single thread and bumps its view counter with a SQL-side
// increment, so concurrent readers never lose updates.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID := ctx.Param("id")

	res := p.db.Model(&models.ForumPost{}).Where("id = ?", postID).
		Update("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load post")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}

	var post models.ForumPost
	if err := p.db.First(&post, postID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load post")
		return
	}

	utils.Success(ctx, gin.H{"post": post})
}

// UpdatePost allows the author to edit their thread.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req struct {
		Title   string `json:"title" binding:"required,min=1"`
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40025, "title cannot be empty")
		return
	}
	content := utils.Sanitize(req.Content)

	postID := ctx.Param("id")
	var post models.ForumPost
	if err := p.db.First(&post, postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to load post")
		return
	}

	user, ok := currentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}
	if post.AuthorID != user.ID {
		utils.Error(ctx, http.StatusForbidden, 40302, "you can only edit your own posts")
		return
	}

	post.Title = title
	post.Content = content
	if err := p.db.Save(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to update post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")

	utils.Success(ctx, gin.H{"post": post})
}

// DeletePost removes a thread with its replies. Allowed for the author or an
// admin; the delete, the reply cleanup, the category counter decrement and
// the delete_post audit entry commit together.
func (p *PostController) DeletePost(ctx *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = ctx.ShouldBindJSON(&req)

	postID := ctx.Param("id")
	var post models.ForumPost
	if err := p.db.First(&post, postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to load post")
		return
	}

	user, ok := currentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40112, "unauthorized")
		return
	}
	if post.AuthorID != user.ID && !user.IsAdmin() {
		utils.Error(ctx, http.StatusForbidden, 40303, "you can only delete your own posts")
		return
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Reply{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&post).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.ForumCategory{}).
			Where("id = ? AND post_count > 0", post.CategoryID).
			Update("post_count", gorm.Expr("post_count - ?", 1)).Error; err != nil {
			return err
		}
		return recordModeration(tx, user, models.ActionDeletePost, models.TargetPost,
			strconv.Itoa(int(post.ID)), post.Title, utils.Sanitize(req.Reason))
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to delete post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.InvalidateByPrefix("cache:categories")

	utils.Success(ctx, gin.H{"message": "post deleted"})
}

// ListReplies returns a thread's replies, oldest first.
func (p *PostController) ListReplies(ctx *gin.Context) {
	postID := ctx.Param("id")
	var replies []models.Reply
	if err := p.db.Where("post_id = ?", postID).Order("created_at ASC, id ASC").Find(&replies).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50029, "failed to list replies")
		return
	}
	utils.Success(ctx, gin.H{"items": replies})
}

// CreateReply posts a response to a thread. Locked threads reject the request
// before any write happens. On success the reply and the post's reply counter
// commit together, then the post author is notified best-effort.
func (p *PostController) CreateReply(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40026, "invalid request payload")
		return
	}

	content := utils.Sanitize(req.Content)
	if strings.TrimSpace(content) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40027, "content cannot be empty")
		return
	}

	postID := ctx.Param("id")
	var post models.ForumPost
	if err := p.db.First(&post, postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40404, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to load post")
		return
	}

	if post.IsLocked {
		utils.Error(ctx, http.StatusForbidden, 40304, "this topic is locked")
		return
	}

	user, ok := currentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40113, "unauthorized")
		return
	}

	reply := models.Reply{
		PostID:      post.ID,
		Content:     content,
		AuthorID:    user.ID,
		AuthorName:  user.DisplayName(),
		AuthorEmail: user.Email,
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&reply).Error; err != nil {
			return err
		}
		return tx.Model(&models.ForumPost{}).Where("id = ?", post.ID).
			Update("replies", gorm.Expr("replies + ?", 1)).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to create reply")
		return
	}

	// Best-effort: the reply stands even if the notification write fails.
	p.notifyPostAuthor(&post, user)

	utils.InvalidateByPrefix("cache:posts:list:")

	utils.Success(ctx, gin.H{"reply": reply})
}

// notifyPostAuthor creates one reply notification for the thread author,
// unless the author replied to their own thread.
func (p *PostController) notifyPostAuthor(post *models.ForumPost, replier *models.User) {
	if post.AuthorEmail == "" || post.AuthorEmail == replier.Email {
		return
	}
	n := models.Notification{
		UserEmail:        post.AuthorEmail,
		Type:             models.NotifyReply,
		Title:            "New reply to your post",
		Message:          fmt.Sprintf("%s replied to %q", replier.DisplayName(), post.Title),
		Link:             fmt.Sprintf("/post?id=%d", post.ID),
		RelatedPostID:    strconv.Itoa(int(post.ID)),
		RelatedUserEmail: replier.Email,
	}
	if err := p.db.Create(&n).Error; err != nil && utils.Sugar != nil {
		utils.Sugar.Warnf("reply notification failed post=%d recipient=%s err=%v", post.ID, post.AuthorEmail, err)
	}
}

// DeleteReply removes a reply. Allowed for the reply owner or an admin; the
// delete, the counter decrement and the delete_reply audit entry commit
// together.
func (p *PostController) DeleteReply(ctx *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = ctx.ShouldBindJSON(&req)

	replyID := strings.TrimSpace(ctx.Param("replyId"))
	if replyID == "" {
		utils.Error(ctx, http.StatusBadRequest, 40028, "missing reply id")
		return
	}
	var reply models.Reply
	if err := p.db.First(&reply, replyID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40405, "reply not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load reply")
		return
	}

	user, ok := currentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40114, "unauthorized")
		return
	}
	if reply.AuthorID != user.ID && !user.IsAdmin() {
		utils.Error(ctx, http.StatusForbidden, 40305, "you can only delete your own replies")
		return
	}

	snippet := reply.Content
	if len(snippet) > 50 {
		snippet = snippet[:50]
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&reply).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.ForumPost{}).
			Where("id = ? AND replies > 0", reply.PostID).
			Update("replies", gorm.Expr("replies - ?", 1)).Error; err != nil {
			return err
		}
		return recordModeration(tx, user, models.ActionDeleteReply, models.TargetReply,
			strconv.Itoa(int(reply.ID)), snippet, utils.Sanitize(req.Reason))
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to delete reply")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")

	utils.Success(ctx, gin.H{"message": "reply deleted"})
}
