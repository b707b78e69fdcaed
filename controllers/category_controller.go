package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/realwrld/forum/models"
	"github.com/realwrld/forum/utils"
)

// CategoryController manages forum boards.
type CategoryController struct {
	db *gorm.DB
}

// NewCategoryController creates a new CategoryController instance.
func NewCategoryController(db *gorm.DB) *CategoryController {
	return &CategoryController{db: db}
}

const categoryCacheKey = "cache:categories"

// ListCategories returns all boards ordered by sort weight.
func (c *CategoryController) ListCategories(ctx *gin.Context) {
	if b, ok := utils.CacheGetBytes(categoryCacheKey); ok {
		ctx.Data(200, "application/json", b)
		return
	}

	var categories []models.ForumCategory
	if err := c.db.Order("sort_order ASC, id ASC").Find(&categories).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to list categories")
		return
	}

	payload := gin.H{"items": categories}
	utils.CacheSetJSON(categoryCacheKey, envelope(payload), time.Hour)
	utils.Success(ctx, payload)
}

// CreateCategory adds a new board. Admin only.
func (c *CategoryController) CreateCategory(ctx *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required,min=1"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
		SortOrder   int    `json:"sort_order"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		utils.Error(ctx, http.StatusBadRequest, 40011, "name cannot be empty")
		return
	}

	category := models.ForumCategory{
		Name:        utils.Sanitize(name),
		Description: utils.Sanitize(req.Description),
		Icon:        req.Icon,
		SortOrder:   req.SortOrder,
	}
	if err := c.db.Create(&category).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to create category")
		return
	}

	utils.InvalidateByPrefix(categoryCacheKey)
	utils.Success(ctx, gin.H{"category": category})
}

// UpdateCategory edits a board. Admin only.
func (c *CategoryController) UpdateCategory(ctx *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required,min=1"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
		SortOrder   int    `json:"sort_order"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40012, "invalid request payload")
		return
	}

	var category models.ForumCategory
	if err := c.db.First(&category, ctx.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40410, "category not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to load category")
		return
	}

	category.Name = utils.Sanitize(strings.TrimSpace(req.Name))
	category.Description = utils.Sanitize(req.Description)
	category.Icon = req.Icon
	category.SortOrder = req.SortOrder
	if err := c.db.Save(&category).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to update category")
		return
	}

	utils.InvalidateByPrefix(categoryCacheKey)
	utils.Success(ctx, gin.H{"category": category})
}

// DeleteCategory removes an empty board. Admin only; boards that still hold
// posts are rejected so threads never go orphaned.
func (c *CategoryController) DeleteCategory(ctx *gin.Context) {
	var category models.ForumCategory
	if err := c.db.First(&category, ctx.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40411, "category not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50014, "failed to load category")
		return
	}

	var postCount int64
	if err := c.db.Model(&models.ForumPost{}).Where("category_id = ?", category.ID).Count(&postCount).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50015, "failed to check category posts")
		return
	}
	if postCount > 0 {
		utils.Error(ctx, http.StatusConflict, 40910, "category still contains posts")
		return
	}

	if err := c.db.Delete(&category).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50016, "failed to delete category")
		return
	}

	utils.InvalidateByPrefix(categoryCacheKey)
	utils.Success(ctx, gin.H{"message": "category deleted"})
}
