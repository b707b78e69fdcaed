package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/realwrld/forum/models"
	"github.com/realwrld/forum/utils"
)

// StatsController serves public community statistics.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

const statsCacheKey = "cache:stats:community"

// CommunityStats returns member, post, reply and board totals plus the last
// week of page visits. Cached for five minutes, the counts do not need to be
// real-time.
func (s *StatsController) CommunityStats(ctx *gin.Context) {
	if b, ok := utils.CacheGetBytes(statsCacheKey); ok {
		ctx.Data(200, "application/json", b)
		return
	}

	var users, posts, replies, categories int64
	if err := s.db.Model(&models.User{}).Count(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50070, "failed to load statistics")
		return
	}
	if err := s.db.Model(&models.ForumPost{}).Count(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50070, "failed to load statistics")
		return
	}
	if err := s.db.Model(&models.Reply{}).Count(&replies).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50070, "failed to load statistics")
		return
	}
	if err := s.db.Model(&models.ForumCategory{}).Count(&categories).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50070, "failed to load statistics")
		return
	}

	weekAgo := time.Now().AddDate(0, 0, -7).Truncate(24 * time.Hour)
	var visits []models.DailyVisit
	if err := s.db.Where("date >= ?", weekAgo).
		Order("date DESC, count DESC").Limit(50).Find(&visits).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50071, "failed to load visit statistics")
		return
	}

	payload := gin.H{
		"members":       users,
		"posts":         posts,
		"replies":       replies,
		"categories":    categories,
		"recent_visits": visits,
	}
	utils.CacheSetJSON(statsCacheKey, envelope(payload), 5*time.Minute)
	utils.Success(ctx, payload)
}
