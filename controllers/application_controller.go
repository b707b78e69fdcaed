package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/realwrld/forum/models"
	"github.com/realwrld/forum/utils"
)

// ApplicationController handles membership applications for the roleplay
// server: the applicant side (submit, check status) and the staff side
// (list, review).
type ApplicationController struct {
	db *gorm.DB
}

// NewApplicationController creates a new ApplicationController instance.
func NewApplicationController(db *gorm.DB) *ApplicationController {
	return &ApplicationController{db: db}
}

// SubmitApplication files a new membership application for the caller. All
// fields are required, the rules agreement must be checked, and a user who
// already has an application on record gets a conflict instead of a second
// one.
func (a *ApplicationController) SubmitApplication(ctx *gin.Context) {
	var req struct {
		DiscordName        string `json:"discord_name" binding:"required,min=1"`
		Age                int    `json:"age" binding:"required"`
		Timezone           string `json:"timezone" binding:"required,min=1"`
		RPExperience       string `json:"rp_experience" binding:"required,min=1"`
		CharacterBackstory string `json:"character_backstory" binding:"required,min=1"`
		WhyJoin            string `json:"why_join" binding:"required,min=1"`
		RulesAgreement     bool   `json:"rules_agreement"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "all application fields are required")
		return
	}
	if req.Age <= 0 {
		utils.Error(ctx, http.StatusBadRequest, 40051, "age must be a positive number")
		return
	}
	if !req.RulesAgreement {
		utils.Error(ctx, http.StatusBadRequest, 40052, "you must agree to the server rules")
		return
	}

	user, ok := currentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40130, "unauthorized")
		return
	}

	var existing models.Application
	err := a.db.Where("user_id = ?", user.ID).First(&existing).Error
	if err == nil {
		utils.Error(ctx, http.StatusConflict, 40920, "you have already submitted an application")
		return
	}
	if err != gorm.ErrRecordNotFound {
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to check existing application")
		return
	}

	app := models.Application{
		UserID:             user.ID,
		DiscordName:        utils.Sanitize(strings.TrimSpace(req.DiscordName)),
		Age:                req.Age,
		Timezone:           utils.Sanitize(strings.TrimSpace(req.Timezone)),
		RPExperience:       utils.Sanitize(req.RPExperience),
		CharacterBackstory: utils.Sanitize(req.CharacterBackstory),
		WhyJoin:            utils.Sanitize(req.WhyJoin),
		RulesAgreement:     true,
		Status:             models.ApplicationPending,
	}
	if err := a.db.Create(&app).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50061, "failed to submit application")
		return
	}

	utils.Success(ctx, gin.H{
		"application": app,
		"status_info": models.StatusProjection(app.Status),
	})
}

// MyApplication returns the caller's application together with the narrative
// status block the client renders.
func (a *ApplicationController) MyApplication(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40131, "unauthorized")
		return
	}

	var app models.Application
	if err := a.db.Where("user_id = ?", user.ID).First(&app).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40440, "no application on record")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50062, "failed to load application")
		return
	}

	utils.Success(ctx, gin.H{
		"application": app,
		"status_info": models.StatusProjection(app.Status),
	})
}

// ListApplications returns applications for staff review, optionally filtered
// by status, oldest first so the queue drains in order.
func (a *ApplicationController) ListApplications(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	status := strings.TrimSpace(ctx.Query("status"))

	query := a.db.Model(&models.Application{})
	if status != "" {
		if !models.ValidApplicationStatus(status) {
			utils.Error(ctx, http.StatusBadRequest, 40053, "unknown application status")
			return
		}
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50063, "failed to count applications")
		return
	}

	var items []models.Application
	if err := query.Order("created_at ASC, id ASC").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50064, "failed to list applications")
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

// ReviewApplication lets staff move an application to a new status and attach
// reviewer notes. The applicant gets an announcement notification describing
// the outcome; the status change stands even if that write fails.
func (a *ApplicationController) ReviewApplication(ctx *gin.Context) {
	var req struct {
		Status        string `json:"status" binding:"required"`
		ReviewerNotes string `json:"reviewer_notes"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40054, "invalid request payload")
		return
	}
	if !models.ValidApplicationStatus(req.Status) {
		utils.Error(ctx, http.StatusBadRequest, 40055, "unknown application status")
		return
	}

	var app models.Application
	if err := a.db.First(&app, ctx.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40441, "application not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50065, "failed to load application")
		return
	}

	app.Status = req.Status
	app.ReviewerNotes = utils.Sanitize(req.ReviewerNotes)
	if err := a.db.Save(&app).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50066, "failed to update application")
		return
	}

	a.notifyApplicant(&app)

	utils.Success(ctx, gin.H{
		"application": app,
		"status_info": models.StatusProjection(app.Status),
	})
}

// notifyApplicant sends the applicant an announcement notification with the
// narrative message for their new status. Best-effort.
func (a *ApplicationController) notifyApplicant(app *models.Application) {
	var applicant models.User
	if err := a.db.First(&applicant, app.UserID).Error; err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Warnf("application notification skipped app=%d err=%v", app.ID, err)
		}
		return
	}

	info := models.StatusProjection(app.Status)
	n := models.Notification{
		UserEmail: applicant.Email,
		Type:      models.NotifyAnnouncement,
		Title:     fmt.Sprintf("Application %s", info.Label),
		Message:   info.Message,
		Link:      "/apply",
	}
	if err := a.db.Create(&n).Error; err != nil && utils.Sugar != nil {
		utils.Sugar.Warnf("application notification failed app=%d recipient=%s err=%v", app.ID, applicant.Email, err)
	}
}
