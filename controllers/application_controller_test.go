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

func applicationRouter(db *gorm.DB, user *models.User) *gin.Engine {
	a := NewApplicationController(db)
	router := gin.New()
	router.Use(authAs(user))
	router.POST("/applications", a.SubmitApplication)
	router.GET("/applications/me", a.MyApplication)
	router.GET("/applications", a.ListApplications)
	router.PATCH("/applications/:id", a.ReviewApplication)
	return router
}

func validApplicationBody() gin.H {
	return gin.H{
		"discord_name":        "casey#1234",
		"age":                 21,
		"timezone":            "Europe/Berlin",
		"rp_experience":       "Two years on other servers.",
		"character_backstory": "Grew up by the docks.",
		"why_join":            "Looking for serious roleplay.",
		"rules_agreement":     true,
	}
}

func TestSubmitApplicationRequiresRulesAgreement(t *testing.T) {
	db := newTestDB(t)
	applicant := testUser(1, "casey", "casey@example.com", models.RoleUser)
	router := applicationRouter(db, applicant)

	body := validApplicationBody()
	body["rules_agreement"] = false
	w := performJSON(t, router, http.MethodPost, "/applications", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.Application{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSubmitApplicationRejectsMissingFields(t *testing.T) {
	db := newTestDB(t)
	applicant := testUser(1, "casey", "casey@example.com", models.RoleUser)
	router := applicationRouter(db, applicant)

	body := validApplicationBody()
	delete(body, "character_backstory")
	w := performJSON(t, router, http.MethodPost, "/applications", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitApplicationDuplicateConflicts(t *testing.T) {
	db := newTestDB(t)
	applicant := testUser(1, "casey", "casey@example.com", models.RoleUser)
	router := applicationRouter(db, applicant)

	w := performJSON(t, router, http.MethodPost, "/applications", validApplicationBody())
	require.Equal(t, http.StatusOK, w.Code)

	w = performJSON(t, router, http.MethodPost, "/applications", validApplicationBody())
	assert.Equal(t, http.StatusConflict, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.Application{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestMyApplicationProjectsStatus(t *testing.T) {
	db := newTestDB(t)
	applicant := testUser(1, "casey", "casey@example.com", models.RoleUser)
	mustCreate(t, db, &models.Application{
		UserID:         applicant.ID,
		DiscordName:    "casey#1234",
		Age:            21,
		Timezone:       "Europe/Berlin",
		RulesAgreement: true,
		Status:         models.ApplicationInterview,
	})
	router := applicationRouter(db, applicant)

	w := performJSON(t, router, http.MethodGet, "/applications/me", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		StatusInfo models.StatusInfo `json:"status_info"`
	}
	decodeData(t, w, &data)
	assert.Equal(t, models.ApplicationInterview, data.StatusInfo.Status)
	assert.Equal(t, "Interview", data.StatusInfo.Label)
	assert.Equal(t, "star", data.StatusInfo.Icon)
}

func TestMyApplicationNoneOnRecord(t *testing.T) {
	db := newTestDB(t)
	router := applicationRouter(db, testUser(1, "casey", "casey@example.com", models.RoleUser))

	w := performJSON(t, router, http.MethodGet, "/applications/me", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReviewApplicationNotifiesApplicant(t *testing.T) {
	db := newTestDB(t)
	applicant := testUser(2, "casey", "casey@example.com", models.RoleUser)
	mustCreate(t, db, &models.User{ID: 2, Username: "casey", Email: "casey@example.com"})
	mustCreate(t, db, &models.Application{
		UserID:         2,
		DiscordName:    "casey#1234",
		Age:            21,
		Timezone:       "Europe/Berlin",
		RulesAgreement: true,
		Status:         models.ApplicationPending,
	})

	admin := testUser(1, "mod", "mod@example.com", models.RoleAdmin)
	router := applicationRouter(db, admin)

	w := performJSON(t, router, http.MethodPatch, "/applications/1", gin.H{
		"status":         models.ApplicationApproved,
		"reviewer_notes": "solid backstory",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var app models.Application
	require.NoError(t, db.First(&app, 1).Error)
	assert.Equal(t, models.ApplicationApproved, app.Status)
	assert.Equal(t, "solid backstory", app.ReviewerNotes)

	var notifications []models.Notification
	require.NoError(t, db.Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, applicant.Email, notifications[0].UserEmail)
	assert.Equal(t, models.NotifyAnnouncement, notifications[0].Type)
	assert.Contains(t, notifications[0].Message, "approved")
}

func TestReviewApplicationRejectsUnknownStatus(t *testing.T) {
	db := newTestDB(t)
	mustCreate(t, db, &models.Application{
		UserID:         2,
		DiscordName:    "casey#1234",
		Age:            21,
		Timezone:       "Europe/Berlin",
		RulesAgreement: true,
	})
	admin := testUser(1, "mod", "mod@example.com", models.RoleAdmin)
	router := applicationRouter(db, admin)

	w := performJSON(t, router, http.MethodPatch, "/applications/1", gin.H{"status": "maybe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListApplicationsFiltersByStatus(t *testing.T) {
	db := newTestDB(t)
	mustCreate(t, db, &models.Application{UserID: 2, DiscordName: "a", Age: 20, Timezone: "UTC", RulesAgreement: true, Status: models.ApplicationPending})
	mustCreate(t, db, &models.Application{UserID: 3, DiscordName: "b", Age: 22, Timezone: "UTC", RulesAgreement: true, Status: models.ApplicationApproved})

	admin := testUser(1, "mod", "mod@example.com", models.RoleAdmin)
	router := applicationRouter(db, admin)

	w := performJSON(t, router, http.MethodGet, "/applications?status=pending", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Items []models.Application `json:"items"`
	}
	decodeData(t, w, &data)
	require.Len(t, data.Items, 1)
	assert.Equal(t, models.ApplicationPending, data.Items[0].Status)
}
