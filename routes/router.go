package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/realwrld/forum/config"
	"github.com/realwrld/forum/controllers"
	"github.com/realwrld/forum/middleware"
	"github.com/realwrld/forum/utils"
)

// SetupRouter wires middleware, controllers and routes into a gin engine.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()

	gin.SetMode(cfg.GinMode)
	router := gin.New()

	accessLogger, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel,
		cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err != nil {
		accessLogger = utils.Logger
	}
	router.Use(utils.Ginzap(accessLogger, time.RFC3339, true))
	router.Use(utils.RecoveryWithZap(accessLogger, true))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.RateLimitMiddleware())
	router.Use(middleware.VisitRecorder(db))

	router.Static("/static", "./static")
	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	auth := controllers.NewAuthController(db)
	categories := controllers.NewCategoryController(db)
	posts := controllers.NewPostController(db)
	notifications := controllers.NewNotificationController(db)
	applications := controllers.NewApplicationController(db)
	moderation := controllers.NewModerationController(db)
	stats := controllers.NewStatsController(db)
	content := controllers.NewContentController()

	v1 := router.Group("/api/v1")
	{
		v1.GET("/auth/captcha", auth.Captcha)
		v1.POST("/auth/register", auth.Register)
		v1.POST("/auth/login", auth.Login)
		v1.GET("/auth/discord", auth.DiscordRedirect)
		v1.GET("/auth/discord/callback", auth.DiscordCallback)

		v1.GET("/categories", categories.ListCategories)
		v1.GET("/posts", posts.ListPosts)
		v1.GET("/posts/:id", posts.GetPost)
		v1.GET("/posts/:id/replies", posts.ListReplies)

		v1.GET("/content/rules", content.Rules)
		v1.GET("/content/support", content.Support)
		v1.GET("/stats/community", stats.CommunityStats)
	}

	authed := v1.Group("")
	authed.Use(middleware.AuthRequired(db))
	{
		authed.POST("/auth/logout", auth.Logout)
		authed.GET("/auth/me", auth.Me)
		authed.PATCH("/auth/me", auth.UpdateProfile)
		authed.POST("/auth/me/avatar", auth.UploadAvatar)

		authed.POST("/posts", posts.CreatePost)
		authed.PUT("/posts/:id", posts.UpdatePost)
		authed.DELETE("/posts/:id", posts.DeletePost)
		authed.POST("/posts/:id/replies", posts.CreateReply)
		authed.DELETE("/posts/:id/replies/:replyId", posts.DeleteReply)

		authed.GET("/notifications", notifications.ListNotifications)
		authed.GET("/notifications/unread-count", notifications.UnreadCount)
		authed.PATCH("/notifications/:id/read", notifications.MarkRead)
		authed.POST("/notifications/read-all", notifications.MarkAllRead)
		authed.DELETE("/notifications/:id", notifications.DeleteNotification)

		authed.POST("/applications", applications.SubmitApplication)
		authed.GET("/applications/me", applications.MyApplication)
	}

	admin := authed.Group("")
	admin.Use(middleware.AdminRequired())
	{
		admin.POST("/categories", categories.CreateCategory)
		admin.PUT("/categories/:id", categories.UpdateCategory)
		admin.DELETE("/categories/:id", categories.DeleteCategory)

		admin.POST("/posts/:id/pin", moderation.TogglePin)
		admin.POST("/posts/:id/lock", moderation.ToggleLock)
		admin.GET("/moderation/logs", moderation.ListLogs)

		admin.GET("/applications", applications.ListApplications)
		admin.PATCH("/applications/:id", applications.ReviewApplication)
	}

	return router
}
