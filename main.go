package main

import (
	"log"
	"time"

	"github.com/realwrld/forum/config"
	"github.com/realwrld/forum/models"
	"github.com/realwrld/forum/routes"
	"github.com/realwrld/forum/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() {
		if utils.Logger != nil {
			_ = utils.Logger.Sync()
		}
	}()

	db := config.InitDatabase(
		&models.User{},
		&models.ForumCategory{},
		&models.ForumPost{},
		&models.Reply{},
		&models.Application{},
		&models.ModerationLog{},
		&models.Notification{},
		&models.UploadedFile{},
		&models.DailyVisit{},
	)

	utils.UseRedisCaptchaStore()
	utils.StartAvatarCleaner(30 * time.Minute)

	router := routes.SetupRouter(db)

	utils.Sugar.Infof("listening on :%s", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, router); err != nil {
		utils.Sugar.Fatalf("server exited: %v", err)
	}
}
