package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/realwrld/forum/config"
	"github.com/realwrld/forum/utils"
)

// ContentController serves operator-curated community content: the server
// rules, support contacts and the current announcement banner. Everything
// comes from configuration, there is no database behind it.
type ContentController struct{}

// NewContentController creates a new ContentController instance.
func NewContentController() *ContentController {
	return &ContentController{}
}

// Rules returns the server rules list.
func (c *ContentController) Rules(ctx *gin.Context) {
	cfg := config.Get()
	utils.Success(ctx, gin.H{
		"community": cfg.CommunityName,
		"rules":     cfg.Rules,
	})
}

// Support returns the community's support contacts and announcement.
func (c *ContentController) Support(ctx *gin.Context) {
	cfg := config.Get()
	utils.Success(ctx, gin.H{
		"community":    cfg.CommunityName,
		"discord":      cfg.SupportDiscord,
		"email":        cfg.SupportEmail,
		"announcement": cfg.AnnouncementHTML,
	})
}
