package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/realwrld/forum/middleware"
	"github.com/realwrld/forum/models"
)

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

func currentUser(ctx *gin.Context) (*models.User, bool) {
	return middleware.CurrentUser(ctx)
}

// cachedEnvelope mirrors utils.JSONResponse so cached list payloads replay
// byte-identical responses.
type cachedEnvelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func envelope(data interface{}) cachedEnvelope {
	return cachedEnvelope{Code: 0, Message: "success", Data: data}
}
