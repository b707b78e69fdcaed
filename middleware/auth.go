package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/realwrld/forum/config"
	"github.com/realwrld/forum/models"
	"github.com/realwrld/forum/utils"
)

const (
	// ContextUserKey stores the loaded *models.User for the request. Loading
	// it once here gives every handler the same session snapshot instead of
	// each one re-fetching the user.
	ContextUserKey = "current_user"
	// ContextTokenKey stores the raw bearer token (needed by logout).
	ContextTokenKey = "bearer_token"
)

// AuthRequired ensures the request is authenticated via JWT and loads the
// user record into the context.
func AuthRequired(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authorization header missing")
			ctx.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid authorization header format")
			ctx.Abort()
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40103, "empty bearer token")
			ctx.Abort()
			return
		}

		if utils.IsTokenBlacklisted(tokenString) {
			utils.Error(ctx, http.StatusUnauthorized, 40104, "token revoked")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
			ctx.Abort()
			return
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40106, "account no longer exists")
			ctx.Abort()
			return
		}

		// Configured bootstrap admins are promoted regardless of the stored role.
		if user.Role != models.RoleAdmin && isBootstrapAdmin(user.Username) {
			user.Role = models.RoleAdmin
		}

		ctx.Set(ContextUserKey, &user)
		ctx.Set(ContextTokenKey, tokenString)
		ctx.Next()
	}
}

// AdminRequired aborts with 403 unless the loaded user is an admin. Must be
// chained after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := CurrentUser(ctx)
		if !ok {
			utils.Error(ctx, http.StatusUnauthorized, 40107, "unauthorized")
			ctx.Abort()
			return
		}
		if !user.IsAdmin() {
			utils.Error(ctx, http.StatusForbidden, 40301, "admin role required")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// CurrentUser returns the user loaded by AuthRequired.
func CurrentUser(ctx *gin.Context) (*models.User, bool) {
	value, exists := ctx.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

func isBootstrapAdmin(username string) bool {
	uname := strings.TrimSpace(username)
	if uname == "" {
		return false
	}
	for _, u := range config.Get().AdminUsernames {
		if strings.EqualFold(strings.TrimSpace(u), uname) {
			return true
		}
	}
	return false
}
