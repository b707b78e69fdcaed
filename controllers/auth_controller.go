package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/mail"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/realwrld/forum/config"
	"github.com/realwrld/forum/middleware"
	"github.com/realwrld/forum/models"
	"github.com/realwrld/forum/utils"
)

const tokenTTL = 7 * 24 * time.Hour

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,32}$`)

// discordEndpoint is the OAuth2 endpoint pair for Discord.
var discordEndpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/api/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

// AuthController handles registration, login, sessions, profile management
// and Discord OAuth sign-in.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// recordRegisterFailure counts a failed attempt and temp-bans the IP once it
// crosses the hourly threshold.
func recordRegisterFailure(ip string, cfg config.AppConfig) {
	n := utils.RegistrationFailRecord(ip)
	if cfg.RegisterFailedMaxPerIPPerHour > 0 && n >= cfg.RegisterFailedMaxPerIPPerHour {
		utils.RegistrationBan(ip)
	}
}

// Captcha issues a new captcha challenge for registration.
func (a *AuthController) Captcha(ctx *gin.Context) {
	id, b64, err := utils.GenerateCaptcha()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to generate captcha")
		return
	}
	utils.Success(ctx, gin.H{"captcha_id": id, "captcha_image": b64})
}

// Register creates a new local account.
func (a *AuthController) Register(ctx *gin.Context) {
	cfg := config.Get()
	ip := ctx.ClientIP()

	if utils.RegistrationIsBanned(ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42901, "too many failed attempts, try again later")
		return
	}
	if !utils.RegistrationCooldownTry(ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42902, "please wait before trying again")
		return
	}
	if !utils.RegistrationDailyLimitCheck(ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42903, "registration limit reached for today")
		return
	}

	var req struct {
		Username      string `json:"username" binding:"required"`
		Email         string `json:"email" binding:"required"`
		Password      string `json:"password" binding:"required"`
		CaptchaID     string `json:"captcha_id"`
		CaptchaAnswer string `json:"captcha_answer"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "username, email and password are required")
		return
	}

	if cfg.RegisterCaptchaEnabled && !utils.VerifyCaptcha(req.CaptchaID, req.CaptchaAnswer) {
		recordRegisterFailure(ip, cfg)
		utils.Error(ctx, http.StatusBadRequest, 40002, "captcha verification failed")
		return
	}

	username := strings.TrimSpace(req.Username)
	if !usernamePattern.MatchString(username) {
		utils.Error(ctx, http.StatusBadRequest, 40003, "username must be 3-32 characters of letters, digits, _ or -")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, "invalid email address")
		return
	}
	if len(req.Password) < 8 {
		utils.Error(ctx, http.StatusBadRequest, 40005, "password must be at least 8 characters")
		return
	}

	var count int64
	if err := a.db.Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to check existing users")
		return
	}
	if count > 0 {
		recordRegisterFailure(ip, cfg)
		utils.Error(ctx, http.StatusConflict, 40901, "username or email already taken")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to process password")
		return
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Provider:     "local",
		RegisterIP:   ip,
	}
	if err := a.db.Create(&user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to create account")
		return
	}

	utils.RegistrationDailyIncrement(ip)

	token, err := utils.GenerateToken(user.ID, user.Username, tokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to issue token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": user})
}

// Login authenticates a local account and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40006, "username and password are required")
		return
	}

	login := strings.TrimSpace(req.Username)
	var user models.User
	err := a.db.Where("username = ? OR email = ?", login, strings.ToLower(login)).First(&user).Error
	if err != nil {
		// Same answer for unknown users and wrong passwords.
		utils.Error(ctx, http.StatusUnauthorized, 40101, "invalid credentials")
		return
	}
	if user.PasswordHash == "" || !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40101, "invalid credentials")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, tokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to issue token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": user})
}

// Logout blacklists the current token until its natural expiry.
func (a *AuthController) Logout(ctx *gin.Context) {
	tokenVal, ok := ctx.Get(middleware.ContextTokenKey)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40140, "unauthorized")
		return
	}
	token := tokenVal.(string)

	expiresAt := time.Now().Add(tokenTTL)
	if claims, err := utils.ParseToken(token); err == nil && claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	utils.BlacklistToken(token, expiresAt)

	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated user's account.
func (a *AuthController) Me(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40141, "unauthorized")
		return
	}
	utils.Success(ctx, gin.H{"user": user})
}

// UpdateProfile edits the caller's profile fields.
func (a *AuthController) UpdateProfile(ctx *gin.Context) {
	var req struct {
		DiscordName *string `json:"discord_name"`
		Timezone    *string `json:"timezone"`
		Email       *string `json:"email"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40007, "invalid request payload")
		return
	}

	user, ok := currentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40142, "unauthorized")
		return
	}

	updates := map[string]interface{}{}
	if req.DiscordName != nil {
		updates["discord_name"] = utils.Sanitize(strings.TrimSpace(*req.DiscordName))
	}
	if req.Timezone != nil {
		updates["timezone"] = utils.Sanitize(strings.TrimSpace(*req.Timezone))
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40008, "invalid email address")
			return
		}
		var count int64
		if err := a.db.Model(&models.User{}).
			Where("email = ? AND id <> ?", email, user.ID).
			Count(&count).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50007, "failed to check email")
			return
		}
		if count > 0 {
			utils.Error(ctx, http.StatusConflict, 40902, "email already taken")
			return
		}
		updates["email"] = email
	}
	if len(updates) == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40009, "nothing to update")
		return
	}

	if err := a.db.Model(user).Updates(updates).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50008, "failed to update profile")
		return
	}

	utils.Success(ctx, gin.H{"user": user})
}

// UploadAvatar stores a new avatar image and points the account at it.
func (a *AuthController) UploadAvatar(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40143, "unauthorized")
		return
	}

	cfg := config.Get()
	file, err := ctx.FormFile("avatar")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "avatar file is required")
		return
	}
	if file.Size > int64(cfg.AvatarMaxSizeMB)*1024*1024 {
		utils.Error(ctx, http.StatusBadRequest, 40031,
			fmt.Sprintf("avatar must be under %dMB", cfg.AvatarMaxSizeMB))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
	default:
		utils.Error(ctx, http.StatusBadRequest, 40032, "unsupported image format")
		return
	}

	name := uuid.NewString() + ext
	dst := filepath.Join("static", "avatars", name)
	if err := ctx.SaveUploadedFile(file, dst); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50009, "failed to store avatar")
		return
	}

	url := "/static/avatars/" + name
	record := models.UploadedFile{UserID: user.ID, FilePath: dst, URL: url}
	if err := a.db.Create(&record).Error; err != nil && utils.Sugar != nil {
		utils.Sugar.Warnf("avatar bookkeeping failed url=%s err=%v", url, err)
	}

	if err := a.db.Model(user).Update("avatar_url", url).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50009, "failed to store avatar")
		return
	}

	utils.Success(ctx, gin.H{"avatar_url": url})
}

// discordOAuthConfig builds the OAuth2 config from app configuration.
func discordOAuthConfig() *oauth2.Config {
	cfg := config.Get()
	return &oauth2.Config{
		ClientID:     cfg.DiscordClientID,
		ClientSecret: cfg.DiscordClientSecret,
		Endpoint:     discordEndpoint,
		RedirectURL:  cfg.OAuthRedirectBase + "/api/v1/auth/discord/callback",
		Scopes:       []string{"identify", "email"},
	}
}

// DiscordRedirect starts the Discord OAuth flow.
func (a *AuthController) DiscordRedirect(ctx *gin.Context) {
	cfg := config.Get()
	if cfg.DiscordClientID == "" {
		utils.Error(ctx, http.StatusServiceUnavailable, 50301, "discord login is not configured")
		return
	}

	state := uuid.NewString()
	utils.SaveState(state, 10*time.Minute)
	ctx.Redirect(http.StatusFound, discordOAuthConfig().AuthCodeURL(state))
}

// discordUser is the subset of Discord's /users/@me payload we need.
type discordUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
}

// DiscordCallback finishes the OAuth flow, finding or creating the matching
// account and issuing a JWT.
func (a *AuthController) DiscordCallback(ctx *gin.Context) {
	state := ctx.Query("state")
	code := ctx.Query("code")
	if state == "" || code == "" || !utils.ConsumeState(state) {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid oauth state")
		return
	}

	oc := discordOAuthConfig()
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), 10*time.Second)
	defer cancel()

	tok, err := oc.Exchange(reqCtx, code)
	if err != nil {
		utils.Error(ctx, http.StatusBadGateway, 50201, "discord token exchange failed")
		return
	}

	resp, err := oc.Client(reqCtx, tok).Get("https://discord.com/api/users/@me")
	if err != nil {
		utils.Error(ctx, http.StatusBadGateway, 50202, "failed to fetch discord profile")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		utils.Error(ctx, http.StatusBadGateway, 50202, "failed to fetch discord profile")
		return
	}

	var du discordUser
	if err := json.NewDecoder(resp.Body).Decode(&du); err != nil || du.ID == "" {
		utils.Error(ctx, http.StatusBadGateway, 50203, "unexpected discord profile payload")
		return
	}

	user, err := a.findOrCreateDiscordUser(&du, ctx.ClientIP())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50204, "failed to sign in with discord")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, tokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50205, "failed to issue token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": user})
}

// findOrCreateDiscordUser matches by provider id first, then by verified
// email, then creates a fresh account with a collision-safe username.
func (a *AuthController) findOrCreateDiscordUser(du *discordUser, ip string) (*models.User, error) {
	var user models.User
	err := a.db.Where("provider = ? AND provider_id = ?", "discord", du.ID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if du.Email != "" {
		err = a.db.Where("email = ?", strings.ToLower(du.Email)).First(&user).Error
		if err == nil {
			user.Provider = "discord"
			user.ProviderID = du.ID
			if user.DiscordName == "" {
				user.DiscordName = du.Username
			}
			if err := a.db.Save(&user).Error; err != nil {
				return nil, err
			}
			return &user, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	}

	username := du.Username
	if !usernamePattern.MatchString(username) {
		username = "discord_" + du.ID
	}
	var count int64
	if err := a.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		username = fmt.Sprintf("%s_%s", username, du.ID[:min(6, len(du.ID))])
	}

	avatarURL := ""
	if du.Avatar != "" {
		avatarURL = fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", du.ID, du.Avatar)
	}

	user = models.User{
		Username:    username,
		Email:       strings.ToLower(du.Email),
		Role:        models.RoleUser,
		Provider:    "discord",
		ProviderID:  du.ID,
		DiscordName: du.Username,
		AvatarURL:   avatarURL,
		RegisterIP:  ip,
	}
	if err := a.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
