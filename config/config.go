package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AppConfig holds the effective application configuration. Secrets carry no
// code defaults and must come from the config file or the environment.
type AppConfig struct {
	AppPort   string
	JWTSecret string

	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	// Redis for caching, token blacklist and abuse counters
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string

	// Discord OAuth login
	DiscordClientID     string
	DiscordClientSecret string
	OAuthRedirectBase   string

	RateLimitPerMinute int
	AllowedOrigins     []string

	// Gin framework configuration
	GinMode string
	GinPath string

	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool

	// Registration security
	RegisterCaptchaEnabled        bool
	RegisterMaxPerIPPerDay        int
	RegisterAttemptCooldownSec    int
	RegisterFailedMaxPerIPPerHour int
	RegisterTempBanMinutes        int

	// Usernames promoted to admin on login, used to bootstrap the first staff accounts
	AdminUsernames []string

	// Community content served by the content endpoints
	CommunityName    string
	Rules            []string
	SupportDiscord   string
	SupportEmail     string
	AnnouncementHTML string

	// Avatar uploads
	AvatarMaxSizeMB int
}

var (
	cfg    AppConfig
	loaded bool
)

// Load resolves the configuration once during boot.
// Precedence: config/config.json -> defaults -> environment overrides.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	if err := loadJSONConfig(filepath.Join("config", "config.json"), &cfg); err != nil {
		log.Fatalf("invalid config file: %v", err)
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it on first use.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// SetForTesting replaces the cached configuration. Tests only.
func SetForTesting(c AppConfig) {
	applyDefaults(&c)
	cfg = c
	loaded = true
}

// jsonConfigFile mirrors the grouped layout of config/config.json. Pointer
// fields distinguish "absent" from zero values.
type jsonConfigFile struct {
	App *struct {
		AppPort            string   `json:"AppPort"`
		JWTSecret          string   `json:"JWTSecret"`
		RateLimitPerMinute *int     `json:"RateLimitPerMinute"`
		AllowedOrigins     []string `json:"AllowedOrigins"`
		OAuthRedirectBase  string   `json:"OAuthRedirectBase"`
		AdminUsernames     []string `json:"AdminUsernames"`
		AvatarMaxSizeMB    *int     `json:"AvatarMaxSizeMB"`
	} `json:"app"`
	Database *struct {
		DatabaseURI string `json:"DatabaseURI"`
		DBHost      string `json:"DBHost"`
		DBPort      string `json:"DBPort"`
		DBUser      string `json:"DBUser"`
		DBPassword  string `json:"DBPassword"`
		DBName      string `json:"DBName"`
	} `json:"database"`
	Redis *struct {
		RedisHost     string `json:"RedisHost"`
		RedisPort     *int   `json:"RedisPort"`
		RedisDB       *int   `json:"RedisDB"`
		RedisPassword string `json:"RedisPassword"`
	} `json:"redis"`
	OAuth *struct {
		DiscordClientID     string `json:"DiscordClientID"`
		DiscordClientSecret string `json:"DiscordClientSecret"`
	} `json:"oauth"`
	Log *struct {
		Level      string `json:"Level"`
		Path       string `json:"Path"`
		GinMode    string `json:"GinMode"`
		GinPath    string `json:"GinPath"`
		MaxSizeMB  *int   `json:"MaxSizeMB"`
		MaxBackups *int   `json:"MaxBackups"`
		MaxAgeDays *int   `json:"MaxAgeDays"`
		Compress   *bool  `json:"Compress"`
	} `json:"log"`
	Register *struct {
		CaptchaEnabled        *bool `json:"CaptchaEnabled"`
		MaxPerIPPerDay        *int  `json:"MaxPerIPPerDay"`
		AttemptCooldownSec    *int  `json:"AttemptCooldownSec"`
		FailedMaxPerIPPerHour *int  `json:"FailedMaxPerIPPerHour"`
		TempBanMinutes        *int  `json:"TempBanMinutes"`
	} `json:"register"`
	Community *struct {
		Name             string   `json:"Name"`
		Rules            []string `json:"Rules"`
		SupportDiscord   string   `json:"SupportDiscord"`
		SupportEmail     string   `json:"SupportEmail"`
		AnnouncementHTML string   `json:"AnnouncementHTML"`
	} `json:"community"`
}

// loadJSONConfig merges config/config.json into out. A missing file is fine;
// invalid JSON is not.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var file jsonConfigFile
	if err := json.NewDecoder(f).Decode(&file); err != nil {
		return err
	}

	if app := file.App; app != nil {
		setString(&out.AppPort, app.AppPort)
		setString(&out.JWTSecret, app.JWTSecret)
		setString(&out.OAuthRedirectBase, app.OAuthRedirectBase)
		setIntPtr(&out.RateLimitPerMinute, app.RateLimitPerMinute)
		setIntPtr(&out.AvatarMaxSizeMB, app.AvatarMaxSizeMB)
		setSlice(&out.AllowedOrigins, app.AllowedOrigins)
		setSlice(&out.AdminUsernames, app.AdminUsernames)
	}
	if dbs := file.Database; dbs != nil {
		setString(&out.DatabaseURI, dbs.DatabaseURI)
		setString(&out.DBHost, dbs.DBHost)
		setString(&out.DBPort, dbs.DBPort)
		setString(&out.DBUser, dbs.DBUser)
		setString(&out.DBPassword, dbs.DBPassword)
		setString(&out.DBName, dbs.DBName)
	}
	if rds := file.Redis; rds != nil {
		setString(&out.RedisHost, rds.RedisHost)
		setString(&out.RedisPassword, rds.RedisPassword)
		setIntPtr(&out.RedisPort, rds.RedisPort)
		setIntPtr(&out.RedisDB, rds.RedisDB)
	}
	if oa := file.OAuth; oa != nil {
		setString(&out.DiscordClientID, oa.DiscordClientID)
		setString(&out.DiscordClientSecret, oa.DiscordClientSecret)
	}
	if lg := file.Log; lg != nil {
		setString(&out.LogLevel, lg.Level)
		setString(&out.LogPath, lg.Path)
		setString(&out.GinMode, lg.GinMode)
		setString(&out.GinPath, lg.GinPath)
		setIntPtr(&out.LogMaxSizeMB, lg.MaxSizeMB)
		setIntPtr(&out.LogMaxBackups, lg.MaxBackups)
		setIntPtr(&out.LogMaxAgeDays, lg.MaxAgeDays)
		setBoolPtr(&out.LogCompress, lg.Compress)
	}
	if rg := file.Register; rg != nil {
		setBoolPtr(&out.RegisterCaptchaEnabled, rg.CaptchaEnabled)
		setIntPtr(&out.RegisterMaxPerIPPerDay, rg.MaxPerIPPerDay)
		setIntPtr(&out.RegisterAttemptCooldownSec, rg.AttemptCooldownSec)
		setIntPtr(&out.RegisterFailedMaxPerIPPerHour, rg.FailedMaxPerIPPerHour)
		setIntPtr(&out.RegisterTempBanMinutes, rg.TempBanMinutes)
	}
	if cm := file.Community; cm != nil {
		setString(&out.CommunityName, cm.Name)
		setString(&out.SupportDiscord, cm.SupportDiscord)
		setString(&out.SupportEmail, cm.SupportEmail)
		setString(&out.AnnouncementHTML, cm.AnnouncementHTML)
		setSlice(&out.Rules, cm.Rules)
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setIntPtr(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBoolPtr(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setSlice(dst *[]string, v []string) {
	if len(v) > 0 {
		*dst = v
	}
}

// applyDefaults fills zero-value fields with development-friendly defaults.
func applyDefaults(c *AppConfig) {
	def := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	defInt := func(dst *int, v int) {
		if *dst == 0 {
			*dst = v
		}
	}

	def(&c.AppPort, "8080")
	def(&c.GinMode, "release")
	def(&c.GinPath, "logs/go_gin.log")
	def(&c.OAuthRedirectBase, "http://localhost:8080")
	def(&c.DBHost, "127.0.0.1")
	def(&c.DBPort, "3306")
	def(&c.DBUser, "root")
	def(&c.DBName, "realwrld")
	def(&c.RedisHost, "127.0.0.1")
	def(&c.LogLevel, "info")
	def(&c.CommunityName, "Real-Wrld")

	defInt(&c.RateLimitPerMinute, 60)
	defInt(&c.RedisPort, 6379)
	defInt(&c.LogMaxSizeMB, 100)
	defInt(&c.LogMaxBackups, 3)
	defInt(&c.LogMaxAgeDays, 7)
	defInt(&c.RegisterMaxPerIPPerDay, 5)
	defInt(&c.RegisterAttemptCooldownSec, 10)
	defInt(&c.RegisterFailedMaxPerIPPerHour, 20)
	defInt(&c.RegisterTempBanMinutes, 60)
	defInt(&c.AvatarMaxSizeMB, 5)

	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
}

// applyEnvOverrides maps known environment variables onto the config. Env
// always wins over file and defaults.
func applyEnvOverrides(c *AppConfig) {
	stringVars := map[string]*string{
		"APP_PORT":                &c.AppPort,
		"JWT_SECRET":              &c.JWTSecret,
		"GIN_MODE":                &c.GinMode,
		"GIN_PATH":                &c.GinPath,
		"DATABASE_URI":            &c.DatabaseURI,
		"DB_HOST":                 &c.DBHost,
		"DB_PORT":                 &c.DBPort,
		"DB_USER":                 &c.DBUser,
		"DB_PASSWORD":             &c.DBPassword,
		"DB_NAME":                 &c.DBName,
		"REDIS_HOST":              &c.RedisHost,
		"REDIS_PASSWORD":          &c.RedisPassword,
		"DISCORD_CLIENT_ID":       &c.DiscordClientID,
		"DISCORD_CLIENT_SECRET":   &c.DiscordClientSecret,
		"OAUTH_REDIRECT_BASE_URL": &c.OAuthRedirectBase,
		"LOG_LEVEL":               &c.LogLevel,
		"LOG_PATH":                &c.LogPath,
		"COMMUNITY_NAME":          &c.CommunityName,
		"SUPPORT_DISCORD":         &c.SupportDiscord,
		"SUPPORT_EMAIL":           &c.SupportEmail,
		"ANNOUNCEMENT_HTML":       &c.AnnouncementHTML,
	}
	for key, dst := range stringVars {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	intVars := map[string]*int{
		"REDIS_PORT":                          &c.RedisPort,
		"REDIS_DB":                            &c.RedisDB,
		"RATE_LIMIT_PER_MINUTE":               &c.RateLimitPerMinute,
		"LOG_MAX_SIZE_MB":                     &c.LogMaxSizeMB,
		"LOG_MAX_BACKUPS":                     &c.LogMaxBackups,
		"LOG_MAX_AGE_DAYS":                    &c.LogMaxAgeDays,
		"REGISTER_MAX_PER_IP_PER_DAY":         &c.RegisterMaxPerIPPerDay,
		"REGISTER_ATTEMPT_COOLDOWN_SEC":       &c.RegisterAttemptCooldownSec,
		"REGISTER_FAILED_MAX_PER_IP_PER_HOUR": &c.RegisterFailedMaxPerIPPerHour,
		"REGISTER_TEMP_BAN_MINUTES":           &c.RegisterTempBanMinutes,
		"AVATAR_MAX_SIZE_MB":                  &c.AvatarMaxSizeMB,
	}
	for key, dst := range intVars {
		if v := os.Getenv(key); v != "" {
			*dst = mustParseInt(key, v)
		}
	}

	boolVars := map[string]*bool{
		"LOG_COMPRESS":             &c.LogCompress,
		"REGISTER_CAPTCHA_ENABLED": &c.RegisterCaptchaEnabled,
	}
	for key, dst := range boolVars {
		if v := os.Getenv(key); v != "" {
			*dst = v == "true"
		}
	}

	listVars := map[string]*[]string{
		"CORS_ALLOWED_ORIGINS": &c.AllowedOrigins,
		"ADMIN_USERNAMES":      &c.AdminUsernames,
	}
	for key, dst := range listVars {
		if v := os.Getenv(key); v != "" {
			*dst = splitAndTrim(v)
		}
	}
}

func mustParseInt(key, val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer for %s: %q", key, val)
	}
	return i
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
