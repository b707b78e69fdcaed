package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults(t *testing.T) {
	var c AppConfig
	applyDefaults(&c)

	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, "release", c.GinMode)
	assert.Equal(t, 60, c.RateLimitPerMinute)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
	assert.Equal(t, "realwrld", c.DBName)
	assert.Equal(t, 6379, c.RedisPort)
	assert.Equal(t, "Real-Wrld", c.CommunityName)
	assert.Equal(t, 5, c.AvatarMaxSizeMB)
	assert.Equal(t, 5, c.RegisterMaxPerIPPerDay)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	c := AppConfig{
		AppPort:        "9000",
		GinMode:        "debug",
		AllowedOrigins: []string{"https://forum.example.com"},
	}
	applyDefaults(&c)

	assert.Equal(t, "9000", c.AppPort)
	assert.Equal(t, "debug", c.GinMode)
	assert.Equal(t, []string{"https://forum.example.com"}, c.AllowedOrigins)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a , b ,"))
	assert.Empty(t, splitAndTrim("  ,  "))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "3000")
	t.Setenv("ADMIN_USERNAMES", "root, mod ")
	t.Setenv("REGISTER_CAPTCHA_ENABLED", "true")

	var c AppConfig
	applyDefaults(&c)
	applyEnvOverrides(&c)

	assert.Equal(t, "3000", c.AppPort)
	assert.Equal(t, []string{"root", "mod"}, c.AdminUsernames)
	assert.True(t, c.RegisterCaptchaEnabled)
}
