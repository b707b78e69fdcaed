package utils

import (
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/realwrld/forum/config"
)

// Registration abuse guards. All counters live in Redis under "reg:" keys
// and every check fails open, so a Redis outage degrades to an unguarded
// registration path instead of a closed one.

const abuseOpTimeout = 500 * time.Millisecond

func regKey(parts ...string) string {
	return "reg:" + strings.Join(parts, ":")
}

// RegistrationCooldownTry claims the per-IP cooldown slot. Returns false
// while a previous attempt's cooldown is still running.
func RegistrationCooldownTry(ip string) bool {
	sec := config.Get().RegisterAttemptCooldownSec
	if sec <= 0 {
		return true
	}
	ctx, cancel := redisCtx(abuseOpTimeout)
	defer cancel()
	ok, err := GetRedis().SetNX(ctx, regKey("cooldown", ip), "1", time.Duration(sec)*time.Second).Result()
	if err != nil {
		return true
	}
	return ok
}

// RegistrationDailyLimitCheck reports whether the IP still has successful
// registrations left today.
func RegistrationDailyLimitCheck(ip string) bool {
	limit := config.Get().RegisterMaxPerIPPerDay
	if limit <= 0 {
		return true
	}
	ctx, cancel := redisCtx(abuseOpTimeout)
	defer cancel()
	n, err := GetRedis().Get(ctx, dailySuccessKey(ip)).Int()
	if err != nil && err != redis.Nil {
		return true
	}
	return n < limit
}

// RegistrationDailyIncrement counts one successful registration against
// today's per-IP budget.
func RegistrationDailyIncrement(ip string) {
	ctx, cancel := redisCtx(abuseOpTimeout)
	defer cancel()
	key := dailySuccessKey(ip)
	if err := GetRedis().Incr(ctx, key).Err(); err == nil {
		untilMidnight := time.Until(time.Now().Truncate(24 * time.Hour).Add(24 * time.Hour))
		_ = GetRedis().Expire(ctx, key, untilMidnight).Err()
	}
}

// RegistrationFailRecord counts one failed attempt in the current hour and
// returns the running total, which the caller compares against the ban
// threshold.
func RegistrationFailRecord(ip string) int {
	ctx, cancel := redisCtx(abuseOpTimeout)
	defer cancel()
	key := regKey("failhour", ip, time.Now().Format("2006010215"))
	n, err := GetRedis().Incr(ctx, key).Result()
	if err != nil {
		return 0
	}
	_ = GetRedis().Expire(ctx, key, time.Hour).Err()
	return int(n)
}

// RegistrationIsBanned reports whether the IP is serving a temporary ban.
func RegistrationIsBanned(ip string) bool {
	ctx, cancel := redisCtx(abuseOpTimeout)
	defer cancel()
	n, err := GetRedis().Exists(ctx, regKey("ban", ip)).Result()
	if err != nil {
		return false
	}
	return n > 0
}

// RegistrationBan places a temporary ban on the IP.
func RegistrationBan(ip string) {
	minutes := config.Get().RegisterTempBanMinutes
	if minutes <= 0 {
		minutes = 60
	}
	ctx, cancel := redisCtx(abuseOpTimeout)
	defer cancel()
	_ = GetRedis().Set(ctx, regKey("ban", ip), "1", time.Duration(minutes)*time.Minute).Err()
}

func dailySuccessKey(ip string) string {
	return regKey("succday", ip, time.Now().Format("20060102"))
}
