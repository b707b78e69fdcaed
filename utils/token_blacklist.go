package utils

import (
	"sync"
	"time"
)

const blacklistKeyPrefix = "jwt:blacklist:"

// memoryBlacklist backs logout when Redis is unavailable. Single-instance
// only; entries expire with the token they shadow.
var (
	memoryBlacklist   = map[string]time.Time{}
	memoryBlacklistMu sync.RWMutex
)

// BlacklistToken revokes a token until its natural expiry.
func BlacklistToken(token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := redisCtx(2 * time.Second)
		defer cancel()
		if rc.Set(ctx, blacklistKeyPrefix+token, "1", ttl).Err() == nil {
			return
		}
	}
	memoryBlacklistMu.Lock()
	memoryBlacklist[token] = expiresAt
	memoryBlacklistMu.Unlock()
}

// IsTokenBlacklisted reports whether a token was revoked before expiry.
// Redis errors fail open so an outage cannot lock everyone out.
func IsTokenBlacklisted(token string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := redisCtx(2 * time.Second)
		defer cancel()
		if n, err := rc.Exists(ctx, blacklistKeyPrefix+token).Result(); err == nil {
			return n > 0
		}
	}

	memoryBlacklistMu.RLock()
	expiresAt, ok := memoryBlacklist[token]
	memoryBlacklistMu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(expiresAt) {
		memoryBlacklistMu.Lock()
		delete(memoryBlacklist, token)
		memoryBlacklistMu.Unlock()
		return false
	}
	return true
}
