package utils

import (
	"sync"
	"time"
)

const stateKeyPrefix = "oauth:state:"

// getDelScript atomically reads and removes a key on servers predating
// GETDEL (Redis < 6.2).
const getDelScript = `local v=redis.call('GET', KEYS[1]); if v then redis.call('DEL', KEYS[1]); end; return v`

var (
	memoryStates   = map[string]time.Time{}
	memoryStatesMu sync.Mutex
)

// SaveState records an OAuth state token for later single-use validation.
func SaveState(state string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := redisCtx(2 * time.Second)
		defer cancel()
		if rc.Set(ctx, stateKeyPrefix+state, "1", ttl).Err() == nil {
			return
		}
	}
	memoryStatesMu.Lock()
	memoryStates[state] = time.Now().Add(ttl)
	memoryStatesMu.Unlock()
}

// ConsumeState validates a state token and burns it, so a replayed callback
// fails.
func ConsumeState(state string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := redisCtx(2 * time.Second)
		defer cancel()
		key := stateKeyPrefix + state
		if v, err := rc.GetDel(ctx, key).Result(); err == nil {
			return v != ""
		}
		if res, err := rc.Eval(ctx, getDelScript, []string{key}).Result(); err == nil {
			return res != nil
		}
	}

	memoryStatesMu.Lock()
	expiresAt, ok := memoryStates[state]
	if ok {
		delete(memoryStates, state)
	}
	memoryStatesMu.Unlock()
	return ok && time.Now().Before(expiresAt)
}
