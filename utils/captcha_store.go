package utils

import (
	"time"

	"github.com/mojocn/base64Captcha"
)

// redisCaptchaStore keeps captcha answers in Redis so verification works
// across instances behind a load balancer.
type redisCaptchaStore struct {
	ttl time.Duration
}

// NewRedisCaptchaStore builds a base64Captcha.Store with the given answer
// TTL (10 minutes when zero).
func NewRedisCaptchaStore(ttl time.Duration) base64Captcha.Store {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &redisCaptchaStore{ttl: ttl}
}

func (s *redisCaptchaStore) key(id string) string {
	return "captcha:" + id
}

// Set stores the captcha answer.
func (s *redisCaptchaStore) Set(id string, value string) error {
	rc := GetRedis()
	if rc == nil {
		return nil
	}
	ctx, cancel := redisCtx(2 * time.Second)
	defer cancel()
	return rc.Set(ctx, s.key(id), value, s.ttl).Err()
}

// Get returns the stored answer, removing it when clear is set.
func (s *redisCaptchaStore) Get(id string, clear bool) string {
	rc := GetRedis()
	if rc == nil {
		return ""
	}
	ctx, cancel := redisCtx(2 * time.Second)
	defer cancel()
	key := s.key(id)

	if !clear {
		v, err := rc.Get(ctx, key).Result()
		if err != nil {
			return ""
		}
		return v
	}

	if v, err := rc.GetDel(ctx, key).Result(); err == nil {
		return v
	}
	if res, err := rc.Eval(ctx, getDelScript, []string{key}).Result(); err == nil {
		if v, ok := res.(string); ok {
			return v
		}
	}
	return ""
}

// Verify compares the answer, consuming the captcha when clear is set.
func (s *redisCaptchaStore) Verify(id, answer string, clear bool) bool {
	v := s.Get(id, clear)
	return v != "" && v == answer
}
