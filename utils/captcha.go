package utils

import "github.com/mojocn/base64Captcha"

// captchaStore defaults to in-memory; UseRedisCaptchaStore swaps it at boot
// for multi-instance deployments.
var captchaStore base64Captcha.Store = base64Captcha.DefaultMemStore

// GenerateCaptcha issues a five-digit challenge, returning its id and a
// base64 data URI for the client to render.
func GenerateCaptcha() (string, string, error) {
	driver := base64Captcha.NewDriverDigit(40, 120, 5, 0.7, 80)
	id, b64, _, err := base64Captcha.NewCaptcha(driver, captchaStore).Generate()
	return id, b64, err
}

// VerifyCaptcha checks the answer, consuming the challenge on success.
func VerifyCaptcha(id, answer string) bool {
	if id == "" || answer == "" {
		return false
	}
	return captchaStore.Verify(id, answer, true)
}

// UseRedisCaptchaStore moves captcha state into Redis. Call once at boot.
func UseRedisCaptchaStore() {
	captchaStore = NewRedisCaptchaStore(0)
}
