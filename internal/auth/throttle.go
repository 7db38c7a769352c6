package auth

import (
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// loginThrottle counts failed logins per username and client address.
// Counters expire window after the first failure.
type loginThrottle struct {
	attempts    *cache.Cache
	maxAttempts int
	window      time.Duration
}

func newLoginThrottle(maxAttempts int, window time.Duration) *loginThrottle {
	return &loginThrottle{
		attempts:    cache.New(window, 2*window),
		maxAttempts: maxAttempts,
		window:      window,
	}
}

func throttleKey(username, ip string) string {
	return strings.ToLower(username) + "|" + ip
}

func (t *loginThrottle) blocked(key string) bool {
	if t.maxAttempts <= 0 {
		return false
	}
	count, found := t.attempts.Get(key)
	if !found {
		return false
	}
	n, _ := count.(int)
	return n >= t.maxAttempts
}

func (t *loginThrottle) fail(key string) {
	if _, err := t.attempts.IncrementInt(key, 1); err != nil {
		t.attempts.Set(key, 1, t.window)
	}
}

func (t *loginThrottle) reset(key string) {
	t.attempts.Delete(key)
}
