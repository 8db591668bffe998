package session

import (
	"context"
	"encoding/gob"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/redis/go-redis/v9"
)

const (
	keyFlashes  = "flashes"
	keyCurrency = "currency"
	keyLocale   = "locale"
)

func init() {
	// session values are gob encoded; the flash list is the only non-scalar
	gob.Register([]string{})
}

// NewManager builds the session manager every request runs under. The guest
// cart is keyed by the token this manager issues.
func NewManager(cache *redis.Client) *scs.SessionManager {
	manager := scs.New()
	manager.Store = NewRedisStore(cache)
	manager.Lifetime = 30 * 24 * time.Hour
	manager.Cookie.Name = "session"
	manager.Cookie.HttpOnly = true
	manager.Cookie.Persist = true
	return manager
}

// AddFlash queues a notice to be shown on the next cart view.
func AddFlash(c context.Context, manager *scs.SessionManager, message string) {
	flashes, _ := manager.Get(c, keyFlashes).([]string)
	manager.Put(c, keyFlashes, append(flashes, message))
}

// PopFlashes drains the queued notices.
func PopFlashes(c context.Context, manager *scs.SessionManager) []string {
	flashes, _ := manager.Pop(c, keyFlashes).([]string)
	return flashes
}

func Currency(c context.Context, manager *scs.SessionManager, fallback string) string {
	if currency := manager.GetString(c, keyCurrency); currency != "" {
		return currency
	}
	return fallback
}

func SetCurrency(c context.Context, manager *scs.SessionManager, currency string) {
	manager.Put(c, keyCurrency, currency)
}

func Locale(c context.Context, manager *scs.SessionManager, fallback string) string {
	if locale := manager.GetString(c, keyLocale); locale != "" {
		return locale
	}
	return fallback
}
