package bot

import (
	"sync"
	"time"
)

// maxCooldownEntries bounds the tracker so a busy subreddit cannot grow it
// without limit; oldest entries are evicted first.
const maxCooldownEntries = 4096

// Cooldown remembers keys for a rolling window. It backs both the per-comment
// reply guard and the per-type post rate limit.
type Cooldown struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time
	now    func() time.Time
}

func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{
		window: window,
		seen:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// Touch records key and reports whether it was cold. A false return means the
// key was already touched inside the window and the caller should skip.
func (c *Cooldown) Touch(key string) bool {
	if key == "" {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.evictLocked(now)

	if last, ok := c.seen[key]; ok && now.Sub(last) < c.window {
		return false
	}
	c.seen[key] = now
	return true
}

// Active reports whether key is currently cooling down, without touching it.
func (c *Cooldown) Active(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	last, ok := c.seen[key]
	return ok && c.now().Sub(last) < c.window
}

func (c *Cooldown) evictLocked(now time.Time) {
	for key, last := range c.seen {
		if now.Sub(last) >= c.window {
			delete(c.seen, key)
		}
	}
	if len(c.seen) < maxCooldownEntries {
		return
	}

	oldestKey := ""
	oldest := now
	for key, last := range c.seen {
		if last.Before(oldest) {
			oldest = last
			oldestKey = key
		}
	}
	if oldestKey != "" {
		delete(c.seen, oldestKey)
	}
}
