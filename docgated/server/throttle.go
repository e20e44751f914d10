package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	maxTrackedSubjects = 4096
	minLimiterIdle     = time.Minute
)

type subjectEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// subjectLimiter rate limits tool calls per user. A zero rate disables it.
// Limiters idle long enough to have refilled are dropped, and at most
// maxTrackedSubjects are held at once.
type subjectLimiter struct {
	rps   int
	burst int
	idle  time.Duration
	max   int
	now   func() time.Time

	mu        sync.Mutex
	limiters  map[string]*subjectEntry
	lastSweep time.Time
}

func newSubjectLimiter(rps, burst int) *subjectLimiter {
	if burst < rps {
		burst = rps
	}
	idle := minLimiterIdle
	if rps > 0 {
		// A bucket idle for burst/rps seconds is full again.
		if refill := time.Duration(burst) * time.Second / time.Duration(rps); refill > idle {
			idle = refill
		}
	}
	return &subjectLimiter{
		rps:      rps,
		burst:    burst,
		idle:     idle,
		max:      maxTrackedSubjects,
		now:      time.Now,
		limiters: map[string]*subjectEntry{},
	}
}

func (l *subjectLimiter) Allow(subject string) bool {
	if l.rps <= 0 {
		return true
	}
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}
	entry, ok := l.limiters[subject]
	if !ok {
		if len(l.limiters) >= l.max {
			l.evictOldest()
		}
		entry = &subjectEntry{limiter: rate.NewLimiter(rate.Limit(l.rps), l.burst)}
		l.limiters[subject] = entry
	}
	entry.lastSeen = now
	l.mu.Unlock()

	return entry.limiter.AllowN(now, 1)
}

func (l *subjectLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// sweep must be called with mu held.
func (l *subjectLimiter) sweep(now time.Time) {
	for subject, entry := range l.limiters {
		if now.Sub(entry.lastSeen) >= l.idle {
			delete(l.limiters, subject)
		}
	}
	l.lastSweep = now
}

// evictOldest must be called with mu held.
func (l *subjectLimiter) evictOldest() {
	var oldest string
	var oldestEntry *subjectEntry
	for subject, entry := range l.limiters {
		if oldestEntry == nil || entry.lastSeen.Before(oldestEntry.lastSeen) {
			oldest, oldestEntry = subject, entry
		}
	}
	if oldestEntry != nil {
		delete(l.limiters, oldest)
	}
}
