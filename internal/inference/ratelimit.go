package inference

import (
	"sync"
	"time"

	"github.com/velolab/ride-coach/internal/domain"
)

// planLimits are the published per-plan quotas.
var planLimits = map[domain.Plan]struct {
	perDay    int
	perMinute int
}{
	domain.PlanFree: {perDay: 50, perMinute: 10},
	domain.PlanPro:  {perDay: 500, perMinute: 60},
}

// rateLimiter tracks local request counts so the gateway can back off
// before the remote side would answer 429.
type rateLimiter struct {
	mu        sync.Mutex
	perDay    int
	perMinute int

	dayStart    time.Time
	dayCount    int
	minuteStart time.Time
	minuteCount int
}

func newRateLimiter(plan domain.Plan) *rateLimiter {
	limits, ok := planLimits[plan]
	if !ok {
		limits = planLimits[domain.PlanFree]
	}
	return &rateLimiter{perDay: limits.perDay, perMinute: limits.perMinute}
}

func (l *rateLimiter) allow(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	day := now.Truncate(24 * time.Hour)
	if !day.Equal(l.dayStart) {
		l.dayStart = day
		l.dayCount = 0
	}
	minute := now.Truncate(time.Minute)
	if !minute.Equal(l.minuteStart) {
		l.minuteStart = minute
		l.minuteCount = 0
	}

	if l.dayCount >= l.perDay || l.minuteCount >= l.perMinute {
		return false
	}
	l.dayCount++
	l.minuteCount++
	return true
}
