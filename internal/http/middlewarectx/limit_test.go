package middlewarectx

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_EvictsIdleLimiters(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	current := start

	l := NewRateLimiter(10, 5)
	l.now = func() time.Time { return current }
	l.lastSweep = start

	for i := 0; i < 100; i++ {
		l.limiter(fmt.Sprintf("addr:10.0.0.%d", i))
	}
	assert.Len(t, l.limiters, 100)

	current = start.Add(IdleTTL / 2)
	l.limiter("principal:active")

	current = start.Add(IdleTTL)
	l.limiter("principal:active")

	assert.Len(t, l.limiters, 1)
	assert.Contains(t, l.limiters, "principal:active")
}

func TestRateLimiter_IdleTTL(t *testing.T) {
	tests := []struct {
		name  string
		rps   float64
		burst int
		want  time.Duration
	}{
		{name: "fast refill uses default", rps: 10, burst: 20, want: IdleTTL},
		{name: "slow refill waits for full burst", rps: 0.5, burst: 600, want: 20 * time.Minute},
		{name: "zero rate uses default", rps: 0, burst: 2, want: IdleTTL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewRateLimiter(tt.rps, tt.burst).idleTTL)
		})
	}
}

func TestRateLimiter_ActiveKeyKeepsLimiter(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	current := start

	l := NewRateLimiter(1, 1)
	l.now = func() time.Time { return current }
	l.lastSweep = start

	lim := l.limiter("principal:user")
	assert.True(t, lim.AllowN(current, 1))
	assert.False(t, lim.AllowN(current, 1))

	// Пока ключ активен, ограничитель тот же и лимит сохраняется.
	current = start.Add(time.Second / 2)
	assert.Same(t, lim, l.limiter("principal:user"))
}
