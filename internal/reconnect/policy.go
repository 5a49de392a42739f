// Package reconnect schedules re-joins after a connection drops.
//
// The policy is deliberately flat: one fixed delay, no backoff, no jitter and
// no attempt limit. Whether a fired retry still applies is decided by the
// caller, which compares the token handed back with its current connection.
package reconnect

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultDelay is the wait between a close and the next join attempt.
const DefaultDelay = 3 * time.Second

// Policy arms retry timers.
type Policy struct {
	delay time.Duration
	clock clock.Clock
}

// New builds a policy. A non-positive delay falls back to DefaultDelay and a nil clock to the wall clock.
func New(delay time.Duration, clk clock.Clock) *Policy {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Policy{delay: delay, clock: clk}
}

// Delay returns the configured wait.
func (p *Policy) Delay() time.Duration {
	return p.delay
}

// Schedule calls fire(token) once the delay elapses unless the returned handle is stopped first.
// fire runs on a timer goroutine.
func (p *Policy) Schedule(token string, fire func(token string)) *Pending {
	return &Pending{
		token: token,
		timer: p.clock.AfterFunc(p.delay, func() { fire(token) }),
	}
}

// Pending is a scheduled retry.
type Pending struct {
	token string
	timer *clock.Timer
	once  sync.Once
}

// Token is the connection identity the retry was scheduled for.
func (p *Pending) Token() string {
	if p == nil {
		return ""
	}
	return p.token
}

// Stop cancels the retry. It reports whether this call prevented the timer from firing.
// Safe on a nil handle and safe to call more than once.
func (p *Pending) Stop() bool {
	if p == nil {
		return false
	}
	stopped := false
	p.once.Do(func() {
		stopped = p.timer.Stop()
	})
	return stopped
}
