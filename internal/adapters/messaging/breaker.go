package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/andrescamacho/mediator-go/internal/application/common"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
	"github.com/andrescamacho/mediator-go/internal/infrastructure/config"
)

// BreakerState is the forwarding state of a BreakingPublisher
type BreakerState int

const (
	// BreakerClosed forwards every event
	BreakerClosed BreakerState = iota
	// BreakerOpen drops events until the cooldown has passed
	BreakerOpen
	// BreakerHalfOpen forwards one probe to test whether the broker recovered
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return fmt.Sprintf("BreakerState(%d)", int(s))
	}
}

// ErrBreakerOpen is returned for events dropped while the broker is considered down
var ErrBreakerOpen = errors.New("event forwarding suspended: breaker open")

// BreakingPublisher stops calling a failing publisher after MaxFailures
// consecutive errors and retries once Cooldown has passed.
type BreakingPublisher struct {
	next        common.EventPublisher
	maxFailures int
	cooldown    time.Duration
	clock       shared.Clock

	mu          sync.Mutex
	state       BreakerState
	failures    int
	lastFailure time.Time
	probing     bool
}

// NewBreakingPublisher wraps next. A nil clock uses the real clock.
func NewBreakingPublisher(next common.EventPublisher, cfg config.BreakerConfig, clock shared.Clock) *BreakingPublisher {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	maxFailures := cfg.MaxFailures
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &BreakingPublisher{
		next:        next,
		maxFailures: maxFailures,
		cooldown:    cfg.Cooldown,
		clock:       clock,
	}
}

func (p *BreakingPublisher) PublishEvent(ctx context.Context, event shared.Event) error {
	if !p.allow() {
		return fmt.Errorf("%s %s: %w", event.EventType(), event.EventID(), ErrBreakerOpen)
	}

	// the broker call runs unlocked so a slow publish does not block other events
	err := p.next.PublishEvent(ctx, event)

	// the caller giving up says nothing about broker health
	if err != nil && ctx.Err() != nil {
		p.release()
		return err
	}
	p.record(err)
	return err
}

func (p *BreakingPublisher) Close() error {
	return p.next.Close()
}

// State returns the current breaker state
func (p *BreakingPublisher) State() BreakerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *BreakingPublisher) allow() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case BreakerOpen:
		if p.clock.Now().Sub(p.lastFailure) < p.cooldown {
			return false
		}
		p.state = BreakerHalfOpen
		p.probing = true
		return true
	case BreakerHalfOpen:
		// one probe at a time
		if p.probing {
			return false
		}
		p.probing = true
		return true
	default:
		return true
	}
}

func (p *BreakingPublisher) release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.probing = false
}

func (p *BreakingPublisher) record(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.probing = false

	if err == nil {
		p.failures = 0
		p.state = BreakerClosed
		return
	}

	p.failures++
	p.lastFailure = p.clock.Now()
	if p.state == BreakerHalfOpen || p.failures >= p.maxFailures {
		p.state = BreakerOpen
	}
}
