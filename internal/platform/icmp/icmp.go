// Package icmp sends single ICMP echo requests to cluster instances.
package icmp

import (
	"context"
	"errors"
	"fmt"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

const defaultTimeout = 5 * time.Second

// ErrNoReply is returned when the echo request went unanswered.
var ErrNoReply = errors.New("no echo reply")

// Pinger sends one echo request per call.
type Pinger struct {
	timeout    time.Duration
	privileged bool

	newPinger func(addr string) (*probing.Pinger, error)
}

// Option configures a Pinger.
type Option func(*Pinger)

// WithTimeout bounds the wait for the echo reply.
func WithTimeout(d time.Duration) Option {
	return func(p *Pinger) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithPrivileged switches from unprivileged UDP pings to raw ICMP sockets,
// which require CAP_NET_RAW.
func WithPrivileged(privileged bool) Option {
	return func(p *Pinger) {
		p.privileged = privileged
	}
}

// NewPinger creates a Pinger.
func NewPinger(opts ...Option) *Pinger {
	p := &Pinger{
		timeout:   defaultTimeout,
		newPinger: probing.NewPinger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ping sends one echo request to address and waits for the reply.
func (p *Pinger) Ping(ctx context.Context, address string) error {
	pinger, err := p.newPinger(address)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", address, err)
	}

	pinger.Count = 1
	pinger.Timeout = p.timeout
	pinger.SetPrivileged(p.privileged)

	if err := pinger.RunWithContext(ctx); err != nil {
		return fmt.Errorf("failed to ping %s: %w", address, err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to ping %s: %w", address, err)
	}

	if pinger.Statistics().PacketsRecv == 0 {
		return fmt.Errorf("ping %s: %w", address, ErrNoReply)
	}
	return nil
}
