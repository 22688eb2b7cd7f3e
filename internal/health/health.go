// Package health decides whether freshly booted instances are usable.
//
// An instance is healthy when it answers one ICMP echo and, over SSH, reports
// a hostname whose first label equals the instance name. Health is a verdict,
// never an error: every failure mode yields an unhealthy Result.
package health

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/imamik/magnet/internal/compute"
	"github.com/imamik/magnet/internal/platform/ssh"
	"github.com/imamik/magnet/internal/util/retry"
)

const hostnameCommand = "hostname"

// InstanceGetter refreshes an instance's provider state.
type InstanceGetter interface {
	GetInstance(ctx context.Context, id string) (*compute.Instance, error)
}

// Pinger sends a single ICMP echo request.
type Pinger interface {
	Ping(ctx context.Context, address string) error
}

// RemoteRunner runs one command on a remote host.
type RemoteRunner interface {
	Run(ctx context.Context, host, command string) (ssh.ExecResult, error)
}

// Options tune polling and parallelism. Zero values select the defaults.
type Options struct {
	PollAttempts int
	PollInterval time.Duration
	Concurrency  int
	Timeout      time.Duration
}

const (
	defaultPollAttempts = 60
	defaultPollInterval = 5 * time.Second
	defaultConcurrency  = 4
	defaultTimeout      = 10 * time.Minute
)

// Result is the health verdict for one instance. Reason explains an
// unhealthy verdict.
type Result struct {
	Instance *compute.Instance
	Healthy  bool
	Reason   string
}

// Prober checks instance health.
type Prober struct {
	instances InstanceGetter
	pinger    Pinger
	runner    RemoteRunner
	opts      Options
	log       logr.Logger

	observe func(Result, time.Duration)
}

// NewProber creates a Prober.
func NewProber(instances InstanceGetter, pinger Pinger, runner RemoteRunner, opts Options, log logr.Logger) *Prober {
	if opts.PollAttempts <= 0 {
		opts.PollAttempts = defaultPollAttempts
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	return &Prober{
		instances: instances,
		pinger:    pinger,
		runner:    runner,
		opts:      opts,
		log:       log.WithName("health"),
		observe:   func(Result, time.Duration) {},
	}
}

// OnResult registers fn to be called after every probe with its verdict and
// duration.
func (p *Prober) OnResult(fn func(Result, time.Duration)) {
	if fn != nil {
		p.observe = fn
	}
}

// Probe waits for a building instance to settle, then checks reachability
// and identity.
func (p *Prober) Probe(ctx context.Context, instance *compute.Instance) Result {
	start := time.Now()
	res := p.probe(ctx, instance)
	p.observe(res, time.Since(start))

	if res.Healthy {
		p.log.Info("[Probe] Instance healthy", "name", res.Instance.Name, "address", res.Instance.Address)
	} else {
		p.log.Info("[Probe] Instance unhealthy", "name", res.Instance.Name, "reason", res.Reason)
	}
	return res
}

func (p *Prober) probe(ctx context.Context, instance *compute.Instance) Result {
	if instance.Status == compute.StatusError {
		return unhealthy(instance, "instance is in error state")
	}

	if instance.Status.Transient() {
		settled, err := p.waitSettled(ctx, instance)
		if err != nil {
			return unhealthy(instance, err.Error())
		}
		instance = settled
		if instance.Status != compute.StatusActive {
			return unhealthy(instance, fmt.Sprintf("instance settled in %s state", instance.Status))
		}
	}

	if instance.Address == "" {
		return unhealthy(instance, "instance has no address")
	}

	if err := p.pinger.Ping(ctx, instance.Address); err != nil {
		return unhealthy(instance, fmt.Sprintf("ping failed: %v", err))
	}

	res, err := p.runner.Run(ctx, instance.Address, hostnameCommand)
	if err != nil {
		var execErr *ssh.RemoteExecError
		if errors.As(err, &execErr) {
			p.log.V(1).Info("[Probe] Remote execution failed", "name", instance.Name, "error", err.Error())
		} else {
			p.log.Error(err, "[Probe] Unexpected error while checking hostname", "name", instance.Name)
		}
		return unhealthy(instance, fmt.Sprintf("ssh failed: %v", err))
	}
	if res.ExitStatus != 0 {
		return unhealthy(instance, fmt.Sprintf("hostname exited with status %d", res.ExitStatus))
	}

	short := shortHostname(res.Output)
	if short != instance.Name {
		return unhealthy(instance, fmt.Sprintf("hostname %q does not match instance name", short))
	}

	return Result{Instance: instance, Healthy: true}
}

// waitSettled polls the provider until the instance leaves its transient
// states.
func (p *Prober) waitSettled(ctx context.Context, instance *compute.Instance) (*compute.Instance, error) {
	current := instance
	p.log.Info("[Probe] Waiting for instance to become active", "name", instance.Name, "status", instance.Status)

	err := retry.Poll(ctx, p.opts.PollAttempts, p.opts.PollInterval, func(ctx context.Context) (bool, error) {
		refreshed, err := p.instances.GetInstance(ctx, instance.ID)
		if err != nil {
			return false, fmt.Errorf("failed to refresh instance: %w", err)
		}
		current = refreshed
		return current.Status == compute.StatusActive || current.Status == compute.StatusError, nil
	})
	if errors.Is(err, retry.ErrPollExhausted) {
		return nil, fmt.Errorf("instance still %s after %d polls", current.Status, p.opts.PollAttempts)
	}
	if err != nil {
		return nil, err
	}
	return current, nil
}

// ProbeAll probes instances in parallel under one overall deadline. Results
// follow the order of instances.
func (p *Prober) ProbeAll(ctx context.Context, instances []*compute.Instance) []Result {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	results := make([]Result, len(instances))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for i, instance := range instances {
		g.Go(func() error {
			results[i] = p.Probe(gctx, instance)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// AllHealthy reports whether every result is healthy.
func AllHealthy(results []Result) bool {
	for _, r := range results {
		if !r.Healthy {
			return false
		}
	}
	return true
}

func shortHostname(output string) string {
	host := strings.TrimSpace(output)
	label, _, _ := strings.Cut(host, ".")
	return label
}

func unhealthy(instance *compute.Instance, reason string) Result {
	return Result{Instance: instance, Reason: reason}
}
