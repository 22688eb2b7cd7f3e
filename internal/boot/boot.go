// Package boot brings up every server of a cluster template.
//
// Boot creates the instances, optionally waits for them to become healthy,
// publishes their addresses in DNS and runs chef-client on them in the order
// the template prescribes. Nothing is rolled back on failure: a partial
// cluster is removed with teardown.
package boot

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/go-logr/logr"

	"github.com/imamik/magnet/internal/compute"
	"github.com/imamik/magnet/internal/config"
	"github.com/imamik/magnet/internal/health"
	"github.com/imamik/magnet/internal/util/async"
	"github.com/imamik/magnet/internal/util/labels"
	"github.com/imamik/magnet/internal/util/naming"
)

// ConvergeCommand is run over SSH on every server of a chef run.
const ConvergeCommand = "chef-client"

var (
	// ErrUnhealthy is returned when convergence was requested but some
	// instances failed their health probe.
	ErrUnhealthy = errors.New("instances are unhealthy")

	// ErrNoDNSDomain is returned when DNS registration is requested without
	// a domain.
	ErrNoDNSDomain = errors.New("dns registration requires a DNS domain")
)

// Creator provisions a single instance.
type Creator interface {
	Create(ctx context.Context, req compute.CreateRequest) (*compute.Instance, error)
}

// RecordAdder publishes one DNS record.
type RecordAdder interface {
	Add(ctx context.Context, domain, name, recordType, data string) error
}

// HealthProber probes a batch of instances.
type HealthProber interface {
	ProbeAll(ctx context.Context, instances []*compute.Instance) []health.Result
}

// Request describes one boot.
type Request struct {
	Template     *config.Template
	Prefix       string
	SSHPublicKey string

	RegisterDNS bool
	DNSDomain   string
	Wait        bool
	Converge    bool
}

// Result reports what Boot did. It is returned alongside errors so callers
// can show partial progress.
type Result struct {
	Instances []*compute.Instance
	Health    []health.Result
	Records   []string
	Converged [][]string
}

// Orchestrator wires the components a boot needs. The registrar, prober and
// runner are only required by the corresponding request flags.
type Orchestrator struct {
	creator   Creator
	registrar RecordAdder
	prober    HealthProber
	runner    health.RemoteRunner
	log       logr.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRegistrar enables DNS registration.
func WithRegistrar(r RecordAdder) Option {
	return func(o *Orchestrator) { o.registrar = r }
}

// WithProber enables waiting for health.
func WithProber(p HealthProber) Option {
	return func(o *Orchestrator) { o.prober = p }
}

// WithRunner enables convergence.
func WithRunner(r health.RemoteRunner) Option {
	return func(o *Orchestrator) { o.runner = r }
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(creator Creator, log logr.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{creator: creator, log: log.WithName("boot")}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Boot creates the cluster described by req.
func (o *Orchestrator) Boot(ctx context.Context, req Request) (*Result, error) {
	if err := o.check(req); err != nil {
		return nil, err
	}

	result := &Result{}
	for _, server := range req.Template.Servers {
		name := naming.Instance(req.Prefix, server.Name)
		serverLabels := labels.NewLabelBuilder(req.Prefix).
			WithTemplate(req.Template.Name).
			WithServer(server.Name).
			Build()
		instance, err := o.creator.Create(ctx, compute.CreateRequest{
			Name:             name,
			Image:            server.Image,
			Flavor:           server.Flavor,
			Network:          server.Network,
			SSHPublicKeyPath: req.SSHPublicKey,
			Labels:           serverLabels,
		})
		if err != nil {
			return result, fmt.Errorf("failed to create %s: %w", name, err)
		}
		result.Instances = append(result.Instances, instance)
	}
	o.log.Info("[Boot] Instances created", "template", req.Template.Name, "count", len(result.Instances))

	if req.Wait {
		result.Health = o.prober.ProbeAll(ctx, result.Instances)
		for i, r := range result.Health {
			result.Instances[i] = r.Instance
		}
		if !health.AllHealthy(result.Health) {
			o.log.Info("[Boot] Some instances are unhealthy", "unhealthy", unhealthyNames(result.Health))
			if req.Converge {
				return result, fmt.Errorf("%w: %s", ErrUnhealthy, strings.Join(unhealthyNames(result.Health), ", "))
			}
		}
	}

	if req.RegisterDNS {
		if err := o.registerDNS(ctx, req.DNSDomain, result); err != nil {
			return result, err
		}
	}

	if req.Converge {
		if err := o.converge(ctx, req, result); err != nil {
			return result, err
		}
	}

	return result, nil
}

func (o *Orchestrator) check(req Request) error {
	if req.Template == nil {
		return fmt.Errorf("template is required")
	}
	if err := req.Template.Validate(); err != nil {
		return err
	}
	if req.RegisterDNS {
		if req.DNSDomain == "" {
			return ErrNoDNSDomain
		}
		if o.registrar == nil {
			return fmt.Errorf("dns registration requested but no DNS provider is configured")
		}
	}
	if req.Wait && o.prober == nil {
		return fmt.Errorf("waiting requested but no health prober is configured")
	}
	if req.Converge && o.runner == nil {
		return fmt.Errorf("convergence requested but no SSH runner is configured")
	}
	return nil
}

// registerDNS publishes an address record per instance. After a health
// probe only healthy instances are published.
func (o *Orchestrator) registerDNS(ctx context.Context, domain string, result *Result) error {
	unhealthy := make(map[string]bool, len(result.Health))
	for _, r := range result.Health {
		if !r.Healthy {
			unhealthy[r.Instance.Name] = true
		}
	}

	for _, instance := range result.Instances {
		if unhealthy[instance.Name] {
			o.log.Info("[DNS] Instance is unhealthy, skipping record", "name", instance.Name)
			continue
		}
		if instance.Address == "" {
			o.log.Info("[DNS] Instance has no address yet, skipping record", "name", instance.Name)
			continue
		}

		recordType, err := addressRecordType(instance.Address)
		if err != nil {
			return fmt.Errorf("instance %s: %w", instance.Name, err)
		}
		if err := o.registrar.Add(ctx, domain, instance.Name, recordType, instance.Address); err != nil {
			return fmt.Errorf("failed to register %s: %w", instance.Name, err)
		}
		result.Records = append(result.Records, instance.Name+"."+domain)
	}
	return nil
}

// converge runs chef-client on the servers of each chef run, one run after
// the other. Servers of one run converge in parallel. A template without
// chef runs converges all servers at once.
func (o *Orchestrator) converge(ctx context.Context, req Request, result *Result) error {
	byServer := make(map[string]*compute.Instance, len(result.Instances))
	for i, server := range req.Template.Servers {
		byServer[server.Name] = result.Instances[i]
	}

	runs := req.Template.ChefRuns
	if len(runs) == 0 {
		all := config.ChefRun{}
		for _, server := range req.Template.Servers {
			all.Servers = append(all.Servers, server.Name)
		}
		runs = []config.ChefRun{all}
	}

	for i, run := range runs {
		o.log.Info("[Converge] Starting chef run", "run", i+1, "of", len(runs), "servers", run.Servers)

		tasks := make([]async.Task, 0, len(run.Servers))
		for _, server := range run.Servers {
			instance := byServer[server]
			tasks = append(tasks, async.Task{
				Name: instance.Name,
				Func: func(ctx context.Context) error {
					return o.runChef(ctx, instance)
				},
			})
		}

		if err := async.RunParallel(ctx, tasks); err != nil {
			return fmt.Errorf("chef run %d failed: %w", i+1, err)
		}
		result.Converged = append(result.Converged, run.Servers)
	}

	return nil
}

func (o *Orchestrator) runChef(ctx context.Context, instance *compute.Instance) error {
	if instance.Address == "" {
		return fmt.Errorf("instance has no address")
	}

	res, err := o.runner.Run(ctx, instance.Address, ConvergeCommand)
	if err != nil {
		return err
	}
	if res.ExitStatus != 0 {
		o.log.V(1).Info("[Converge] chef-client output", "name", instance.Name, "output", res.Output)
		return fmt.Errorf("%s exited with status %d", ConvergeCommand, res.ExitStatus)
	}

	o.log.Info("[Converge] chef-client finished", "name", instance.Name)
	return nil
}

// addressRecordType returns "A" for IPv4 and "AAAA" for IPv6 addresses.
func addressRecordType(address string) (string, error) {
	addr, err := netip.ParseAddr(address)
	if err != nil {
		return "", fmt.Errorf("invalid address %q: %w", address, err)
	}
	if addr.Unmap().Is4() {
		return "A", nil
	}
	return "AAAA", nil
}

func unhealthyNames(results []health.Result) []string {
	var names []string
	for _, r := range results {
		if !r.Healthy {
			names = append(names, r.Instance.Name)
		}
	}
	return names
}
