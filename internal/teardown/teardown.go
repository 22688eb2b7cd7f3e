// Package teardown destroys every resource of a prefix-scoped cluster.
//
// Destroy sweeps, in order, compute instances, DNS records, Chef nodes, Chef
// clients and object-storage buckets. The steps are independent: a failing
// step is recorded and the remaining steps still run, so a re-run only has
// to pick up what was left behind.
package teardown

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
)

// Step names, in execution order.
const (
	StepInstances   = "instances"
	StepDNS         = "dns"
	StepChefNodes   = "chef-nodes"
	StepChefClients = "chef-clients"
	StepBuckets     = "buckets"
)

// ErrEmptyPrefix guards against sweeping every resource of an account.
var ErrEmptyPrefix = errors.New("refusing to tear down with an empty prefix")

// InstanceSweeper deletes compute instances by name prefix.
type InstanceSweeper interface {
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
}

// RecordSweeper deletes DNS records of domain by relative name prefix.
type RecordSweeper interface {
	RemoveByPrefix(ctx context.Context, domain, prefix string) (int, error)
}

// RegistrationSweeper deletes configuration-management registrations.
type RegistrationSweeper interface {
	RemoveNodesByPrefix(ctx context.Context, prefix string) (int, error)
	RemoveClientsByPrefix(ctx context.Context, prefix string) (int, error)
}

// BucketSweeper deletes object-storage buckets, including their contents,
// by name prefix.
type BucketSweeper interface {
	DeleteBucketsByPrefix(ctx context.Context, prefix string) (int, error)
}

// Error represents accumulated errors from teardown steps.
type Error struct {
	Errors []error
}

func (e *Error) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("teardown encountered %d errors: %v", len(e.Errors), errors.Join(e.Errors...))
}

func (e *Error) Unwrap() []error {
	return e.Errors
}

// Add records err if it is not nil.
func (e *Error) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors reports whether any step failed.
func (e *Error) HasErrors() bool {
	return len(e.Errors) > 0
}

// StepResult is the outcome of one teardown step. Reason explains a skip.
type StepResult struct {
	Name    string
	Deleted int
	Skipped bool
	Reason  string
	Err     error
}

// Report lists the outcome of every step in execution order.
type Report struct {
	Prefix string
	Steps  []StepResult
}

// Deleted returns the total number of deleted resources.
func (r *Report) Deleted() int {
	total := 0
	for _, s := range r.Steps {
		total += s.Deleted
	}
	return total
}

// Step returns the result of the named step.
func (r *Report) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}

// Orchestrator runs the teardown steps against the configured systems.
// Systems that were not configured are reported as skipped.
type Orchestrator struct {
	instances     InstanceSweeper
	records       RecordSweeper
	registrations RegistrationSweeper
	buckets       BucketSweeper
	log           logr.Logger

	observe    func(step string, deleted int)
	stepErrors map[string]error
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDNS enables the DNS step.
func WithDNS(records RecordSweeper) Option {
	return func(o *Orchestrator) {
		o.records = records
	}
}

// WithConfigManagement enables the Chef node and client steps.
func WithConfigManagement(registrations RegistrationSweeper) Option {
	return func(o *Orchestrator) {
		o.registrations = registrations
	}
}

// WithBuckets enables the object-storage step.
func WithBuckets(buckets BucketSweeper) Option {
	return func(o *Orchestrator) {
		o.buckets = buckets
	}
}

// WithObserver registers fn to be called with the deletion count of every
// step that ran.
func WithObserver(fn func(step string, deleted int)) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.observe = fn
		}
	}
}

// WithStepError marks step as failed with err before it runs, typically
// because the client for that system could not be built. The other steps
// still run and err is joined into the result.
func WithStepError(step string, err error) Option {
	return func(o *Orchestrator) {
		if err != nil {
			o.stepErrors[step] = err
		}
	}
}

// NewOrchestrator creates an Orchestrator. Instances are swept whenever an
// InstanceSweeper is given.
func NewOrchestrator(instances InstanceSweeper, log logr.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		instances:  instances,
		log:        log.WithName("teardown"),
		observe:    func(string, int) {},
		stepErrors: map[string]error{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Destroy removes everything belonging to the cluster identified by prefix.
// DNS records are only swept when dnsDomain is set. The returned report is
// always complete; the error is a *Error joining every failed step.
func (o *Orchestrator) Destroy(ctx context.Context, prefix, dnsDomain string) (*Report, error) {
	if prefix == "" {
		return nil, ErrEmptyPrefix
	}

	o.log.Info("[Teardown] Destroying cluster", "prefix", prefix, "dnsDomain", dnsDomain)

	report := &Report{Prefix: prefix}
	errs := &Error{}

	run := func(name string, skipReason string, fn func(context.Context) (int, error)) {
		if err, ok := o.stepErrors[name]; ok {
			o.log.Error(err, "[Teardown] Step could not start, continuing", "step", name)
			report.Steps = append(report.Steps, StepResult{Name: name, Err: err})
			errs.Add(fmt.Errorf("%s: %w", name, err))
			return
		}
		if skipReason != "" {
			o.log.Info("[Teardown] Skipping step", "step", name, "reason", skipReason)
			report.Steps = append(report.Steps, StepResult{Name: name, Skipped: true, Reason: skipReason})
			return
		}
		if err := ctx.Err(); err != nil {
			report.Steps = append(report.Steps, StepResult{Name: name, Err: err})
			errs.Add(fmt.Errorf("%s: %w", name, err))
			return
		}

		deleted, err := fn(ctx)
		o.observe(name, deleted)
		result := StepResult{Name: name, Deleted: deleted, Err: err}
		if err != nil {
			o.log.Error(err, "[Teardown] Step failed, continuing", "step", name, "deleted", deleted)
			errs.Add(fmt.Errorf("%s: %w", name, err))
		} else {
			o.log.Info("[Teardown] Step complete", "step", name, "deleted", deleted)
		}
		report.Steps = append(report.Steps, result)
	}

	instanceSkip := ""
	if o.instances == nil {
		instanceSkip = "no compute provider configured"
	}
	run(StepInstances, instanceSkip, func(ctx context.Context) (int, error) {
		return o.instances.DeleteByPrefix(ctx, prefix)
	})

	dnsSkip := ""
	switch {
	case o.records == nil:
		dnsSkip = "no DNS provider configured"
	case dnsDomain == "":
		dnsSkip = "no DNS domain given"
	}
	run(StepDNS, dnsSkip, func(ctx context.Context) (int, error) {
		return o.records.RemoveByPrefix(ctx, dnsDomain, prefix)
	})

	chefSkip := ""
	if o.registrations == nil {
		chefSkip = "no Chef server configured"
	}
	run(StepChefNodes, chefSkip, func(ctx context.Context) (int, error) {
		return o.registrations.RemoveNodesByPrefix(ctx, prefix)
	})
	run(StepChefClients, chefSkip, func(ctx context.Context) (int, error) {
		return o.registrations.RemoveClientsByPrefix(ctx, prefix)
	})

	bucketSkip := ""
	if o.buckets == nil {
		bucketSkip = "no object storage configured"
	}
	run(StepBuckets, bucketSkip, func(ctx context.Context) (int, error) {
		return o.buckets.DeleteBucketsByPrefix(ctx, prefix)
	})

	if errs.HasErrors() {
		return report, errs
	}
	o.log.Info("[Teardown] Cluster destroyed", "prefix", prefix, "deleted", report.Deleted())
	return report, nil
}
