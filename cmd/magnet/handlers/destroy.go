package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/imamik/magnet/internal/compute"
	"github.com/imamik/magnet/internal/config"
	"github.com/imamik/magnet/internal/configmgmt"
	"github.com/imamik/magnet/internal/dns"
	"github.com/imamik/magnet/internal/teardown"
)

// destroyOutput is where the teardown report is written.
var destroyOutput io.Writer = os.Stdout

// Destroy handles the delete command.
//
// It removes every instance, DNS record, Chef node, Chef client and bucket
// whose name starts with the prefix. Systems without credentials are
// skipped. Every step runs even when an earlier one failed, including when
// another system's client could not be created.
func Destroy(ctx context.Context, cfg *config.Config) error {
	e, err := prepare(cfg)
	if err != nil {
		return err
	}
	defer e.finish(ctx)

	opts := []teardown.Option{
		teardown.WithObserver(e.recorder.ResourcesDeleted),
	}

	// A system whose client cannot be built fails its own step only.
	var instances teardown.InstanceSweeper
	if err := e.connectCompute(); err != nil {
		opts = append(opts, teardown.WithStepError(teardown.StepInstances, err))
	} else {
		instances = compute.NewLifecycle(e.compute, e.log)
	}

	provider, err := newDNSProvider(cfg, e.compute)
	switch {
	case err != nil:
		opts = append(opts, teardown.WithStepError(teardown.StepDNS, err))
	case provider != nil:
		opts = append(opts, teardown.WithDNS(dns.NewRegistrar(provider, e.log)))
	}

	inventory, err := newInventory(cfg)
	switch {
	case err != nil:
		opts = append(opts,
			teardown.WithStepError(teardown.StepChefNodes, err),
			teardown.WithStepError(teardown.StepChefClients, err),
		)
	case inventory != nil:
		opts = append(opts, teardown.WithConfigManagement(configmgmt.NewDeregistrar(inventory, e.log)))
	}

	buckets, err := newBucketSweeper(ctx, cfg, e.log)
	switch {
	case err != nil:
		opts = append(opts, teardown.WithStepError(teardown.StepBuckets, err))
	case buckets != nil:
		opts = append(opts, teardown.WithBuckets(buckets))
	}

	orchestrator := teardown.NewOrchestrator(instances, e.log, opts...)

	e.log.Info("[Teardown] Destroying cluster", "prefix", cfg.Prefix, "dnsDomain", cfg.DNSDomain)
	domain := ""
	if cfg.DNSEnabled() {
		domain = cfg.DNSDomain
	}
	report, err := orchestrator.Destroy(ctx, cfg.Prefix, domain)
	if report != nil {
		renderReport(destroyOutput, report)
	}
	if err != nil {
		return fmt.Errorf("destroy failed: %w", err)
	}

	e.log.Info("[Teardown] Cluster destroyed", "prefix", cfg.Prefix, "deleted", report.Deleted())
	return nil
}
