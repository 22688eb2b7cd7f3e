package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/imamik/magnet/internal/compute"
	"github.com/imamik/magnet/internal/config"
	"github.com/imamik/magnet/internal/health"
)

// probeOutput is where probe results are written.
var probeOutput io.Writer = os.Stdout

// Probe handles the probe command. It fails when any prefix-matched
// instance is unhealthy.
func Probe(ctx context.Context, cfg *config.Config) error {
	e, err := setup(cfg)
	if err != nil {
		return err
	}
	defer e.finish(ctx)

	runner, err := newRemoteRunner(cfg)
	if err != nil {
		return err
	}

	instances, err := compute.NewLifecycle(e.compute, e.log).ListByPrefix(ctx, cfg.Prefix)
	if err != nil {
		return err
	}

	results := e.prober(runner).ProbeAll(ctx, pointers(instances))
	renderHealth(probeOutput, results)

	if health.AllHealthy(results) {
		return nil
	}

	unhealthy := 0
	for _, r := range results {
		if !r.Healthy {
			unhealthy++
		}
	}
	return fmt.Errorf("%d of %d instances unhealthy", unhealthy, len(results))
}

func pointers(instances []compute.Instance) []*compute.Instance {
	out := make([]*compute.Instance, len(instances))
	for i := range instances {
		out[i] = &instances[i]
	}
	return out
}
