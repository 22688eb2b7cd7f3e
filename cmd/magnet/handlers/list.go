package handlers

import (
	"context"
	"io"
	"os"

	"github.com/imamik/magnet/internal/compute"
	"github.com/imamik/magnet/internal/config"
)

// listOutput is where the instance table is written.
var listOutput io.Writer = os.Stdout

// List handles the list command.
func List(ctx context.Context, cfg *config.Config) error {
	e, err := setup(cfg)
	if err != nil {
		return err
	}
	defer e.finish(ctx)

	instances, err := compute.NewLifecycle(e.compute, e.log).ListByPrefix(ctx, cfg.Prefix)
	if err != nil {
		return err
	}

	renderInstances(listOutput, pointers(instances))
	return nil
}
