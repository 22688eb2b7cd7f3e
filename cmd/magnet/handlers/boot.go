package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/imamik/magnet/internal/boot"
	"github.com/imamik/magnet/internal/compute"
	"github.com/imamik/magnet/internal/config"
	"github.com/imamik/magnet/internal/dns"
)

// BootOptions are the boot command's own flags.
type BootOptions struct {
	Template string
	Image    string
	Flavor   string
	Network  string

	RegisterDNS bool
	Wait        bool
	Converge    bool
}

// bootOutput is where the boot summary is written.
var bootOutput io.Writer = os.Stdout

// Boot handles the boot command.
//
// The template is looked up in the templates file; when the file does not
// define it, a single server named after the template is booted from the
// image, flavor and network flags.
func Boot(ctx context.Context, cfg *config.Config, opts BootOptions) error {
	e, err := setup(cfg)
	if err != nil {
		return err
	}
	defer e.finish(ctx)

	tmpl, err := resolveTemplate(cfg.TemplatesFile, opts)
	if err != nil {
		return err
	}

	var bootOpts []boot.Option
	if opts.RegisterDNS {
		provider, err := newDNSProvider(cfg, e.compute)
		if err != nil {
			return err
		}
		if provider != nil {
			bootOpts = append(bootOpts, boot.WithRegistrar(dns.NewRegistrar(provider, e.log)))
		}
	}
	if opts.Wait || opts.Converge {
		runner, err := newRemoteRunner(cfg)
		if err != nil {
			return err
		}
		bootOpts = append(bootOpts, boot.WithProber(e.prober(runner)), boot.WithRunner(runner))
	}

	orchestrator := boot.NewOrchestrator(compute.NewLifecycle(e.compute, e.log), e.log, bootOpts...)

	e.log.Info("[Boot] Booting template", "template", tmpl.Name, "servers", len(tmpl.Servers), "prefix", cfg.Prefix)
	result, err := orchestrator.Boot(ctx, boot.Request{
		Template:     tmpl,
		Prefix:       cfg.Prefix,
		SSHPublicKey: config.ExpandHome(cfg.SSHPublicKeyPath),
		RegisterDNS:  opts.RegisterDNS,
		DNSDomain:    cfg.DNSDomain,
		// Convergence needs reachable, correctly named instances.
		Wait:     opts.Wait || opts.Converge,
		Converge: opts.Converge,
	})
	if result != nil {
		e.recorder.InstancesCreated(cfg.Provider, len(result.Instances))
		if len(result.Health) > 0 {
			renderHealth(bootOutput, result.Health)
		} else {
			renderInstances(bootOutput, result.Instances)
		}
		for _, record := range result.Records {
			fmt.Fprintf(bootOutput, "Registered %s\n", record)
		}
	}
	if err != nil {
		return fmt.Errorf("boot failed: %w", err)
	}

	e.log.Info("[Boot] Done", "template", tmpl.Name)
	return nil
}

func resolveTemplate(path string, opts BootOptions) (*config.Template, error) {
	set, err := config.LoadTemplates(path)
	if err != nil {
		return nil, err
	}
	if tmpl, ok := set.Get(opts.Template); ok {
		return tmpl, nil
	}
	return config.SingleServerTemplate(opts.Template, opts.Image, opts.Flavor, opts.Network), nil
}
