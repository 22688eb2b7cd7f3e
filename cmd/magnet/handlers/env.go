// Package handlers implements the business logic of the CLI commands.
//
// Every invocation builds fresh provider clients from the resolved
// configuration and discards them afterwards. Constructors are held in
// package-level variables so tests can substitute fakes.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/magnet/internal/compute"
	"github.com/imamik/magnet/internal/config"
	"github.com/imamik/magnet/internal/configmgmt"
	"github.com/imamik/magnet/internal/dns"
	"github.com/imamik/magnet/internal/health"
	"github.com/imamik/magnet/internal/logging"
	"github.com/imamik/magnet/internal/metrics"
	"github.com/imamik/magnet/internal/platform/chef"
	"github.com/imamik/magnet/internal/platform/cloudflare"
	"github.com/imamik/magnet/internal/platform/hcloud"
	"github.com/imamik/magnet/internal/platform/icmp"
	"github.com/imamik/magnet/internal/platform/openstack"
	"github.com/imamik/magnet/internal/platform/s3"
	"github.com/imamik/magnet/internal/platform/ssh"
	"github.com/imamik/magnet/internal/teardown"
)

// Factory function variables - can be replaced in tests.
var (
	// loadCredentials reads the INI credentials file.
	loadCredentials = config.LoadCredentials

	// newLogger builds the invocation logger.
	newLogger = func(cfg *config.Config) (logr.Logger, error) {
		return logging.New(logging.Options{Level: cfg.LogLevel}, os.Stderr)
	}

	// newComputeProvider creates the compute backend selected by cfg.Provider.
	newComputeProvider = func(cfg *config.Config) (compute.Provider, error) {
		creds := cfg.Credentials
		switch cfg.Provider {
		case config.ProviderHCloud:
			if creds.HCloud.Token == "" {
				return nil, errors.New("hcloud token is required (set [hcloud] token or HCLOUD_TOKEN)")
			}
			return hcloud.NewRealClient(creds.HCloud.Token, hcloud.WithTimeouts(cfg.Timeouts)), nil
		default:
			return openstack.NewClient(creds.OpenStack)
		}
	}

	// newDNSProvider creates the DNS backend, or nil when DNS is disabled.
	// Designate shares the authenticated OpenStack client.
	newDNSProvider = func(cfg *config.Config, cp compute.Provider) (dns.Provider, error) {
		if !cfg.DNSEnabled() {
			return nil, nil
		}
		switch cfg.DNSProvider {
		case config.DNSProviderDesignate:
			osc, ok := cp.(*openstack.Client)
			if !ok || !osc.HasDNS() {
				return nil, errors.New("dns provider designate requires an OpenStack cloud with a DNS endpoint")
			}
			return osc, nil
		case config.DNSProviderCloudflare:
			token := cfg.Credentials.Cloudflare.APIToken
			if token == "" {
				return nil, errors.New("cloudflare api_token is required (set [cloudflare] api_token or CLOUDFLARE_API_TOKEN)")
			}
			return cloudflare.NewClient(token), nil
		default:
			return nil, nil
		}
	}

	// newInventory creates the Chef inventory, or nil when Chef is not configured.
	newInventory = func(cfg *config.Config) (configmgmt.Inventory, error) {
		if !cfg.Credentials.Chef.Configured() {
			return nil, nil
		}
		client, err := chef.NewClient(cfg.Credentials.Chef)
		if err != nil {
			return nil, err
		}
		return chef.NewInventory(client, chef.WithNodePrefix(cfg.Prefix)), nil
	}

	// newBucketSweeper creates the S3 sweeper, or nil when it is disabled.
	newBucketSweeper = func(ctx context.Context, cfg *config.Config, log logr.Logger) (teardown.BucketSweeper, error) {
		if !cfg.Credentials.S3.Configured() {
			return nil, nil
		}
		return s3.NewClient(ctx, cfg.Credentials.S3, log)
	}

	// newPinger creates the ICMP pinger used by health probes.
	newPinger = func(cfg *config.Config) health.Pinger {
		return icmp.NewPinger(
			icmp.WithTimeout(cfg.Timeouts.PingTimeout),
			icmp.WithPrivileged(os.Geteuid() == 0),
		)
	}

	// newRemoteRunner creates the SSH runner from the configured private key.
	newRemoteRunner = func(cfg *config.Config) (health.RemoteRunner, error) {
		path := config.ExpandHome(cfg.SSHPrivateKeyPath)
		// #nosec G304
		key, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read ssh private key %s: %w", path, err)
		}
		return ssh.NewRunner(remoteRunnerConfig(cfg, key))
	}

	// newRecorder creates the per-invocation metrics recorder.
	newRecorder = metrics.NewRecorder
)

// remoteRunnerConfig makes a single connection attempt per Run: a health
// check reports an unreachable instance instead of dialing it again.
func remoteRunnerConfig(cfg *config.Config, key []byte) *ssh.Config {
	return &ssh.Config{
		User:        cfg.SSHUser,
		PrivateKey:  key,
		DialTimeout: cfg.Timeouts.SSHDialTimeout,
		MaxRetries:  -1,
	}
}

// env is the resolved runtime of one command invocation.
type env struct {
	cfg      *config.Config
	log      logr.Logger
	compute  compute.Provider
	recorder *metrics.Recorder
}

// setup loads credentials into cfg, validates it and creates the compute
// provider.
func setup(cfg *config.Config) (*env, error) {
	e, err := prepare(cfg)
	if err != nil {
		return nil, err
	}
	if err := e.connectCompute(); err != nil {
		return nil, err
	}
	return e, nil
}

// prepare loads credentials into cfg and validates it without contacting
// any provider.
func prepare(cfg *config.Config) (*env, error) {
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	creds, err := loadCredentials(config.ExpandHome(cfg.CredentialsFile))
	if err != nil {
		return nil, err
	}
	cfg.ApplyCredentials(creds)
	if cfg.Timeouts == nil {
		cfg.Timeouts = config.LoadTimeouts()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &env{
		cfg:      cfg,
		log:      log,
		recorder: newRecorder(),
	}, nil
}

// connectCompute creates the compute provider selected by the config.
func (e *env) connectCompute() error {
	cp, err := newComputeProvider(e.cfg)
	if err != nil {
		return fmt.Errorf("failed to create %s client: %w", e.cfg.Provider, err)
	}
	e.compute = cp
	return nil
}

// prober builds a health prober over the env's compute provider.
func (e *env) prober(runner health.RemoteRunner) *health.Prober {
	t := e.cfg.Timeouts
	p := health.NewProber(e.compute, newPinger(e.cfg), runner, health.Options{
		PollAttempts: t.PollAttempts,
		PollInterval: t.PollInterval,
		Concurrency:  t.ProbeConcurrency,
		Timeout:      t.ProbeTimeout,
	}, e.log)
	p.OnResult(func(r health.Result, d time.Duration) {
		e.recorder.ProbeFinished(r.Healthy, d)
	})
	return p
}

// finish pushes the collected metrics when a Pushgateway is configured.
// A failed push is logged, never returned.
func (e *env) finish(ctx context.Context) {
	if e.cfg.Pushgateway == "" {
		return
	}
	if err := e.recorder.Push(ctx, e.cfg.Pushgateway, e.cfg.Prefix); err != nil {
		e.log.Error(err, "Failed to push metrics")
	}
}
