package handlers

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"

	"github.com/imamik/magnet/internal/compute"
	"github.com/imamik/magnet/internal/config"
	"github.com/imamik/magnet/internal/configmgmt"
	"github.com/imamik/magnet/internal/dns"
	"github.com/imamik/magnet/internal/health"
	"github.com/imamik/magnet/internal/teardown"
)

// stubs replaces every factory variable for the duration of a test and
// captures command output.
type stubs struct {
	compute   compute.Provider
	dns       dns.Provider
	inventory configmgmt.Inventory
	buckets   teardown.BucketSweeper
	pinger    health.Pinger
	runner    health.RemoteRunner

	out *bytes.Buffer
}

func installStubs(t *testing.T, s *stubs) {
	t.Helper()

	origLoad := loadCredentials
	origLogger := newLogger
	origCompute := newComputeProvider
	origDNS := newDNSProvider
	origInventory := newInventory
	origBuckets := newBucketSweeper
	origPinger := newPinger
	origRunner := newRemoteRunner
	origBoot, origDestroy, origProbe, origList := bootOutput, destroyOutput, probeOutput, listOutput
	t.Cleanup(func() {
		loadCredentials = origLoad
		newLogger = origLogger
		newComputeProvider = origCompute
		newDNSProvider = origDNS
		newInventory = origInventory
		newBucketSweeper = origBuckets
		newPinger = origPinger
		newRemoteRunner = origRunner
		bootOutput, destroyOutput, probeOutput, listOutput = origBoot, origDestroy, origProbe, origList
	})

	s.out = &bytes.Buffer{}
	bootOutput, destroyOutput, probeOutput, listOutput = s.out, s.out, s.out, s.out

	loadCredentials = func(string) (*config.Credentials, error) { return &config.Credentials{}, nil }
	newLogger = func(*config.Config) (logr.Logger, error) { return logr.Discard(), nil }
	newComputeProvider = func(*config.Config) (compute.Provider, error) { return s.compute, nil }
	newDNSProvider = func(*config.Config, compute.Provider) (dns.Provider, error) { return s.dns, nil }
	newInventory = func(*config.Config) (configmgmt.Inventory, error) { return s.inventory, nil }
	newBucketSweeper = func(context.Context, *config.Config, logr.Logger) (teardown.BucketSweeper, error) {
		return s.buckets, nil
	}
	newPinger = func(*config.Config) health.Pinger { return s.pinger }
	newRemoteRunner = func(*config.Config) (health.RemoteRunner, error) { return s.runner, nil }
}

func writePublicKey(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "id_rsa.pub")
	require.NoError(t, os.WriteFile(path, []byte("ssh-ed25519 AAAAC3Nza test@example\n"), 0o600))
	return path
}
