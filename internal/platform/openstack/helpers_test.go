package openstack

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"

	"github.com/imamik/magnet/internal/config"
)

func testLogger(t *testing.T) logr.Logger {
	return testr.New(t)
}

func configWithoutAuthURL() config.OpenStackCredentials {
	return config.OpenStackCredentials{Username: "op", Password: "secret"}
}
