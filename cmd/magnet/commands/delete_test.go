package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/magnet/internal/config"
)

func TestDelete(t *testing.T) {
	cmd := Delete(config.Default())

	require.NotNil(t, cmd)
	assert.Equal(t, "delete", cmd.Use)
	assert.Equal(t, []string{"destroy"}, cmd.Aliases)
	assert.NotNil(t, cmd.RunE)
}

func TestDelete_LongDescription(t *testing.T) {
	cmd := Delete(config.Default())

	assert.Contains(t, cmd.Long, "Compute instances")
	assert.Contains(t, cmd.Long, "DNS records")
	assert.Contains(t, cmd.Long, "Chef nodes")
	assert.Contains(t, cmd.Long, "Chef clients")
	assert.Contains(t, cmd.Long, "WARNING")
}

func TestDelete_RejectsPositionalArgs(t *testing.T) {
	cmd := Delete(config.Default())
	assert.Error(t, cmd.Args(cmd, []string{"magnet-"}))
	assert.NoError(t, cmd.Args(cmd, nil))
}

func TestDestroyAliasResolves(t *testing.T) {
	root := Root()
	cmd, _, err := root.Find([]string{"destroy"})
	require.NoError(t, err)
	assert.Equal(t, "delete", cmd.Name())
}

func TestProbeAndList(t *testing.T) {
	probe := Probe(config.Default())
	assert.Equal(t, "probe", probe.Use)
	assert.NotNil(t, probe.RunE)
	assert.Error(t, probe.Args(probe, []string{"x"}))

	list := List(config.Default())
	assert.Equal(t, "list", list.Use)
	assert.NotNil(t, list.RunE)
}
