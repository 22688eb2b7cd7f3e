package commands

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/magnet/internal/config"
)

func TestRoot(t *testing.T) {
	cmd := Root()

	require.NotNil(t, cmd)
	assert.Equal(t, "magnet", cmd.Use)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"boot", "delete", "probe", "list", "version"}, names)
}

func TestRoot_GlobalFlagDefaults(t *testing.T) {
	t.Setenv(config.EnvDNSDomain, "example.org")
	cmd := Root()
	flags := cmd.PersistentFlags()

	tests := []struct {
		name string
		want string
	}{
		{"prefix", "magnet-"},
		{"config", "~/.magnet.cfg"},
		{"pyraxcfg", "~/.magnet.cfg"},
		{"dnsdomain", "example.org"},
		{"provider", ""},
		{"dns-provider", ""},
		{"ssh-user", "root"},
		{"sshkey", "~/.ssh/id_rsa"},
		{"log-level", "info"},
		{"pushgateway", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := flags.Lookup(tt.name)
			require.NotNil(t, flag, "%s flag should exist", tt.name)
			assert.Equal(t, tt.want, flag.DefValue)
		})
	}

	assert.True(t, flags.Lookup("pyraxcfg").Hidden)
}

func TestRoot_PyraxcfgAliasSetsCredentialsFile(t *testing.T) {
	cfg := config.Default()
	cmd := &cobra.Command{Use: "magnet"}
	bindGlobalFlags(cmd, cfg)

	require.NoError(t, cmd.PersistentFlags().Set("pyraxcfg", "/etc/magnet.cfg"))
	assert.Equal(t, "/etc/magnet.cfg", cfg.CredentialsFile)
}

func TestRoot_UnknownCommand(t *testing.T) {
	cmd := Root()
	cmd.SetArgs([]string{"explode"})
	assert.Error(t, cmd.Execute())
}
