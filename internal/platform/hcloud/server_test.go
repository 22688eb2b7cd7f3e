package hcloud

import (
	"net"
	"testing"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/imamik/magnet/internal/compute"
)

func TestServerAddress(t *testing.T) {
	_, v6net, err := net.ParseCIDR("2001:db8:1234::/64")
	require.NoError(t, err)

	tests := []struct {
		name   string
		server *hcloud.Server
		want   string
	}{
		{
			name: "public ipv4",
			server: &hcloud.Server{PublicNet: hcloud.ServerPublicNet{
				IPv4: hcloud.ServerPublicNetIPv4{IP: net.ParseIP("203.0.113.1")},
				IPv6: hcloud.ServerPublicNetIPv6{Network: v6net},
			}},
			want: "203.0.113.1",
		},
		{
			name: "ipv6 only",
			server: &hcloud.Server{PublicNet: hcloud.ServerPublicNet{
				IPv6: hcloud.ServerPublicNetIPv6{IP: v6net.IP, Network: v6net},
			}},
			want: "2001:db8:1234::1",
		},
		{
			name: "private only",
			server: &hcloud.Server{PrivateNet: []hcloud.ServerPrivateNet{
				{IP: net.ParseIP("10.0.0.2")},
			}},
			want: "10.0.0.2",
		},
		{
			name:   "no address",
			server: &hcloud.Server{},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ServerAddress(tt.server))
		})
	}
}

func TestMapStatus(t *testing.T) {
	assert.Equal(t, compute.StatusBuilding, mapStatus(hcloud.ServerStatusInitializing))
	assert.Equal(t, compute.StatusSpawning, mapStatus(hcloud.ServerStatusStarting))
	assert.Equal(t, compute.StatusActive, mapStatus(hcloud.ServerStatusRunning))
	assert.Equal(t, compute.StatusOther, mapStatus(hcloud.ServerStatusOff))
	assert.Equal(t, compute.StatusOther, mapStatus(hcloud.ServerStatusRebuilding))
}

func TestCloudConfig(t *testing.T) {
	doc, err := cloudConfig("ssh-rsa AAAA op@host\n")
	require.NoError(t, err)

	require.Contains(t, doc, "#cloud-config\n")
	var parsed cloudConfigDoc
	require.NoError(t, yaml.Unmarshal([]byte(doc), &parsed))
	assert.Equal(t, []string{"ssh-rsa AAAA op@host"}, parsed.SSHAuthorizedKeys)
}
