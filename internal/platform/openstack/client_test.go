package openstack

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gophercloud/gophercloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/magnet/internal/compute"
	"github.com/imamik/magnet/internal/dns"
)

// newTestClient serves the compute, network and DNS APIs from one mux, under
// /compute, /network and /dns respectively.
func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	provider := &gophercloud.ProviderClient{TokenID: "test-token"}
	base := srv.URL + "/"
	return &Client{
		compute: &gophercloud.ServiceClient{ProviderClient: provider, Endpoint: base + "compute/"},
		network: &gophercloud.ServiceClient{ProviderClient: provider, Endpoint: base + "network/", ResourceBase: base + "network/v2.0/"},
		dns:     &gophercloud.ServiceClient{ProviderClient: provider, Endpoint: base + "dns/", ResourceBase: base + "dns/v2/"},
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

const serverListJSON = `{"servers": [
  {"id": "s1", "name": "magnet-web1", "status": "ACTIVE",
   "addresses": {
     "private": [{"addr": "10.0.0.5", "version": 4, "OS-EXT-IPS:type": "fixed"}],
     "public": [{"addr": "203.0.113.5", "version": 4, "OS-EXT-IPS:type": "floating"}]
   },
   "OS-EXT-STS:task_state": null},
  {"id": "s2", "name": "magnet-db1", "status": "BUILD", "addresses": {},
   "OS-EXT-STS:task_state": "spawning"},
  {"id": "s3", "name": "other-box", "status": "SHUTOFF", "accessIPv4": "198.51.100.7", "addresses": {}}
]}`

func TestClient_ListInstances(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/compute/servers/detail", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "test-token", r.Header.Get("X-Auth-Token"))
		writeJSON(t, w, http.StatusOK, serverListJSON)
	})

	instances, err := newTestClient(t, mux).ListInstances(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []compute.Instance{
		{ID: "s1", Name: "magnet-web1", Status: compute.StatusActive, Address: "203.0.113.5"},
		{ID: "s2", Name: "magnet-db1", Status: compute.StatusSpawning},
		{ID: "s3", Name: "other-box", Status: compute.StatusOther, Address: "198.51.100.7"},
	}, instances)
}

func TestClient_GetInstance(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/compute/servers/s1", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, `{"server": {"id": "s1", "name": "magnet-web1", "status": "BUILD",
			"addresses": {"private": [{"addr": "fd00::5", "version": 6}]}}}`)
	})
	mux.HandleFunc("/compute/servers/missing", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusNotFound, `{"itemNotFound": {"message": "Instance could not be found", "code": 404}}`)
	})
	client := newTestClient(t, mux)

	instance, err := client.GetInstance(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, compute.StatusBuilding, instance.Status)
	assert.Equal(t, "fd00::5", instance.Address)

	_, err = client.GetInstance(context.Background(), "missing")
	assert.ErrorIs(t, err, compute.ErrNotFound)
}

func TestClient_CreateInstance(t *testing.T) {
	var body map[string]map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/compute/servers", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(t, w, http.StatusAccepted, `{"server": {"id": "s9", "adminPass": "secret"}}`)
	})

	instance, err := newTestClient(t, mux).CreateInstance(context.Background(), compute.CreateOpts{
		Name:         "magnet-web1",
		ImageID:      "img-1",
		Flavor:       "4",
		NetworkIDs:   []string{"net-1"},
		Files:        map[string][]byte{compute.AuthorizedKeysPath: []byte("ssh-rsa AAAA op@host\n")},
		SSHPublicKey: "ssh-rsa AAAA op@host",
		Labels:       map[string]string{"magnet.io/managed-by": "magnet"},
	})
	require.NoError(t, err)
	assert.Equal(t, &compute.Instance{ID: "s9", Name: "magnet-web1", Status: compute.StatusBuilding}, instance)

	server := body["server"]
	assert.Equal(t, "magnet-web1", server["name"])
	assert.Equal(t, "img-1", server["imageRef"])
	assert.Equal(t, "4", server["flavorRef"])
	assert.Equal(t, []any{map[string]any{"uuid": "net-1"}}, server["networks"])
	assert.Equal(t, map[string]any{"magnet.io/managed-by": "magnet"}, server["metadata"])

	personality, ok := server["personality"].([]any)
	require.True(t, ok)
	require.Len(t, personality, 1)
	file := personality[0].(map[string]any)
	assert.Equal(t, compute.AuthorizedKeysPath, file["path"])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("ssh-rsa AAAA op@host\n")), file["contents"])
}

func TestClient_DeleteInstance(t *testing.T) {
	deleted := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/compute/servers/s1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		deleted++
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/compute/servers/gone", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusNotFound, `{}`)
	})
	mux.HandleFunc("/compute/servers/locked", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusConflict, `{"conflictingRequest": {"message": "locked"}}`)
	})
	client := newTestClient(t, mux)

	require.NoError(t, client.DeleteInstance(context.Background(), "s1"))
	assert.Equal(t, 1, deleted)

	assert.ErrorIs(t, client.DeleteInstance(context.Background(), "gone"), compute.ErrNotFound)

	err := client.DeleteInstance(context.Background(), "locked")
	require.Error(t, err)
	assert.NotErrorIs(t, err, compute.ErrNotFound)
}

func TestClient_ListImagesAndNetworks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/compute/images/detail", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, `{"images": [
			{"id": "img-1", "name": "Ubuntu 12.04 LTS", "status": "ACTIVE"},
			{"id": "img-2", "name": "Debian 7", "status": "ACTIVE"}]}`)
	})
	mux.HandleFunc("/network/v2.0/networks", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, `{"networks": [{"id": "net-1", "name": "private"}]}`)
	})
	client := newTestClient(t, mux)

	images, err := client.ListImages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []compute.Image{{ID: "img-1", Name: "Ubuntu 12.04 LTS"}, {ID: "img-2", Name: "Debian 7"}}, images)

	networks, err := client.ListNetworks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []compute.Network{{ID: "net-1", Name: "private"}}, networks)

	// End to end through the locator, as boot does.
	image, err := compute.NewLocator(client).FindImage(context.Background(), "12.04")
	require.NoError(t, err)
	assert.Equal(t, "img-1", image.ID)
}

func TestClient_DNS(t *testing.T) {
	var created map[string]any
	deletedIDs := []string{}

	mux := http.NewServeMux()
	mux.HandleFunc("/dns/v2/zones", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "example.com.", r.URL.Query().Get("name"))
		writeJSON(t, w, http.StatusOK, `{"zones": [{"id": "z1", "name": "example.com."}], "links": {}}`)
	})
	mux.HandleFunc("/dns/v2/zones/z1/recordsets", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(t, w, http.StatusOK, `{"recordsets": [
				{"id": "r1", "name": "magnet-web1.example.com.", "type": "A", "records": ["203.0.113.5"], "ttl": 300},
				{"id": "r2", "name": "example.com.", "type": "NS", "records": ["ns1.example.net.", "ns2.example.net."], "ttl": 3600}
			], "links": {}}`)
		case http.MethodPost:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			writeJSON(t, w, http.StatusAccepted, `{"id": "r3", "name": "magnet-db1.example.com.", "type": "A", "records": ["10.0.0.9"], "ttl": 300}`)
		}
	})
	mux.HandleFunc("/dns/v2/zones/z1/recordsets/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		id := r.URL.Path[len("/dns/v2/zones/z1/recordsets/"):]
		if id == "gone" {
			writeJSON(t, w, http.StatusNotFound, `{"code": 404, "type": "recordset_not_found"}`)
			return
		}
		deletedIDs = append(deletedIDs, id)
		w.WriteHeader(http.StatusAccepted)
	})
	client := newTestClient(t, mux)
	ctx := context.Background()

	zone, err := client.FindZone(ctx, "example.com")
	require.NoError(t, err)
	assert.Equal(t, dns.Zone{ID: "z1", Name: "example.com"}, zone)

	records, err := client.ListRecords(ctx, zone)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, dns.Record{ID: "r1", Type: "A", Name: "magnet-web1.example.com.", Data: "203.0.113.5", TTL: 300}, records[0])
	assert.Equal(t, "ns1.example.net. ns2.example.net.", records[1].Data)

	require.NoError(t, client.AddRecords(ctx, zone, []dns.Record{
		{Type: "A", Name: "magnet-db1.example.com", Data: "10.0.0.9", TTL: 300},
	}))
	assert.Equal(t, "magnet-db1.example.com.", created["name"])
	assert.Equal(t, []any{"10.0.0.9"}, created["records"])

	require.NoError(t, client.DeleteRecord(ctx, zone, records[0]))
	assert.Equal(t, []string{"r1"}, deletedIDs)
	assert.ErrorIs(t, client.DeleteRecord(ctx, zone, dns.Record{ID: "gone"}), dns.ErrNotFound)

	// Through the registrar: only the prefixed record set goes.
	deletedIDs = deletedIDs[:0]
	n, err := dns.NewRegistrar(client, testLogger(t)).RemoveByPrefix(ctx, "example.com", "magnet-")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"r1"}, deletedIDs)
}

func TestClient_FindZoneMissing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dns/v2/zones", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, `{"zones": [], "links": {}}`)
	})

	_, err := newTestClient(t, mux).FindZone(context.Background(), "example.org")
	assert.ErrorIs(t, err, dns.ErrNotFound)
}

func TestClient_WithoutDesignate(t *testing.T) {
	client := newTestClient(t, http.NewServeMux())
	client.dns = nil

	assert.False(t, client.HasDNS())
	_, err := client.FindZone(context.Background(), "example.com")
	assert.ErrorIs(t, err, errNoDesignate)
}

func TestMapStatus(t *testing.T) {
	tests := []struct {
		status, task string
		want         compute.Status
	}{
		{"BUILD", "", compute.StatusBuilding},
		{"BUILD", "scheduling", compute.StatusBuilding},
		{"BUILD", "spawning", compute.StatusSpawning},
		{"ACTIVE", "", compute.StatusActive},
		{"ERROR", "", compute.StatusError},
		{"SHUTOFF", "", compute.StatusOther},
		{"REBOOT", "rebooting", compute.StatusOther},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.status, tt.task), func(t *testing.T) {
			assert.Equal(t, tt.want, mapStatus(tt.status, tt.task))
		})
	}
}

func TestNewClient_RequiresAuthURL(t *testing.T) {
	_, err := NewClient(configWithoutAuthURL())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth_url is required")
}
