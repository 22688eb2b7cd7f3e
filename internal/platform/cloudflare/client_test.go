package cloudflare

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/magnet/internal/dns"
)

func newTestClient(srv *httptest.Server) *Client {
	c := NewClient("test-token")
	c.httpClient = &http.Client{
		Transport: &rewriteTransport{base: srv.URL, wrapped: http.DefaultTransport},
	}
	return c
}

func TestFindZone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "example.com", r.URL.Query().Get("name"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(apiResponse{
			Success: true,
			Result:  json.RawMessage(`[{"id":"zone-123","name":"example.com"}]`),
		})
	}))
	defer srv.Close()

	zone, err := newTestClient(srv).FindZone(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, dns.Zone{ID: "zone-123", Name: "example.com"}, zone)
}

func TestFindZone_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(apiResponse{Success: true, Result: json.RawMessage(`[]`)})
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FindZone(context.Background(), "notfound.com")
	assert.ErrorIs(t, err, dns.ErrNotFound)
}

func TestAddRecords(t *testing.T) {
	var created []Record
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/client/v4/zones/zone-123/dns_records", r.URL.Path)
		var rec Record
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rec))
		created = append(created, rec)
		_ = json.NewEncoder(w).Encode(apiResponse{Success: true, Result: json.RawMessage(`{"id":"new"}`)})
	}))
	defer srv.Close()

	err := newTestClient(srv).AddRecords(context.Background(), dns.Zone{ID: "zone-123", Name: "example.com"}, []dns.Record{
		{Type: "A", Name: "magnet-web1.example.com", Data: "203.0.113.5", TTL: 300},
		{Type: "AAAA", Name: "magnet-web1.example.com", Data: "2001:db8::1", TTL: 300},
	})
	require.NoError(t, err)
	assert.Equal(t, []Record{
		{Type: "A", Name: "magnet-web1.example.com", Content: "203.0.113.5", TTL: 300},
		{Type: "AAAA", Name: "magnet-web1.example.com", Content: "2001:db8::1", TTL: 300},
	}, created)
}

func TestRemoveByPrefixThroughRegistrar(t *testing.T) {
	var deletedIDs []string

	records := []Record{
		{ID: "a-1", Type: "A", Name: "magnet-web1.example.com", Content: "1.2.3.4"},
		{ID: "a-2", Type: "A", Name: "magnet-db1.example.com", Content: "5.6.7.8"},
		{ID: "a-3", Type: "A", Name: "prod-magnet-web1.example.com", Content: "9.9.9.9"},
		{ID: "a-4", Type: "A", Name: "www.example.com", Content: "9.9.9.9"},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/client/v4/zones":
			_ = json.NewEncoder(w).Encode(apiResponse{Success: true, Result: json.RawMessage(`[{"id":"zone-123","name":"example.com"}]`)})
		case r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(listResponse{
				Success:    true,
				Result:     records,
				ResultInfo: resultInfo{Page: 1, TotalPages: 1},
			})
		case r.Method == http.MethodDelete:
			parts := splitPath(r.URL.Path)
			deletedIDs = append(deletedIDs, parts[len(parts)-1])
			_ = json.NewEncoder(w).Encode(apiResponse{Success: true, Result: json.RawMessage(`{}`)})
		}
	}))
	defer srv.Close()

	registrar := dns.NewRegistrar(newTestClient(srv), logr.Discard())
	count, err := registrar.RemoveByPrefix(context.Background(), "example.com", "magnet-")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"a-1", "a-2"}, deletedIDs)
}

func TestDeleteRecord_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/gone") {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"errors":[{"code":81044,"message":"Record does not exist."}]}`))
			return
		}
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"success":false,"errors":[{"code":10000,"message":"Authentication error"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	zone := dns.Zone{ID: "zone-123", Name: "example.com"}

	assert.ErrorIs(t, c.DeleteRecord(context.Background(), zone, dns.Record{ID: "gone"}), dns.ErrNotFound)

	err := c.DeleteRecord(context.Background(), zone, dns.Record{ID: "r1"})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "10000: Authentication error")
}

func TestListRecords_Pagination(t *testing.T) {
	callCount := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		page := r.URL.Query().Get("page")
		var records []Record
		if page == "1" || page == "" {
			records = []Record{{ID: "r1", Type: "A", Name: "a.example.com", TTL: 1}}
		} else {
			records = []Record{{ID: "r2", Type: "A", Name: "b.example.com", TTL: 1}}
		}
		_ = json.NewEncoder(w).Encode(listResponse{
			Success:    true,
			Result:     records,
			ResultInfo: resultInfo{Page: callCount, TotalPages: 2},
		})
	}))
	defer srv.Close()

	records, err := newTestClient(srv).ListRecords(context.Background(), dns.Zone{ID: "zone-123"})
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 2, callCount)
	assert.Equal(t, "b.example.com", records[1].Name)
}

// rewriteTransport rewrites request URLs to point at the test server.
type rewriteTransport struct {
	base    string
	wrapped http.RoundTripper
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = "http"
	req.URL.Host = strings.TrimPrefix(t.base, "http://")
	return t.wrapped.RoundTrip(req)
}

func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
