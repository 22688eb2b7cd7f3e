// Package cloudflare is a minimal Cloudflare API client for DNS records.
package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/imamik/magnet/internal/dns"
)

const baseURL = "https://api.cloudflare.com/client/v4"

var _ dns.Provider = (*Client)(nil)

// Client is a minimal Cloudflare API client for DNS record management.
type Client struct {
	apiToken   string
	httpClient *http.Client
}

// Record represents a Cloudflare DNS record.
type Record struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
	TTL     int    `json:"ttl,omitempty"`
}

type apiResponse struct {
	Success bool            `json:"success"`
	Errors  []apiError      `json:"errors"`
	Result  json.RawMessage `json:"result"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type zoneResult struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type resultInfo struct {
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
}

type listResponse struct {
	Success    bool       `json:"success"`
	Errors     []apiError `json:"errors"`
	Result     []Record   `json:"result"`
	ResultInfo resultInfo `json:"result_info"`
}

// StatusError is returned for non-2xx API answers.
type StatusError struct {
	StatusCode int
	Errors     []apiError
}

func (e *StatusError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ae := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%d: %s", ae.Code, ae.Message))
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, strings.Join(msgs, "; "))
}

// NewClient creates a new Cloudflare API client.
func NewClient(apiToken string) *Client {
	return &Client{
		apiToken:   apiToken,
		httpClient: &http.Client{},
	}
}

// FindZone returns the zone for the given domain.
func (c *Client) FindZone(ctx context.Context, domain string) (dns.Zone, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/zones?name="+url.QueryEscape(domain), nil)
	if err != nil {
		return dns.Zone{}, err
	}

	var resp apiResponse
	if err := c.do(req, &resp); err != nil {
		return dns.Zone{}, fmt.Errorf("get zone: %w", err)
	}

	var zones []zoneResult
	if err := json.Unmarshal(resp.Result, &zones); err != nil {
		return dns.Zone{}, fmt.Errorf("parse zones: %w", err)
	}

	if len(zones) == 0 {
		return dns.Zone{}, fmt.Errorf("zone %s: %w", domain, dns.ErrNotFound)
	}

	name := zones[0].Name
	if name == "" {
		name = domain
	}
	return dns.Zone{ID: zones[0].ID, Name: name}, nil
}

// ListRecords returns all DNS records in the zone.
func (c *Client) ListRecords(ctx context.Context, zone dns.Zone) ([]dns.Record, error) {
	var all []dns.Record
	page := 1

	for {
		req, err := c.newRequest(ctx, http.MethodGet,
			fmt.Sprintf("/zones/%s/dns_records?per_page=100&page=%d", zone.ID, page), nil)
		if err != nil {
			return nil, err
		}

		var resp listResponse
		if err := c.do(req, &resp); err != nil {
			return nil, fmt.Errorf("list DNS records page %d: %w", page, err)
		}

		for _, r := range resp.Result {
			all = append(all, dns.Record{ID: r.ID, Type: r.Type, Name: r.Name, Data: r.Content, TTL: r.TTL})
		}

		if page >= resp.ResultInfo.TotalPages {
			break
		}
		page++
	}

	return all, nil
}

// AddRecords creates the records one by one.
func (c *Client) AddRecords(ctx context.Context, zone dns.Zone, records []dns.Record) error {
	for _, r := range records {
		body, err := json.Marshal(Record{Type: r.Type, Name: r.Name, Content: r.Data, TTL: r.TTL})
		if err != nil {
			return err
		}

		req, err := c.newRequest(ctx, http.MethodPost,
			fmt.Sprintf("/zones/%s/dns_records", zone.ID), bytes.NewReader(body))
		if err != nil {
			return err
		}

		var resp apiResponse
		if err := c.do(req, &resp); err != nil {
			return fmt.Errorf("create DNS record %s: %w", r.Name, err)
		}
	}
	return nil
}

// DeleteRecord deletes a DNS record by ID.
func (c *Client) DeleteRecord(ctx context.Context, zone dns.Zone, record dns.Record) error {
	req, err := c.newRequest(ctx, http.MethodDelete,
		fmt.Sprintf("/zones/%s/dns_records/%s", zone.ID, record.ID), nil)
	if err != nil {
		return err
	}

	var resp apiResponse
	if err := c.do(req, &resp); err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return fmt.Errorf("DNS record %s: %w", record.ID, dns.ErrNotFound)
		}
		return fmt.Errorf("delete DNS record %s: %w", record.ID, err)
	}

	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var failed apiResponse
		_ = json.Unmarshal(body, &failed)
		return &StatusError{StatusCode: resp.StatusCode, Errors: failed.Errors}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w (status %d)", err, resp.StatusCode)
	}

	return nil
}
