package openstack

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gophercloud/gophercloud/openstack/dns/v2/recordsets"
	"github.com/gophercloud/gophercloud/openstack/dns/v2/zones"

	"github.com/imamik/magnet/internal/dns"
)

var _ dns.Provider = (*Client)(nil)

var errNoDesignate = errors.New("the cloud offers no DNS service")

// FindZone returns the Designate zone called name.
func (c *Client) FindZone(ctx context.Context, name string) (dns.Zone, error) {
	if c.dns == nil {
		return dns.Zone{}, errNoDesignate
	}
	if err := ctx.Err(); err != nil {
		return dns.Zone{}, err
	}

	pages, err := zones.List(c.dns, zones.ListOpts{Name: withTrailingDot(name)}).AllPages()
	if err != nil {
		return dns.Zone{}, fmt.Errorf("failed to list zones: %w", err)
	}
	list, err := zones.ExtractZones(pages)
	if err != nil {
		return dns.Zone{}, fmt.Errorf("failed to parse zones: %w", err)
	}

	for _, z := range list {
		if strings.EqualFold(z.Name, withTrailingDot(name)) {
			return dns.Zone{ID: z.ID, Name: strings.TrimSuffix(z.Name, ".")}, nil
		}
	}
	return dns.Zone{}, fmt.Errorf("zone %s: %w", name, dns.ErrNotFound)
}

// ListRecords returns every record set of zone. A record set holding several
// records is returned as one Record whose Data lists them space-separated.
func (c *Client) ListRecords(ctx context.Context, zone dns.Zone) ([]dns.Record, error) {
	if c.dns == nil {
		return nil, errNoDesignate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages, err := recordsets.ListByZone(c.dns, zone.ID, recordsets.ListOpts{}).AllPages()
	if err != nil {
		if isNotFoundErr(err) {
			return nil, fmt.Errorf("zone %s: %w", zone.Name, dns.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to list record sets: %w", err)
	}
	sets, err := recordsets.ExtractRecordSets(pages)
	if err != nil {
		return nil, fmt.Errorf("failed to parse record sets: %w", err)
	}

	out := make([]dns.Record, 0, len(sets))
	for _, rs := range sets {
		out = append(out, dns.Record{
			ID:   rs.ID,
			Type: rs.Type,
			Name: rs.Name,
			Data: strings.Join(rs.Records, " "),
			TTL:  rs.TTL,
		})
	}
	return out, nil
}

// AddRecords creates one record set per record.
func (c *Client) AddRecords(ctx context.Context, zone dns.Zone, records []dns.Record) error {
	if c.dns == nil {
		return errNoDesignate
	}

	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := recordsets.Create(c.dns, zone.ID, recordsets.CreateOpts{
			Name:    withTrailingDot(r.Name),
			Type:    r.Type,
			TTL:     r.TTL,
			Records: []string{r.Data},
		}).Extract()
		if err != nil {
			return fmt.Errorf("failed to create record set %s: %w", r.Name, err)
		}
	}
	return nil
}

// DeleteRecord deletes the record set behind record.
func (c *Client) DeleteRecord(ctx context.Context, zone dns.Zone, record dns.Record) error {
	if c.dns == nil {
		return errNoDesignate
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := recordsets.Delete(c.dns, zone.ID, record.ID).ExtractErr(); err != nil {
		if isNotFoundErr(err) {
			return fmt.Errorf("record set %s: %w", record.ID, dns.ErrNotFound)
		}
		return fmt.Errorf("failed to delete record set %s: %w", record.Name, err)
	}
	return nil
}
