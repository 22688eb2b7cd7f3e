package dns

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/imamik/magnet/internal/util/naming"
)

// DefaultTTL is applied to records added without an explicit TTL.
const DefaultTTL = 300

// ErrNotFound matches provider answers for zones or records that do not exist.
var ErrNotFound = errors.New("not found")

// Zone is a DNS domain hosted by a provider.
type Zone struct {
	ID   string
	Name string
}

// Record is one resource record. Name is fully qualified; providers accept
// it with or without the trailing dot.
type Record struct {
	ID   string
	Type string
	Name string
	Data string
	TTL  int
}

// Provider is the DNS API consumed by the Registrar.
type Provider interface {
	FindZone(ctx context.Context, name string) (Zone, error)
	ListRecords(ctx context.Context, zone Zone) ([]Record, error)
	AddRecords(ctx context.Context, zone Zone, records []Record) error
	// DeleteRecord returns an error matching ErrNotFound when the record is
	// already gone.
	DeleteRecord(ctx context.Context, zone Zone, record Record) error
}

// ProviderError wraps a failed DNS API call.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("dns provider: %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Registrar adds and removes the records of a cluster.
type Registrar struct {
	provider Provider
	log      logr.Logger
}

// NewRegistrar creates a Registrar backed by provider.
func NewRegistrar(provider Provider, log logr.Logger) *Registrar {
	return &Registrar{provider: provider, log: log.WithName("dns")}
}

// Add appends one record named name (relative to domain, or already fully
// qualified within it) to domain.
func (r *Registrar) Add(ctx context.Context, domain, name, recordType, data string) error {
	zone, err := r.findZone(ctx, domain)
	if err != nil {
		return err
	}

	record := Record{
		Type: recordType,
		Name: FQDN(name, zone.Name),
		Data: data,
		TTL:  DefaultTTL,
	}

	r.log.Info("[DNS] Adding record", "name", record.Name, "type", record.Type, "data", record.Data)
	if err := r.provider.AddRecords(ctx, zone, []Record{record}); err != nil {
		return &ProviderError{Op: fmt.Sprintf("add record %s", record.Name), Err: err}
	}
	return nil
}

// RemoveByPrefix deletes every record of domain whose zone-relative name
// starts with prefix and returns how many were deleted. Deletions are not
// rolled back when a later one fails.
func (r *Registrar) RemoveByPrefix(ctx context.Context, domain, prefix string) (int, error) {
	zone, err := r.findZone(ctx, domain)
	if err != nil {
		return 0, err
	}

	records, err := r.provider.ListRecords(ctx, zone)
	if err != nil {
		return 0, &ProviderError{Op: fmt.Sprintf("list records of %s", zone.Name), Err: err}
	}

	deleted := 0
	var errs []error
	for _, record := range records {
		if !naming.Owned(RelativeName(record.Name, zone.Name), prefix) {
			continue
		}

		r.log.Info("[Teardown] Removing DNS record", "name", record.Name, "type", record.Type)
		err := r.provider.DeleteRecord(ctx, zone, record)
		switch {
		case err == nil:
			deleted++
		case errors.Is(err, ErrNotFound):
			r.log.V(1).Info("[Teardown] DNS record already gone", "name", record.Name)
		default:
			errs = append(errs, &ProviderError{Op: fmt.Sprintf("delete record %s", record.Name), Err: err})
		}
	}

	return deleted, errors.Join(errs...)
}

func (r *Registrar) findZone(ctx context.Context, domain string) (Zone, error) {
	zone, err := r.provider.FindZone(ctx, domain)
	if err != nil {
		return Zone{}, &ProviderError{Op: fmt.Sprintf("find zone %s", domain), Err: err}
	}
	return zone, nil
}

// RelativeName strips the zone suffix and any trailing dot from name.
// The zone apex yields "".
func RelativeName(name, zone string) string {
	name = strings.TrimSuffix(name, ".")
	zone = strings.TrimSuffix(zone, ".")

	if strings.EqualFold(name, zone) {
		return ""
	}
	suffix := "." + zone
	if len(name) > len(suffix) && strings.EqualFold(name[len(name)-len(suffix):], suffix) {
		return name[:len(name)-len(suffix)]
	}
	return name
}

// FQDN qualifies name with zone unless it already lies within zone.
// The result carries no trailing dot.
func FQDN(name, zone string) string {
	name = strings.TrimSuffix(name, ".")
	zone = strings.TrimSuffix(zone, ".")

	if RelativeName(name, zone) != name || strings.EqualFold(name, zone) {
		return name
	}
	return name + "." + zone
}
