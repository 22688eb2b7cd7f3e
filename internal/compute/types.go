package compute

import "context"

// Status is the provider-reported state of an instance, normalised across
// providers.
type Status string

const (
	StatusBuilding Status = "building"
	StatusSpawning Status = "spawning"
	StatusActive   Status = "active"
	StatusError    Status = "error"
	StatusOther    Status = "other"
)

// Transient reports whether the provider is still bringing the instance up.
func (s Status) Transient() bool {
	return s == StatusBuilding || s == StatusSpawning
}

// Instance is a transient view of one compute resource. Address is the
// primary reachable address and is empty until the provider assigns one.
type Instance struct {
	ID      string
	Name    string
	Status  Status
	Address string
}

// Image is bootable reference data.
type Image struct {
	ID   string
	Name string
}

// Network is a provider network instances can be attached to.
type Network struct {
	ID   string
	Name string
}

// Resource is anything the Locator can match by id or name.
type Resource interface {
	ResourceID() string
	ResourceName() string
}

func (i Instance) ResourceID() string   { return i.ID }
func (i Instance) ResourceName() string { return i.Name }
func (i Image) ResourceID() string      { return i.ID }
func (i Image) ResourceName() string    { return i.Name }
func (n Network) ResourceID() string    { return n.ID }
func (n Network) ResourceName() string  { return n.Name }

// AuthorizedKeysPath is where the operator's public key is injected.
const AuthorizedKeysPath = "/root/.ssh/authorized_keys"

// CreateOpts is the fully resolved payload of an instance creation.
type CreateOpts struct {
	Name       string
	ImageID    string
	Flavor     string
	NetworkIDs []string
	// Files are injected into the instance filesystem at boot, keyed by
	// absolute path. Providers without file injection fall back to
	// SSHPublicKey.
	Files        map[string][]byte
	SSHPublicKey string
	// Labels become server labels or metadata, depending on the provider.
	Labels map[string]string
}

// Provider is the compute API consumed by this package.
type Provider interface {
	ListImages(ctx context.Context) ([]Image, error)
	ListNetworks(ctx context.Context) ([]Network, error)
	ListInstances(ctx context.Context) ([]Instance, error)
	// GetInstance returns an error matching ErrNotFound when id is unknown.
	GetInstance(ctx context.Context, id string) (*Instance, error)
	CreateInstance(ctx context.Context, opts CreateOpts) (*Instance, error)
	// DeleteInstance returns an error matching ErrNotFound when id is unknown.
	DeleteInstance(ctx context.Context, id string) error
}
