package compute

import (
	"errors"
	"fmt"
)

// ErrNotFound matches every lookup failure of this package and the
// "does not exist" answers of provider adapters.
var ErrNotFound = errors.New("not found")

// NotFoundError reports that no resource of Kind matched Identifier.
type NotFoundError struct {
	Kind       string
	Identifier string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s matching %q found", e.Kind, e.Identifier)
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ProviderError wraps a failed compute API call.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("compute provider: %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// KeyFileError reports an unreadable SSH public key file. It unwraps to the
// underlying fs error, so errors.Is(err, fs.ErrNotExist) works.
type KeyFileError struct {
	Path string
	Err  error
}

func (e *KeyFileError) Error() string {
	return fmt.Sprintf("ssh public key %s: %v", e.Path, e.Err)
}

func (e *KeyFileError) Unwrap() error {
	return e.Err
}
