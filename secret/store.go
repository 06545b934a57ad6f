// Package secret defines the secret-store interface the security layer
// consumes for passwords and keys, and the validation rules every backend
// must apply. File- and wallet-based backends live with the deployment
// tooling; [Memory] here backs tests and the built-in user verifier.
package secret

import "errors"

var (
	// ErrStoreClosed is returned for operations on a store that has not
	// been opened or created.
	ErrStoreClosed = errors.New("secret store not open")
	// ErrBadPassphrase is returned when a store passphrase is rejected.
	ErrBadPassphrase = errors.New("secret store passphrase rejected")
)

// LoginKey names a stored login credential by the database it belongs to
// and the user it authenticates.
type LoginKey struct {
	Database string
	User     string
}

// Store is a passphrase-protected secret container. Get operations return
// nil for absent entries; absence is not an error. Mutations stage changes
// that Save persists and Discard abandons.
type Store interface {
	Exists() bool
	Create(passphrase []byte) error
	Open(passphrase []byte) error

	GetSecret(alias string) ([]byte, error)
	SetSecret(alias string, secret []byte) error
	DeleteSecret(alias string) error

	GetLoginSecret(key LoginKey) ([]byte, error)
	SetLoginSecret(key LoginKey, secret []byte) error
	DeleteLoginSecret(key LoginKey) error

	Save() error
	Discard() error
}
