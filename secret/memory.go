package secret

import (
	"crypto/subtle"
	"sync"
)

// Memory is an in-process Store: staged writes become visible to Get
// immediately (a backend with fast staging behaves the same way), Save is a
// no-op checkpoint, and Discard rolls back to the last checkpoint.
type Memory struct {
	mu         sync.Mutex
	opened     bool
	passphrase []byte

	secrets map[string][]byte
	logins  map[LoginKey][]byte

	savedSecrets map[string][]byte
	savedLogins  map[LoginKey][]byte
}

// NewMemory returns an unopened in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Exists implements Store.
func (m *Memory) Exists() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.passphrase != nil
}

// Create implements Store.
func (m *Memory) Create(passphrase []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passphrase = append([]byte(nil), passphrase...)
	m.opened = true
	m.secrets = make(map[string][]byte)
	m.logins = make(map[LoginKey][]byte)
	m.savedSecrets = make(map[string][]byte)
	m.savedLogins = make(map[LoginKey][]byte)
	return nil
}

// Open implements Store.
func (m *Memory) Open(passphrase []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.passphrase == nil {
		return ErrStoreClosed
	}
	if subtle.ConstantTimeCompare(m.passphrase, passphrase) != 1 {
		return ErrBadPassphrase
	}
	m.opened = true
	return nil
}

func (m *Memory) ready() error {
	if !m.opened {
		return ErrStoreClosed
	}
	return nil
}

// GetSecret implements Store; absent aliases return nil, nil.
func (m *Memory) GetSecret(alias string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ready(); err != nil {
		return nil, err
	}
	v, ok := m.secrets[alias]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

// SetSecret implements Store. Validation failures leave the store
// untouched.
func (m *Memory) SetSecret(alias string, value []byte) error {
	if err := ValidateAlias(alias); err != nil {
		return err
	}
	if err := ValidateSecret(value); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ready(); err != nil {
		return err
	}
	m.secrets[alias] = append([]byte(nil), value...)
	return nil
}

// DeleteSecret implements Store. Idempotent.
func (m *Memory) DeleteSecret(alias string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ready(); err != nil {
		return err
	}
	delete(m.secrets, alias)
	return nil
}

// GetLoginSecret implements Store.
func (m *Memory) GetLoginSecret(key LoginKey) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ready(); err != nil {
		return nil, err
	}
	v, ok := m.logins[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

// SetLoginSecret implements Store.
func (m *Memory) SetLoginSecret(key LoginKey, value []byte) error {
	if err := ValidateLoginKey(key); err != nil {
		return err
	}
	if err := ValidateSecret(value); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ready(); err != nil {
		return err
	}
	m.logins[key] = append([]byte(nil), value...)
	return nil
}

// DeleteLoginSecret implements Store. Idempotent.
func (m *Memory) DeleteLoginSecret(key LoginKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ready(); err != nil {
		return err
	}
	delete(m.logins, key)
	return nil
}

// Save implements Store: checkpoint the current contents.
func (m *Memory) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ready(); err != nil {
		return err
	}
	m.savedSecrets = copySecrets(m.secrets)
	m.savedLogins = copyLogins(m.logins)
	return nil
}

// Discard implements Store: roll back to the last checkpoint.
func (m *Memory) Discard() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ready(); err != nil {
		return err
	}
	m.secrets = copySecrets(m.savedSecrets)
	m.logins = copyLogins(m.savedLogins)
	return nil
}

func copySecrets(src map[string][]byte) map[string][]byte {
	dst := make(map[string][]byte, len(src))
	for k, v := range src {
		dst[k] = append([]byte(nil), v...)
	}
	return dst
}

func copyLogins(src map[LoginKey][]byte) map[LoginKey][]byte {
	dst := make(map[LoginKey][]byte, len(src))
	for k, v := range src {
		dst[k] = append([]byte(nil), v...)
	}
	return dst
}
