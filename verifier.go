package kvauth

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/oracle/nosql-kvauth/autherr"
	"github.com/oracle/nosql-kvauth/password"
	"github.com/oracle/nosql-kvauth/secret"
)

// StoreUser describes an account managed by the StoreUserVerifier.
type StoreUser struct {
	Principal string
	Roles     []string

	// Internal marks store components. Internal accounts never have
	// expiring passwords.
	Internal bool

	// PasswordLifetime bounds how long a set password stays valid. Zero
	// means it never expires.
	PasswordLifetime time.Duration
}

// StoreUserVerifier is the built-in UserVerifier: account metadata in
// memory, password hashes in a secret store. Deployments with an external
// identity source supply their own UserVerifier instead.
type StoreUserVerifier struct {
	mu       sync.RWMutex
	users    map[string]StoreUser
	secrets  secret.Store
	hasher   *password.Hasher
	database string

	now func() time.Time
}

// NewStoreUserVerifier wires a verifier over an opened secret store.
func NewStoreUserVerifier(secrets secret.Store, hasher *password.Hasher, database string) *StoreUserVerifier {
	if database == "" {
		database = "kvstore"
	}
	return &StoreUserVerifier{
		users:    make(map[string]StoreUser),
		secrets:  secrets,
		hasher:   hasher,
		database: database,
		now:      time.Now,
	}
}

func passwordSetAlias(user string) string {
	return "pwdset:" + user
}

// AddUser registers an account and sets its initial password.
func (v *StoreUserVerifier) AddUser(user StoreUser, pass []byte) error {
	if user.Principal == "" {
		return fmt.Errorf("%w: empty principal", autherr.ErrValidation)
	}
	if err := secret.ValidateSecret(pass); err != nil {
		return fmt.Errorf("%w: %v", autherr.ErrValidation, err)
	}

	hash, err := v.hasher.Hash(string(pass))
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	key := secret.LoginKey{Database: v.database, User: user.Principal}
	if err := v.secrets.SetLoginSecret(key, []byte(hash)); err != nil {
		return err
	}
	if err := v.recordPasswordSetLocked(user.Principal); err != nil {
		return err
	}
	if err := v.secrets.Save(); err != nil {
		return err
	}

	v.users[user.Principal] = StoreUser{
		Principal:        user.Principal,
		Roles:            append([]string(nil), user.Roles...),
		Internal:         user.Internal,
		PasswordLifetime: user.PasswordLifetime,
	}
	return nil
}

// RemoveUser drops the account and its stored secrets.
func (v *StoreUserVerifier) RemoveUser(principal string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.users[principal]; !ok {
		return nil
	}
	key := secret.LoginKey{Database: v.database, User: principal}
	if err := v.secrets.DeleteLoginSecret(key); err != nil {
		return err
	}
	if err := v.secrets.DeleteSecret(passwordSetAlias(principal)); err != nil {
		return err
	}
	if err := v.secrets.Save(); err != nil {
		return err
	}
	delete(v.users, principal)
	return nil
}

// VerifyLogin implements UserVerifier.
func (v *StoreUserVerifier) VerifyLogin(username string, pass []byte) (*UserInfo, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	user, ok := v.users[username]
	if !ok {
		// Burn a hash anyway so absent and present accounts cost the same.
		_, _ = v.hasher.Hash(string(pass))
		return nil, fmt.Errorf("%w: unknown user", autherr.ErrAuthenticationFailure)
	}

	key := secret.LoginKey{Database: v.database, User: username}
	hash, err := v.secrets.GetLoginSecret(key)
	if err != nil {
		return nil, err
	}
	if hash == nil {
		return nil, fmt.Errorf("%w: no stored credential", autherr.ErrAuthenticationFailure)
	}

	match, err := v.hasher.Verify(string(pass), string(hash))
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, fmt.Errorf("%w: bad password", autherr.ErrAuthenticationFailure)
	}

	expired, err := v.passwordExpiredLocked(user)
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, ErrPasswordExpired
	}

	return userInfoOf(user), nil
}

// RenewPassword implements UserVerifier. Renewal is accepted only for
// accounts whose current password has expired.
func (v *StoreUserVerifier) RenewPassword(username string, oldPass, newPass []byte) (*UserInfo, error) {
	if err := secret.ValidateSecret(newPass); err != nil {
		return nil, fmt.Errorf("%w: %v", autherr.ErrValidation, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	user, ok := v.users[username]
	if !ok {
		return nil, fmt.Errorf("%w: unknown user", autherr.ErrAuthenticationFailure)
	}

	key := secret.LoginKey{Database: v.database, User: username}
	hash, err := v.secrets.GetLoginSecret(key)
	if err != nil {
		return nil, err
	}
	if hash == nil {
		return nil, fmt.Errorf("%w: no stored credential", autherr.ErrAuthenticationFailure)
	}
	match, err := v.hasher.Verify(string(oldPass), string(hash))
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, fmt.Errorf("%w: bad password", autherr.ErrAuthenticationFailure)
	}

	expired, err := v.passwordExpiredLocked(user)
	if err != nil {
		return nil, err
	}
	if !expired {
		return nil, fmt.Errorf("%w: password renewal only accepted for expired passwords",
			autherr.ErrAuthenticationFailure)
	}

	newHash, err := v.hasher.Hash(string(newPass))
	if err != nil {
		return nil, err
	}
	if err := v.secrets.SetLoginSecret(key, []byte(newHash)); err != nil {
		return nil, err
	}
	if err := v.recordPasswordSetLocked(username); err != nil {
		return nil, err
	}
	if err := v.secrets.Save(); err != nil {
		return nil, err
	}

	return userInfoOf(user), nil
}

// LookupUser implements UserVerifier.
func (v *StoreUserVerifier) LookupUser(username string) (*UserInfo, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	user, ok := v.users[username]
	if !ok {
		return nil, fmt.Errorf("%w: unknown user", autherr.ErrAuthenticationFailure)
	}
	return userInfoOf(user), nil
}

func (v *StoreUserVerifier) recordPasswordSetLocked(username string) error {
	millis := strconv.FormatInt(v.now().UnixMilli(), 10)
	return v.secrets.SetSecret(passwordSetAlias(username), []byte(millis))
}

func (v *StoreUserVerifier) passwordExpiredLocked(user StoreUser) (bool, error) {
	if user.Internal || user.PasswordLifetime == 0 {
		return false, nil
	}
	raw, err := v.secrets.GetSecret(passwordSetAlias(user.Principal))
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	setAt, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return false, fmt.Errorf("corrupt password-set timestamp for %s: %w", user.Principal, err)
	}
	deadline := setAt + user.PasswordLifetime.Milliseconds()
	return v.now().UnixMilli() >= deadline, nil
}

func userInfoOf(user StoreUser) *UserInfo {
	return &UserInfo{
		Principal: user.Principal,
		Roles:     append([]string(nil), user.Roles...),
		Internal:  user.Internal,
	}
}
