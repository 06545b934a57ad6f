package secret

// Validating wraps a Store and enforces alias, key, and secret validation
// before delegating each mutation or lookup. Backends then never see the
// values a caller should not have been able to store in the first place.
type Validating struct {
	Store
}

// NewValidating wraps delegate in validation.
func NewValidating(delegate Store) *Validating {
	return &Validating{Store: delegate}
}

func (v *Validating) GetSecret(alias string) ([]byte, error) {
	if err := ValidateAlias(alias); err != nil {
		return nil, err
	}
	return v.Store.GetSecret(alias)
}

func (v *Validating) SetSecret(alias string, secret []byte) error {
	if err := ValidateAlias(alias); err != nil {
		return err
	}
	if err := ValidateSecret(secret); err != nil {
		return err
	}
	return v.Store.SetSecret(alias, secret)
}

func (v *Validating) DeleteSecret(alias string) error {
	if err := ValidateAlias(alias); err != nil {
		return err
	}
	return v.Store.DeleteSecret(alias)
}

func (v *Validating) GetLoginSecret(key LoginKey) ([]byte, error) {
	if err := ValidateLoginKey(key); err != nil {
		return nil, err
	}
	return v.Store.GetLoginSecret(key)
}

func (v *Validating) SetLoginSecret(key LoginKey, secret []byte) error {
	if err := ValidateLoginKey(key); err != nil {
		return err
	}
	if err := ValidateSecret(secret); err != nil {
		return err
	}
	return v.Store.SetLoginSecret(key, secret)
}

func (v *Validating) DeleteLoginSecret(key LoginKey) error {
	if err := ValidateLoginKey(key); err != nil {
		return err
	}
	return v.Store.DeleteLoginSecret(key)
}
