package autherr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindNone},
		{"plain", errors.New("boom"), KindNone},
		{"sentinel", ErrAuthenticationRequired, KindAuthenticationRequired},
		{"wrapped", fmt.Errorf("%w: token expired", ErrAuthenticationRequired), KindAuthenticationRequired},
		{"double wrapped", fmt.Errorf("rpc: %w", fmt.Errorf("%w: redis down", ErrSessionAccess)), KindSessionAccess},
		{"denied", fmt.Errorf("%w: needs WRITE_ANY", ErrAuthorizationDenied), KindAuthorizationDenied},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Errorf("%s: KindOf = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestKindOfSeesThroughInternalBoxing(t *testing.T) {
	cause := fmt.Errorf("%w: connection refused", ErrSessionAccess)
	boxed := &Internal{Cause: cause}

	if got := KindOf(boxed); got != KindSessionAccess {
		t.Fatalf("KindOf = %v, want session-access", got)
	}
	if !errors.Is(boxed, ErrSessionAccess) {
		t.Fatal("errors.Is must reach the boxed sentinel")
	}

	// A boxed definitive rejection keeps its kind too.
	rejected := &Internal{Cause: ErrAuthenticationFailure}
	if got := KindOf(rejected); got != KindAuthenticationFailure {
		t.Fatalf("KindOf = %v, want authentication-failure", got)
	}
}

func TestIsIndeterminate(t *testing.T) {
	if !IsIndeterminate(fmt.Errorf("%w: redis down", ErrSessionAccess)) {
		t.Fatal("session-access is indeterminate")
	}
	if !IsIndeterminate(&Internal{Cause: ErrSessionAccess}) {
		t.Fatal("boxed session-access is indeterminate")
	}
	for _, err := range []error{
		nil,
		ErrAuthenticationFailure,
		ErrAuthenticationRequired,
		ErrAuthorizationDenied,
		ErrUnsupportedOperation,
		errors.New("boom"),
	} {
		if IsIndeterminate(err) {
			t.Errorf("%v must not be indeterminate", err)
		}
	}
}

func TestKindString(t *testing.T) {
	for k := KindAuthenticationFailure; k <= KindValidation; k++ {
		if k.String() == "" || k.String() == "unknown" {
			t.Errorf("kind %d has no name", k)
		}
	}
}
