package identity

import (
	"context"
	"errors"
)

// Account is an identity known to a provider.
type Account struct {
	Username string
	Name     string
}

// AuthResult is the outcome of a provider sign-in.
type AuthResult struct {
	Account Account
	IDToken string
}

// Provider abstracts an external single sign-on provider.
type Provider interface {
	// Enabled reports whether the provider is configured.
	Enabled() bool
	// Login runs an interactive sign-in.
	Login(ctx context.Context) (*AuthResult, error)
	// AcquireTokenSilently restores a session from cached credentials
	// without user interaction. Returns (nil, nil) when no cached
	// session can be restored.
	AcquireTokenSilently(ctx context.Context) (*AuthResult, error)
	// ActiveAccount returns the account signed in during this process,
	// or nil.
	ActiveAccount() *Account
	// Logout discards cached credentials.
	Logout(ctx context.Context) error
}

// ErrProviderDisabled is returned when sign-in is attempted against an
// unconfigured provider.
var ErrProviderDisabled = errors.New("single sign-on is not configured")

// Disabled is a Provider with no configuration behind it.
type Disabled struct{}

func (Disabled) Enabled() bool { return false }

func (Disabled) Login(ctx context.Context) (*AuthResult, error) {
	return nil, ErrProviderDisabled
}

func (Disabled) AcquireTokenSilently(ctx context.Context) (*AuthResult, error) {
	return nil, nil
}

func (Disabled) ActiveAccount() *Account { return nil }

func (Disabled) Logout(ctx context.Context) error { return nil }
