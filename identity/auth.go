package identity

import (
	"context"
	"errors"

	"agent-chat-client/utils"
)

// Service tracks the signed-in user across the password and enterprise
// providers. Sign-in events are mirrored to the remote log sink.
type Service struct {
	enterprise Provider
	sink       *utils.RemoteSink
	current    *Session
}

// NewService creates an identity service. sink may be nil.
func NewService(enterprise Provider, sink *utils.RemoteSink) *Service {
	if enterprise == nil {
		enterprise = Disabled{}
	}
	return &Service{enterprise: enterprise, sink: sink}
}

// CurrentUser returns a copy of the active session, or nil when signed out.
func (s *Service) CurrentUser() *Session {
	if s.current == nil {
		return nil
	}
	session := *s.current
	return &session
}

// EnterpriseEnabled reports whether enterprise sign-on is configured.
func (s *Service) EnterpriseEnabled() bool {
	return s.enterprise.Enabled()
}

// Login signs in with a username. The password is accepted but not
// validated against anything; there is no credential store to check it
// against.
func (s *Service) Login(username, _ string) *Session {
	s.sink.LogInfo("Password login succeeded", map[string]any{"username": username})
	s.current = &Session{Username: username, Provider: ProviderPassword}
	return s.CurrentUser()
}

// LoginEnterprise runs an interactive enterprise sign-in.
func (s *Service) LoginEnterprise(ctx context.Context) (*Session, error) {
	s.sink.LogInfo("Enterprise login initiated", nil)

	result, err := s.enterprise.Login(ctx)
	if err != nil {
		s.sink.LogError("Enterprise login failed", err, nil)
		return nil, err
	}

	session, err := sessionFromResult(result)
	if err != nil {
		s.sink.LogError("Enterprise login failed", err, nil)
		return nil, err
	}

	s.current = session
	s.sink.LogInfo("Enterprise login succeeded", map[string]any{"username": session.Username})
	return s.CurrentUser(), nil
}

// Logout clears the active session and, for enterprise sessions, the
// provider's cached credentials.
func (s *Service) Logout(ctx context.Context) {
	current := s.current
	s.current = nil

	if current == nil {
		return
	}

	s.sink.LogInfo("User logged out", map[string]any{
		"username": current.Username,
		"provider": current.Provider,
	})

	if current.Provider == ProviderEnterprise {
		// Best effort. The local session is already gone.
		_ = s.enterprise.Logout(ctx)
	}
}

// RestoreSession re-establishes an enterprise session from cached
// credentials, without user interaction.
func (s *Service) RestoreSession(ctx context.Context) {
	if !s.enterprise.Enabled() {
		s.sink.LogInfo("Skipped enterprise session restore because SSO is disabled.", nil)
		return
	}

	if account := s.enterprise.ActiveAccount(); account != nil {
		s.current = sessionFromAccount(*account)
		s.sink.LogInfo("Restored enterprise session from active account.", map[string]any{"username": s.current.Username})
		return
	}

	result, err := s.enterprise.AcquireTokenSilently(ctx)
	if err != nil || result == nil {
		s.sink.LogInfo("No enterprise account restored from silent token.", nil)
		return
	}

	session, err := sessionFromResult(result)
	if err != nil {
		s.sink.LogInfo("No enterprise account restored from silent token.", nil)
		return
	}

	s.current = session
	s.sink.LogInfo("Restored enterprise session from silent token.", map[string]any{"username": session.Username})
}

// ResolveUserIdentifier returns the identifier attached to outgoing agent
// requests: username first, then email, else blank.
func (s *Service) ResolveUserIdentifier() string {
	if s.current == nil {
		return ""
	}
	if s.current.Username != "" {
		return s.current.Username
	}
	return s.current.Email
}

func sessionFromResult(result *AuthResult) (*Session, error) {
	if result == nil || result.Account.Username == "" {
		return nil, errors.New("no account information returned from enterprise login")
	}
	return sessionFromAccount(result.Account), nil
}

func sessionFromAccount(account Account) *Session {
	name := account.Name
	if name == "" {
		name = account.Username
	}
	return &Session{
		Username:    account.Username,
		DisplayName: name,
		Email:       account.Username,
		Provider:    ProviderEnterprise,
	}
}
