package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"agent-chat-client/utils"
)

// Notify is called during interactive login with the verification URL and
// the one-time code the user must enter there.
type Notify func(verificationURL, userCode string)

// EnterpriseProvider signs users in against an Entra ID tenant using the
// OAuth2 device authorization grant. Tokens are cached on disk so later
// runs can restore the session silently.
type EnterpriseProvider struct {
	enabled   bool
	config    *oauth2.Config
	tokenPath string
	notify    Notify
	logger    *utils.Logger
	account   *Account
}

// storedToken is the on-disk token cache.
type storedToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
	Expiry       time.Time `json:"expiry"`
}

// idClaims are the identity claims read from an ID token. The token comes
// straight from the token endpoint over TLS, so the signature is not
// re-verified here.
type idClaims struct {
	PreferredUsername string `json:"preferred_username"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	jwt.RegisteredClaims
}

// NewEnterpriseProvider builds a provider from config. notify and logger
// may be nil.
func NewEnterpriseProvider(cfg utils.EnterpriseConfig, logger *utils.Logger, notify Notify) *EnterpriseProvider {
	provider := &EnterpriseProvider{
		enabled:   cfg.Enabled(),
		tokenPath: cfg.TokenPath,
		notify:    notify,
		logger:    logger,
	}

	if !provider.enabled {
		return provider
	}

	if provider.tokenPath == "" {
		provider.tokenPath = defaultTokenPath()
	}

	// openid/profile/email yield the ID token, offline_access the
	// refresh token. Configured scopes are appended after them.
	scopes := append([]string{"openid", "profile", "email", "offline_access"}, cfg.Scopes...)

	provider.config = &oauth2.Config{
		ClientID:    cfg.ClientID,
		Endpoint:    microsoft.AzureADEndpoint(cfg.TenantID),
		RedirectURL: cfg.RedirectURI,
		Scopes:      scopes,
	}

	return provider
}

// Enabled reports whether the provider is configured.
func (p *EnterpriseProvider) Enabled() bool {
	return p.enabled
}

// Login runs the device authorization flow. The user is told where to enter
// the code via the Notify callback, then Login blocks until the grant is
// approved, denied, or ctx is done.
func (p *EnterpriseProvider) Login(ctx context.Context) (*AuthResult, error) {
	if !p.enabled {
		return nil, ErrProviderDisabled
	}

	deviceAuth, err := p.config.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start device authorization: %w", err)
	}

	if p.notify != nil {
		p.notify(deviceAuth.VerificationURI, deviceAuth.UserCode)
	}

	token, err := p.config.DeviceAccessToken(ctx, deviceAuth)
	if err != nil {
		return nil, fmt.Errorf("device authorization was not completed: %w", err)
	}

	return p.adoptToken(token)
}

// AcquireTokenSilently restores a session from the on-disk token cache,
// refreshing the tokens when possible. Returns (nil, nil) when there is no
// usable cache.
func (p *EnterpriseProvider) AcquireTokenSilently(ctx context.Context) (*AuthResult, error) {
	if !p.enabled {
		return nil, nil
	}

	cached, err := p.loadToken()
	if err != nil || cached == nil {
		return nil, nil
	}

	token := &oauth2.Token{
		AccessToken:  cached.AccessToken,
		RefreshToken: cached.RefreshToken,
		Expiry:       cached.Expiry,
	}

	refreshed, err := p.config.TokenSource(ctx, token).Token()
	if err != nil {
		// The refresh token is gone or revoked. Interaction is
		// required, which this path never does.
		p.logger.Info("Silent token refresh failed: %v", err)
		return nil, nil
	}

	idToken := cached.IDToken
	if raw, ok := refreshed.Extra("id_token").(string); ok && raw != "" {
		idToken = raw
	}

	return p.adopt(refreshed, idToken)
}

// ActiveAccount returns the account signed in during this process, or nil.
func (p *EnterpriseProvider) ActiveAccount() *Account {
	if p.account == nil {
		return nil
	}
	account := *p.account
	return &account
}

// Logout discards the in-memory session and the on-disk token cache.
func (p *EnterpriseProvider) Logout(ctx context.Context) error {
	p.account = nil

	if p.tokenPath == "" {
		return nil
	}
	if err := os.Remove(p.tokenPath); err != nil && !os.IsNotExist(err) {
		return utils.WrapError(err, "failed to remove cached token")
	}
	return nil
}

func (p *EnterpriseProvider) adoptToken(token *oauth2.Token) (*AuthResult, error) {
	idToken, _ := token.Extra("id_token").(string)
	return p.adopt(token, idToken)
}

func (p *EnterpriseProvider) adopt(token *oauth2.Token, idToken string) (*AuthResult, error) {
	account, err := accountFromIDToken(idToken)
	if err != nil {
		return nil, err
	}

	p.account = &account

	if err := p.saveToken(token, idToken); err != nil {
		p.logger.Warn("Failed to cache enterprise token: %v", err)
	}

	return &AuthResult{Account: account, IDToken: idToken}, nil
}

// accountFromIDToken derives the account identity from ID token claims.
// The username is preferred_username when present, then email.
func accountFromIDToken(raw string) (Account, error) {
	if raw == "" {
		return Account{}, errors.New("no account information returned from enterprise login")
	}

	claims := &idClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return Account{}, fmt.Errorf("failed to parse identity token: %w", err)
	}

	username := claims.PreferredUsername
	if username == "" {
		username = claims.Email
	}
	if username == "" {
		return Account{}, errors.New("identity token carried no username claim")
	}

	return Account{Username: username, Name: claims.Name}, nil
}

func (p *EnterpriseProvider) loadToken() (*storedToken, error) {
	data, err := os.ReadFile(p.tokenPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var cached storedToken
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

func (p *EnterpriseProvider) saveToken(token *oauth2.Token, idToken string) error {
	cached := storedToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		IDToken:      idToken,
		Expiry:       token.Expiry,
	}

	data, err := json.MarshalIndent(cached, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p.tokenPath), 0700); err != nil {
		return err
	}
	return os.WriteFile(p.tokenPath, data, 0600)
}

func defaultTokenPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "./config/enterprise-token.json"
	}
	return filepath.Join(configDir, "agent-chat-client", "enterprise-token.json")
}
