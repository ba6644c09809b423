package identity

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"agent-chat-client/utils"
)

func signIDToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestAccountFromIDToken(t *testing.T) {
	raw := signIDToken(t, jwt.MapClaims{
		"preferred_username": "ada@contoso.com",
		"name":               "Ada Lovelace",
		"email":              "ada.l@contoso.com",
	})

	account, err := accountFromIDToken(raw)
	require.NoError(t, err)

	assert.Equal(t, "ada@contoso.com", account.Username)
	assert.Equal(t, "Ada Lovelace", account.Name)
}

func TestAccountFromIDTokenFallsBackToEmail(t *testing.T) {
	raw := signIDToken(t, jwt.MapClaims{"email": "ada@contoso.com"})

	account, err := accountFromIDToken(raw)
	require.NoError(t, err)

	assert.Equal(t, "ada@contoso.com", account.Username)
}

func TestAccountFromIDTokenWithoutIdentity(t *testing.T) {
	raw := signIDToken(t, jwt.MapClaims{"name": "Ada Lovelace"})

	_, err := accountFromIDToken(raw)
	assert.Error(t, err)
}

func TestAccountFromIDTokenEmpty(t *testing.T) {
	_, err := accountFromIDToken("")
	assert.Error(t, err)
}

func TestAccountFromIDTokenGarbage(t *testing.T) {
	_, err := accountFromIDToken("not-a-jwt")
	assert.Error(t, err)
}

func enterpriseTestConfig(tokenPath string) utils.EnterpriseConfig {
	return utils.EnterpriseConfig{
		ClientID:  "client-123",
		TenantID:  "contoso",
		Scopes:    []string{"User.Read"},
		TokenPath: tokenPath,
	}
}

func TestProviderDisabledByPlaceholderConfig(t *testing.T) {
	provider := NewEnterpriseProvider(utils.EnterpriseConfig{
		ClientID: "REPLACE_WITH_CLIENT_ID",
		TenantID: "REPLACE_WITH_TENANT_ID_OR_COMMON",
	}, nil, nil)

	assert.False(t, provider.Enabled())

	_, err := provider.Login(context.Background())
	assert.ErrorIs(t, err, ErrProviderDisabled)

	result, err := provider.AcquireTokenSilently(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestTokenCacheRoundTrip(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "cache", "token.json")
	provider := NewEnterpriseProvider(enterpriseTestConfig(tokenPath), nil, nil)

	err := provider.saveToken(&oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour).UTC(),
	}, "id-token")
	require.NoError(t, err)

	cached, err := provider.loadToken()
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "access", cached.AccessToken)
	assert.Equal(t, "refresh", cached.RefreshToken)
	assert.Equal(t, "id-token", cached.IDToken)
}

func TestLoadTokenMissingFile(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "token.json")
	provider := NewEnterpriseProvider(enterpriseTestConfig(tokenPath), nil, nil)

	cached, err := provider.loadToken()
	assert.NoError(t, err)
	assert.Nil(t, cached)
}

func TestLogoutRemovesTokenCache(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "token.json")
	provider := NewEnterpriseProvider(enterpriseTestConfig(tokenPath), nil, nil)

	require.NoError(t, provider.saveToken(&oauth2.Token{AccessToken: "access"}, ""))
	provider.account = &Account{Username: "ada@contoso.com"}

	require.NoError(t, provider.Logout(context.Background()))

	assert.Nil(t, provider.ActiveAccount())
	_, err := os.Stat(tokenPath)
	assert.True(t, os.IsNotExist(err))
}

func TestActiveAccountReturnsCopy(t *testing.T) {
	provider := NewEnterpriseProvider(enterpriseTestConfig(""), nil, nil)
	provider.account = &Account{Username: "ada@contoso.com"}

	account := provider.ActiveAccount()
	require.NotNil(t, account)
	account.Username = "mutated"

	assert.Equal(t, "ada@contoso.com", provider.account.Username)
}
