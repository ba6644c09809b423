package identity

// Provider names carried on a Session.
const (
	ProviderPassword   = "password"
	ProviderEnterprise = "enterprise"
)

// Session describes the signed-in user.
type Session struct {
	Username    string
	DisplayName string
	Email       string
	Provider    string
}
