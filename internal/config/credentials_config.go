package config

import "time"

const (
	CredentialsModeMemory = "memory"
	CredentialsModeOIDC   = "oidc"
)

type CredentialsConfig interface {
	GetCredentialsMode() string
	GetTokenSecret() string
	GetTokenExpiry() time.Duration
	GetOIDCIssuer() string
	GetOIDCClientID() string
	GetOIDCClientSecret() string
	GetOIDCTokenURL() string
	GetOIDCJWKSURL() string
	GetOIDCRegistrationURL() string
	GetOIDCRevocationURL() string
	GetOIDCAccountURL() string
	GetOIDCAudience() string
	GetCredentialsTimeout() time.Duration
}

type Credentials struct{}

var _ CredentialsConfig = Credentials{}

// GetCredentialsMode selects the credential service: "memory" runs one in-process, "oidc" uses a hosted provider
func (Credentials) GetCredentialsMode() string {
	return GetEnv("CREDENTIALS_MODE", CredentialsModeMemory)
}

// GetTokenSecret signs the in-process service's access tokens
func (Credentials) GetTokenSecret() string {
	return GetEnv("TOKEN_SECRET", "change-me")
}

func (Credentials) GetTokenExpiry() time.Duration {
	return getDuration("TOKEN_EXPIRY", 1*time.Hour)
}

func (Credentials) GetOIDCIssuer() string {
	return GetEnv("OIDC_ISSUER", "")
}

func (Credentials) GetOIDCClientID() string {
	return GetEnv("OIDC_CLIENT_ID", "")
}

func (Credentials) GetOIDCClientSecret() string {
	return GetEnv("OIDC_CLIENT_SECRET", "")
}

func (c Credentials) GetOIDCTokenURL() string {
	return GetEnv("OIDC_TOKEN_URL", c.GetOIDCIssuer()+"/token")
}

func (c Credentials) GetOIDCJWKSURL() string {
	return GetEnv("OIDC_JWKS_URL", c.GetOIDCIssuer()+"/.well-known/jwks.json")
}

func (c Credentials) GetOIDCRegistrationURL() string {
	return GetEnv("OIDC_REGISTRATION_URL", c.GetOIDCIssuer()+"/signup")
}

func (c Credentials) GetOIDCRevocationURL() string {
	return GetEnv("OIDC_REVOCATION_URL", c.GetOIDCIssuer()+"/revoke")
}

func (c Credentials) GetOIDCAccountURL() string {
	return GetEnv("OIDC_ACCOUNT_URL", c.GetOIDCIssuer()+"/user")
}

func (Credentials) GetOIDCAudience() string {
	return GetEnv("OIDC_AUDIENCE", "")
}

func (Credentials) GetCredentialsTimeout() time.Duration {
	return getDuration("CREDENTIALS_TIMEOUT", 10*time.Second)
}
