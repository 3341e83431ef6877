// Package oidcstore adapts a hosted OAuth2/OIDC identity provider to
// credentials.Store. Sign-in uses the resource-owner password grant, sessions
// are refreshed with the refresh-token grant, and access tokens are verified
// against the provider's JWKS before a session is accepted.
package oidcstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-hr-portal/credentials"
	"golang.org/x/oauth2"
)

const defaultTimeout = 10 * time.Second

// Config locates the provider endpoints
type Config struct {
	Issuer          string
	ClientID        string
	ClientSecret    string
	TokenURL        string
	JWKSURL         string
	RegistrationURL string // POST {email,password,data} creates a credential record
	RevocationURL   string // RFC 7009 token revocation
	AccountURL      string // PUT {password} with a bearer token changes the password
	Audience        string // Expected access token audience, empty to skip the check
	Scopes          []string
	HTTPClient      *http.Client
}

// Provider is shared by every browser client talking to the same identity provider
type Provider struct {
	cfg        Config
	oauth      *oauth2.Config
	verifier   *oidc.IDTokenVerifier
	httpClient *http.Client
}

func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Issuer == "" || cfg.TokenURL == "" || cfg.JWKSURL == "" {
		return nil, errors.New("[oidcstore.NewProvider] issuer, token URL and JWKS URL are required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	keyCtx := oidc.ClientContext(context.Background(), httpClient)
	keySet := oidc.NewRemoteKeySet(keyCtx, cfg.JWKSURL)
	verifier := oidc.NewVerifier(cfg.Issuer, keySet, &oidc.Config{
		ClientID:          cfg.Audience,
		SkipClientIDCheck: cfg.Audience == "",
	})

	return &Provider{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
			Scopes:       cfg.Scopes,
		},
		verifier:   verifier,
		httpClient: httpClient,
	}, nil
}

func (p *Provider) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

// passwordGrant exchanges credentials for a verified session
func (p *Provider) passwordGrant(ctx context.Context, email, password string) (*credentials.Session, error) {
	tok, err := p.oauth.PasswordCredentialsToken(p.clientContext(ctx), email, password)
	if err != nil {
		return nil, classifyTokenError(err)
	}
	return p.sessionFromToken(ctx, tok)
}

// refresh uses the refresh-token grant to renew session
func (p *Provider) refresh(ctx context.Context, session *credentials.Session) (*credentials.Session, error) {
	src := p.oauth.TokenSource(p.clientContext(ctx), &oauth2.Token{
		RefreshToken: session.RefreshToken,
		Expiry:       time.Unix(1, 0), // force the refresh
	})
	tok, err := src.Token()
	if err != nil {
		return nil, classifyTokenError(err)
	}
	refreshed, err := p.sessionFromToken(ctx, tok)
	if err != nil {
		return nil, err
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = session.RefreshToken
	}
	return refreshed, nil
}

func (p *Provider) sessionFromToken(ctx context.Context, tok *oauth2.Token) (*credentials.Session, error) {
	verified, err := p.verifier.Verify(oidc.ClientContext(ctx, p.httpClient), tok.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: access token rejected: %v", credentials.ErrUnavailable, err)
	}
	var claims struct {
		Email string `json:"email"`
	}
	if err := verified.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: access token claims: %v", credentials.ErrUnavailable, err)
	}
	expiresAt := verified.Expiry
	if expiresAt.IsZero() {
		expiresAt = tok.Expiry
	}
	return &credentials.Session{
		UserID:       verified.Subject,
		Email:        claims.Email,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    expiresAt.UTC(),
	}, nil
}

type registration struct {
	Email    string            `json:"email"`
	Password string            `json:"password"`
	Data     map[string]string `json:"data,omitempty"`
}

type registeredUser struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Metadata map[string]string `json:"user_metadata"`
}

func (p *Provider) register(ctx context.Context, email, password string, data map[string]string) (*credentials.User, error) {
	if p.cfg.RegistrationURL == "" {
		return nil, fmt.Errorf("%w: registration is not configured", credentials.ErrUnavailable)
	}
	body, err := json.Marshal(registration{Email: email, Password: password, Data: data})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.RegistrationURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(url.QueryEscape(p.cfg.ClientID), url.QueryEscape(p.cfg.ClientSecret))

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", credentials.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		return nil, credentials.ErrEmailTaken
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("%w: %s", credentials.ErrWeakPassword, readMessage(resp.Body))
	case resp.StatusCode/100 != 2:
		return nil, fmt.Errorf("%w: registration returned %d: %s", credentials.ErrUnavailable, resp.StatusCode, readMessage(resp.Body))
	}

	var user registeredUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("%w: decode registration: %v", credentials.ErrUnavailable, err)
	}
	return &credentials.User{ID: user.ID, Email: user.Email, Metadata: user.Metadata}, nil
}

// revoke asks the provider to invalidate the refresh token (or the access token when there is none)
func (p *Provider) revoke(ctx context.Context, session *credentials.Session) error {
	if p.cfg.RevocationURL == "" {
		return nil
	}
	form := url.Values{}
	if session.RefreshToken != "" {
		form.Set("token", session.RefreshToken)
		form.Set("token_type_hint", "refresh_token")
	} else {
		form.Set("token", session.AccessToken)
		form.Set("token_type_hint", "access_token")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.RevocationURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(url.QueryEscape(p.cfg.ClientID), url.QueryEscape(p.cfg.ClientSecret))

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", credentials.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%w: revocation returned %d", credentials.ErrUnavailable, resp.StatusCode)
	}
	return nil
}

func (p *Provider) changePassword(ctx context.Context, session *credentials.Session, newPassword string) error {
	if p.cfg.AccountURL == "" {
		return fmt.Errorf("%w: account endpoint is not configured", credentials.ErrUnavailable)
	}
	body, err := json.Marshal(map[string]string{"password": newPassword})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, p.cfg.AccountURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", credentials.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return credentials.ErrNoSession
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", credentials.ErrWeakPassword, readMessage(resp.Body))
	case resp.StatusCode/100 != 2:
		return fmt.Errorf("%w: account update returned %d", credentials.ErrUnavailable, resp.StatusCode)
	}
	return nil
}

func classifyTokenError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.ErrorCode == "invalid_grant" ||
			(retrieveErr.Response != nil && (retrieveErr.Response.StatusCode == http.StatusBadRequest || retrieveErr.Response.StatusCode == http.StatusUnauthorized)) {
			return credentials.ErrInvalidCredentials
		}
	}
	return fmt.Errorf("%w: %v", credentials.ErrUnavailable, err)
}

func readMessage(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 1024))
	return strings.TrimSpace(string(b))
}
