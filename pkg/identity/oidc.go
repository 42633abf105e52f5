package identity

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// OIDCSettings configures the gateway's direct OpenID Connect provider
type OIDCSettings struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// OIDCProvider implements the direct sign-in flow over OpenID Connect
type OIDCProvider struct {
	settings     OIDCSettings
	provider     *oidc.Provider
	verifier     *oidc.IDTokenVerifier
	oauth2Config *oauth2.Config
}

// NewOIDCProvider discovers the issuer and builds the provider
func NewOIDCProvider(ctx context.Context, settings OIDCSettings) (*OIDCProvider, error) {
	if settings.IssuerURL == "" {
		return nil, fmt.Errorf("issuer_url is required")
	}

	provider, err := oidc.NewProvider(ctx, settings.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID: settings.ClientID,
	})

	oauth2Config := &oauth2.Config{
		ClientID:     settings.ClientID,
		ClientSecret: settings.ClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  settings.RedirectURL,
		Scopes:       settings.Scopes,
	}

	return &OIDCProvider{
		settings:     settings,
		provider:     provider,
		verifier:     verifier,
		oauth2Config: oauth2Config,
	}, nil
}

// RedirectToSignIn redirects to the OIDC authorization endpoint. The state
// rides through the provider unchanged and comes back on the callback.
func (p *OIDCProvider) RedirectToSignIn(w http.ResponseWriter, r *http.Request, state string) error {
	authURL := p.oauth2Config.AuthCodeURL(state)
	http.Redirect(w, r, authURL, http.StatusFound)
	return nil
}

// HandleCallback exchanges the authorization code and verifies the ID token
func (p *OIDCProvider) HandleCallback(w http.ResponseWriter, r *http.Request) (*User, error) {
	code := r.URL.Query().Get("code")
	if code == "" {
		return nil, fmt.Errorf("missing authorization code")
	}

	ctx := r.Context()
	oauth2Token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("missing id_token in response")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}

	var claims struct {
		PreferredUsername string `json:"preferred_username"`
		Email             string `json:"email"`
		Name              string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse claims: %w", err)
	}

	user := &User{
		UserID:      idToken.Subject,
		LoginID:     claims.PreferredUsername,
		Email:       claims.Email,
		DisplayName: claims.Name,
	}

	if user.LoginID == "" {
		user.LoginID = claims.Email
	}
	if user.UserID == "" {
		return nil, fmt.Errorf("missing subject in ID token")
	}
	if user.LoginID == "" {
		return nil, fmt.Errorf("missing login identifier in ID token")
	}

	return user, nil
}

// SignOut clears nothing provider-side. RP-initiated logout is not wired;
// the dispatcher clears the local session.
func (p *OIDCProvider) SignOut(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// ValidateConfig validates the OIDC settings
func (p *OIDCProvider) ValidateConfig() error {
	s := p.settings

	if s.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}
	if s.ClientSecret == "" {
		return fmt.Errorf("client_secret is required")
	}
	if s.IssuerURL == "" {
		return fmt.Errorf("issuer_url is required")
	}
	if s.RedirectURL == "" {
		return fmt.Errorf("redirect_url is required")
	}

	hasOpenID := false
	for _, scope := range s.Scopes {
		if scope == "openid" {
			hasOpenID = true
			break
		}
	}
	if !hasOpenID {
		return fmt.Errorf("'openid' scope is required")
	}

	return nil
}
