package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOIDCProviderValidateConfig(t *testing.T) {
	valid := OIDCSettings{
		ClientID:     "portal-client",
		ClientSecret: "portal-secret",
		IssuerURL:    "https://idp.example.com",
		RedirectURL:  "https://portal.example.com/auth/callback",
		Scopes:       []string{"openid", "profile", "email"},
	}

	tests := []struct {
		name     string
		mutate   func(*OIDCSettings)
		errorMsg string
	}{
		{"valid settings", func(s *OIDCSettings) {}, ""},
		{"missing client_id", func(s *OIDCSettings) { s.ClientID = "" }, "client_id is required"},
		{"missing client_secret", func(s *OIDCSettings) { s.ClientSecret = "" }, "client_secret is required"},
		{"missing issuer_url", func(s *OIDCSettings) { s.IssuerURL = "" }, "issuer_url is required"},
		{"missing redirect_url", func(s *OIDCSettings) { s.RedirectURL = "" }, "redirect_url is required"},
		{"missing openid scope", func(s *OIDCSettings) { s.Scopes = []string{"profile"} }, "'openid' scope is required"},
		{"no scopes at all", func(s *OIDCSettings) { s.Scopes = nil }, "'openid' scope is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := valid
			tt.mutate(&settings)

			// discovery needs a live issuer, so validate the settings on a
			// hand-built provider
			provider := &OIDCProvider{settings: settings}
			err := provider.ValidateConfig()

			if tt.errorMsg == "" {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			}
		})
	}
}
