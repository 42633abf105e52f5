package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFederationDescriptor(t *testing.T) {
	raw := `{
		"entity_id": "https://idp.example.com",
		"sso_url": "https://idp.example.com/sso",
		"certificate": "-----BEGIN CERTIFICATE-----\n...",
		"name_id_format": "urn:oasis:names:tc:SAML:2.0:nameid-format:persistent"
	}`

	d, err := ParseFederationDescriptor(raw)
	require.NoError(t, err)
	assert.Equal(t, "https://idp.example.com", d.EntityID)
	assert.Equal(t, "https://idp.example.com/sso", d.SSOURL)
	assert.Equal(t, "urn:oasis:names:tc:SAML:2.0:nameid-format:persistent", d.NameIDFormat)
	assert.False(t, d.SignRequests)
}

func TestParseFederationDescriptorEmpty(t *testing.T) {
	_, err := ParseFederationDescriptor("")
	assert.Error(t, err)
}

func TestParseFederationDescriptorBadJSON(t *testing.T) {
	_, err := ParseFederationDescriptor("{not json")
	assert.Error(t, err)
}
