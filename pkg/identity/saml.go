package identity

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/url"
	"time"

	saml2 "github.com/russellhaering/gosaml2"
	dsig "github.com/russellhaering/goxmldsig"
)

// SAMLProvider implements the federated sign-in flow for one service. A
// fresh instance is built per dispatch from the service's federation
// descriptor.
type SAMLProvider struct {
	descriptor *FederationDescriptor
	sp         *saml2.SAMLServiceProvider
	baseURL    string
}

// NewSAMLProvider builds a SAML service provider from a federation
// descriptor
func NewSAMLProvider(descriptor *FederationDescriptor, baseURL string) (*SAMLProvider, error) {
	certBlock, _ := pem.Decode([]byte(descriptor.Certificate))
	if certBlock == nil {
		return nil, fmt.Errorf("failed to decode certificate PEM")
	}

	cert, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}

	certStore := dsig.MemoryX509CertificateStore{
		Roots: []*x509.Certificate{cert},
	}

	var keyStore dsig.X509KeyStore
	if descriptor.PrivateKey != "" {
		keyBlock, _ := pem.Decode([]byte(descriptor.PrivateKey))
		if keyBlock == nil {
			return nil, fmt.Errorf("failed to decode private key PEM")
		}

		privateKey, err := x509.ParsePKCS1PrivateKey(keyBlock.Bytes)
		if err != nil {
			pkcs8Key, err := x509.ParsePKCS8PrivateKey(keyBlock.Bytes)
			if err != nil {
				return nil, fmt.Errorf("failed to parse private key: %w", err)
			}
			var ok bool
			privateKey, ok = pkcs8Key.(*rsa.PrivateKey)
			if !ok {
				return nil, fmt.Errorf("private key is not RSA")
			}
		}

		keyStore = &dsig.TLSCertKeyStore{
			PrivateKey:  privateKey,
			Certificate: [][]byte{[]byte(descriptor.Certificate)},
		}
	}

	sp := &saml2.SAMLServiceProvider{
		IdentityProviderSSOURL:      descriptor.SSOURL,
		IdentityProviderIssuer:      descriptor.EntityID,
		ServiceProviderIssuer:       baseURL + "/auth/metadata",
		AssertionConsumerServiceURL: baseURL + "/auth/callback",
		SignAuthnRequests:           descriptor.SignRequests,
		AudienceURI:                 baseURL,
		IDPCertificateStore:         &certStore,
		SPKeyStore:                  keyStore,
	}

	if descriptor.NameIDFormat != "" {
		sp.NameIdFormat = descriptor.NameIDFormat
	}

	return &SAMLProvider{
		descriptor: descriptor,
		sp:         sp,
		baseURL:    baseURL,
	}, nil
}

// RedirectToSignIn redirects the visitor to the identity provider. The
// state travels as SAML RelayState.
func (p *SAMLProvider) RedirectToSignIn(w http.ResponseWriter, r *http.Request, state string) error {
	authURL, err := p.sp.BuildAuthURL(state)
	if err != nil {
		return fmt.Errorf("failed to build auth URL: %w", err)
	}

	http.Redirect(w, r, authURL, http.StatusFound)
	return nil
}

// HandleCallback validates the posted SAML assertion and extracts the user
func (p *SAMLProvider) HandleCallback(w http.ResponseWriter, r *http.Request) (*User, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("failed to parse form: %w", err)
	}

	samlResponse := r.FormValue("SAMLResponse")
	if samlResponse == "" {
		return nil, fmt.Errorf("missing SAMLResponse parameter")
	}

	assertionBytes, err := base64.StdEncoding.DecodeString(samlResponse)
	if err != nil {
		return nil, fmt.Errorf("failed to decode SAMLResponse: %w", err)
	}

	assertionInfo, err := p.sp.RetrieveAssertionInfo(string(assertionBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to validate assertion: %w", err)
	}

	if assertionInfo.WarningInfo != nil {
		if assertionInfo.WarningInfo.InvalidTime {
			return nil, fmt.Errorf("assertion has invalid time")
		}
		if assertionInfo.WarningInfo.NotInAudience {
			return nil, fmt.Errorf("assertion not in expected audience")
		}
	}

	user := &User{}

	for _, attr := range assertionInfo.Values {
		if len(attr.Values) == 0 {
			continue
		}
		switch attr.Name {
		case "uid", "urn:oid:0.9.2342.19200300.100.1.1":
			user.UserID = attr.Values[0].Value
		case "mail", "email", "urn:oid:0.9.2342.19200300.100.1.3":
			user.Email = attr.Values[0].Value
		case "displayName", "urn:oid:2.16.840.1.113730.3.1.241":
			user.DisplayName = attr.Values[0].Value
		}
	}

	// NameID carries the subject when no explicit uid attribute is mapped
	if user.UserID == "" {
		user.UserID = assertionInfo.NameID
	}
	user.LoginID = user.Email
	if user.LoginID == "" {
		user.LoginID = assertionInfo.NameID
	}

	if user.UserID == "" {
		return nil, fmt.Errorf("missing user ID in SAML assertion")
	}
	if user.LoginID == "" {
		return nil, fmt.Errorf("missing login identifier in SAML assertion")
	}

	return user, nil
}

// SignOut redirects through the identity provider's single-logout endpoint
// when one is configured
func (p *SAMLProvider) SignOut(w http.ResponseWriter, r *http.Request) error {
	if p.descriptor.SLOUrl == "" {
		return nil
	}

	logoutRequestXML := fmt.Sprintf(`<?xml version="1.0"?>
<samlp:LogoutRequest xmlns:samlp="urn:oasis:names:tc:SAML:2.0:protocol"
                     xmlns:saml="urn:oasis:names:tc:SAML:2.0:assertion"
                     ID="_%s"
                     Version="2.0"
                     IssueInstant="%s"
                     Destination="%s">
  <saml:Issuer>%s</saml:Issuer>
  <saml:NameID Format="urn:oasis:names:tc:SAML:2.0:nameid-format:transient"></saml:NameID>
</samlp:LogoutRequest>`,
		generateRequestID(),
		time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		p.descriptor.SLOUrl,
		p.sp.ServiceProviderIssuer)

	encodedRequest := base64.StdEncoding.EncodeToString([]byte(logoutRequestXML))
	logoutURL, err := url.Parse(p.descriptor.SLOUrl)
	if err != nil {
		return fmt.Errorf("invalid SLO URL: %w", err)
	}

	query := logoutURL.Query()
	query.Set("SAMLRequest", encodedRequest)
	logoutURL.RawQuery = query.Encode()

	http.Redirect(w, r, logoutURL.String(), http.StatusFound)
	return nil
}

// generateRequestID generates a random ID for SAML requests
func generateRequestID() string {
	b := make([]byte, 20)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// ValidateConfig validates the federation descriptor
func (p *SAMLProvider) ValidateConfig() error {
	d := p.descriptor

	if d.EntityID == "" {
		return fmt.Errorf("entity_id is required")
	}
	if d.SSOURL == "" {
		return fmt.Errorf("sso_url is required")
	}
	if d.Certificate == "" {
		return fmt.Errorf("certificate is required")
	}

	block, _ := pem.Decode([]byte(d.Certificate))
	if block == nil {
		return fmt.Errorf("invalid certificate PEM format")
	}
	if _, err := x509.ParseCertificate(block.Bytes); err != nil {
		return fmt.Errorf("invalid certificate: %w", err)
	}

	return nil
}
