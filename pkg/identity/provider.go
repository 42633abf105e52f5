package identity

import (
	"context"
	"fmt"
	"net/http"

	"github.com/portalgate/portal/pkg/registry"
)

// Provider defines the interface for identity providers
type Provider interface {
	// RedirectToSignIn sends the visitor to the provider's sign-in page.
	// The state value is returned verbatim by the provider on callback.
	RedirectToSignIn(w http.ResponseWriter, r *http.Request, state string) error

	// HandleCallback processes the provider callback and returns the
	// authenticated user
	HandleCallback(w http.ResponseWriter, r *http.Request) (*User, error)

	// SignOut performs provider-side sign-out where supported. A nil
	// error with no redirect means only the local session needs clearing.
	SignOut(w http.ResponseWriter, r *http.Request) error

	// ValidateConfig validates the provider configuration
	ValidateConfig() error
}

// Factory resolves a service record to the provider that authenticates
// visitors of that service. Direct services share the gateway's OIDC
// provider; federated services each get a SAML provider built from their
// stored metadata.
type Factory struct {
	direct  *OIDCProvider
	baseURL string
}

// NewFactory creates a provider factory. The OIDC provider is constructed
// eagerly since every direct service shares it.
func NewFactory(ctx context.Context, oidcCfg OIDCSettings, baseURL string) (*Factory, error) {
	direct, err := NewOIDCProvider(ctx, oidcCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	return &Factory{
		direct:  direct,
		baseURL: baseURL,
	}, nil
}

// ForService returns the provider for a service record
func (f *Factory) ForService(record *registry.ServiceRecord) (Provider, error) {
	switch record.AuthType {
	case registry.AuthTypeDirect:
		return f.direct, nil

	case registry.AuthTypeFederated:
		descriptor, err := ParseFederationDescriptor(record.FederationMetadata)
		if err != nil {
			return nil, fmt.Errorf("service %s: %w", record.ServiceID, err)
		}
		return NewSAMLProvider(descriptor, f.baseURL)

	default:
		return nil, fmt.Errorf("unsupported auth type: %s", record.AuthType)
	}
}

// Direct returns the shared OIDC provider, used for callback handling and
// sign-out when no service record is in play.
func (f *Factory) Direct() Provider {
	return f.direct
}
