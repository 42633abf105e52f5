package identity

import (
	"encoding/json"
	"fmt"
)

// User is an authenticated visitor as reported by an identity provider
type User struct {
	// UserID is the stable subject identifier
	UserID string `json:"user_id"`

	// LoginID is the human-facing login name, usually an email address
	LoginID string `json:"login_id"`

	// Email and DisplayName are carried when the provider supplies them
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// FederationDescriptor is the per-service SAML configuration stored as JSON
// in the service record's federation metadata column
type FederationDescriptor struct {
	EntityID     string `json:"entity_id"`
	SSOURL       string `json:"sso_url"`
	Certificate  string `json:"certificate"`
	SLOUrl       string `json:"slo_url,omitempty"`
	NameIDFormat string `json:"name_id_format,omitempty"`
	SignRequests bool   `json:"sign_requests,omitempty"`
	PrivateKey   string `json:"private_key,omitempty"`
}

// ParseFederationDescriptor decodes the JSON federation metadata of a
// service record
func ParseFederationDescriptor(raw string) (*FederationDescriptor, error) {
	if raw == "" {
		return nil, fmt.Errorf("federation metadata is empty")
	}

	var d FederationDescriptor
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("failed to parse federation metadata: %w", err)
	}
	return &d, nil
}
