package registry

import "time"

// AuthType selects the authentication strategy for a service
type AuthType string

const (
	// AuthTypeDirect sends the visitor through the default username/password flow
	AuthTypeDirect AuthType = "direct"
	// AuthTypeFederated sends the visitor through an external federated identity flow
	AuthTypeFederated AuthType = "federated"
)

// Valid reports whether the auth type is a known value
func (t AuthType) Valid() bool {
	return t == AuthTypeDirect || t == AuthTypeFederated
}

// ServiceRecord represents a registered service and its auth configuration.
// ServiceID is immutable after creation; mutations go through the admin CRUD
// only, which stamps CreatedAt/UpdatedAt server-side.
type ServiceRecord struct {
	ID                 int64     `json:"id"`
	ServiceID          string    `json:"service_id"`
	ServiceName        string    `json:"service_name"`
	AuthType           AuthType  `json:"auth_type"`
	IDPProvider        string    `json:"idp_provider,omitempty"`
	FederationMetadata string    `json:"federation_metadata,omitempty"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ServiceUpdate is a partial update; nil fields are left unchanged.
// ServiceID is deliberately absent: it cannot be changed after creation.
type ServiceUpdate struct {
	ServiceName        *string   `json:"service_name,omitempty"`
	AuthType           *AuthType `json:"auth_type,omitempty"`
	IDPProvider        *string   `json:"idp_provider,omitempty"`
	FederationMetadata *string   `json:"federation_metadata,omitempty"`
	IsActive           *bool     `json:"is_active,omitempty"`
}
