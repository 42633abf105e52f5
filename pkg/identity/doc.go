// Package identity authenticates gateway visitors. The direct flow uses a
// single OpenID Connect provider configured at startup; the federated flow
// builds a SAML service provider per service from the federation metadata
// stored on the service record. Both flows hand back a User to the
// dispatcher, which owns sessions and redirects.
package identity
