// Package registry stores per-service authentication configuration.
//
// A ServiceRecord maps an external service ID (the `/{serviceId}` URL path
// segment) to the authentication strategy the gateway should dispatch to.
// Records are read by the dispatcher on every page visit and mutated only
// through the admin console CRUD.
//
// Lookup distinguishes "no such service" (ErrNotFound) from infrastructure
// failures; the dispatcher maps the two to different terminal states.
//
// CachedStore adds an optional Redis read-through layer for the hot lookup
// path; it degrades to direct database reads when Redis is unavailable.
package registry
