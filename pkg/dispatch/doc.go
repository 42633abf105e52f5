// Package dispatch drives the visitor-facing flow of the gateway: resolve
// a service identifier against the registry, send an unauthenticated
// visitor through the right identity provider, and on return correlate
// the callback back to the originating service, record the access, and
// forward the visitor there.
package dispatch
