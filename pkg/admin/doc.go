// Package admin exposes the management API behind the gateway: service
// registration CRUD, group membership management, and access trail
// exports. Every route sits behind the admin-group check, which is
// enforced here on the server and not just suggested to the UI.
package admin
