// Package accesslog records which user reached which service and when.
//
// The access trail is append-only: one record per successful authentication
// callback, never updated and never consulted on the hot path. A failed
// write must not block the user's access to the service, so callers log
// and swallow Record errors.
//
// Loggers mirror each other behind the Logger interface: DBLogger persists
// to postgres, FileLogger appends newline-delimited JSON, and MultiLogger
// fans out to several destinations. The Exporter reads the database trail
// back out for operators (CSV, JSON, NDJSON) with optional S3 upload.
package accesslog
