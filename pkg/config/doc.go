// Package config loads gateway configuration from environment variables,
// with an optional YAML file applied on top for deployments that prefer
// checked-in configuration. Environment variables use the PORTAL_ prefix.
package config
