// Package server assembles the HTTP surface of the gateway: the visitor
// router with its middleware chain, the admin API, and a separate
// listener for health probes and metrics.
package server
