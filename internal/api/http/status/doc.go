// Package status serves the HTTP status surface of the roadrunner binaries.
//
// The router exposes /healthz, /status (a JSON snapshot supplied by the
// service) and /metrics (the Prometheus registry).
package status
