// Package common holds helpers shared by several services.
//
// It provides a chip programmer client wrapper with call timeouts and a helper
// that detects the current "user@host" actor for request audit logs.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
