// Package version exposes build metadata for the roadrunner binaries.
//
// Version, Commit and BuildTime are injected at build time via ldflags.
// Fields feeds the same metadata to the startup log line of each service.
package version
