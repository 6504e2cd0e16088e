// Package config defines the settings used by the roadrunner binaries and
// provides helpers to load, validate and save them in YAML format.
//
// Validate fills in the hutch defaults (PV names, threshold, bind addresses)
// so a missing field never reaches the services as a zero value.
package config
