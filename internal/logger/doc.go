// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger writing console entries to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithFields),
//   - level configuration and parsing utilities,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// The block watch and the chip programmer accept a context and extract the
// logger from it, so every cycle and request is logged with its own scope.
package logger
