// Package programmer runs the chip programmer: a parameter store reachable
// over gRPC that lets a remote client stage chip parameters.
//
// Dispatcher validates and executes one request at a time against the
// store; Server owns the store and the gRPC listener.
package programmer
