// Package programmer implements the gRPC transport for the chip programmer.
//
// The service has a single unary method, Dispatch, whose request and reply
// are google.protobuf.ListValue messages: the request is the pair
// [command, payload] and the reply the triple [success, result, message],
// with success encoded as 1 or 0. The service descriptor is written by hand
// because both messages are well-known types.
package programmer
