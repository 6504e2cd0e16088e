// Package chip contains the chip parameter store and its request protocol.
//
// The Store is an in-memory mapping seeded with two reserved keys: "address"
// holds the server bind address and "keys" lists every key present. Request
// and Response are the transport-independent shapes exchanged with clients.
package chip
