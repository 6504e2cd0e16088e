// Package client implements the chip-client command: it sends one request to
// a chip programmer and prints the reply.
package client
