package chip

import "errors"

var (
	// ErrKeyNotFound is returned by GET, PUT and DELETE for absent keys.
	ErrKeyNotFound = errors.New("key not found")
	// ErrDuplicateKey is returned by POST for keys that already exist.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrReservedKey is returned when a request tries to modify "address" or "keys".
	ErrReservedKey = errors.New("reserved key")
	// ErrUnrecognizedCommand is returned for command names outside the command set.
	ErrUnrecognizedCommand = errors.New("unrecognized command")
	// ErrInvalidPayload is returned when the payload does not match the command.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrInvalidAddress is returned for bind addresses that cannot be parsed.
	ErrInvalidAddress = errors.New("invalid address")
)
