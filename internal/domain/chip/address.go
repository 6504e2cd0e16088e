package chip

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// anyHost is the wildcard host accepted in bind addresses.
const anyHost = "*"

// Address is the host and port a chip programmer binds to.
type Address struct {
	// Host is a hostname, an IP or "*" for every interface.
	Host string
	// Port is the TCP port.
	Port int
}

// ParseAddress parses a combined "host:port" string.
// The string is split at the first colon.
func ParseAddress(s string) (Address, error) {
	host, port, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Address{}, fmt.Errorf("%w: %q has no port", ErrInvalidAddress, s)
	}

	return NewAddress(host, port)
}

// NewAddress builds an address from a pre-split host and port pair.
func NewAddress(host, port string) (Address, error) {
	p, err := strconv.Atoi(strings.TrimSpace(port))
	if err != nil {
		return Address{}, fmt.Errorf("%w: port %q: %w", ErrInvalidAddress, port, err)
	}

	if p < 0 || p > 65535 {
		return Address{}, fmt.Errorf("%w: port %d out of range", ErrInvalidAddress, p)
	}

	return Address{Host: strings.TrimSpace(host), Port: p}, nil
}

// String renders the address as "host:port".
func (a Address) String() string {
	return a.Host + ":" + strconv.Itoa(a.Port)
}

// ListenAddress returns the address in the form accepted by net.Listen.
func (a Address) ListenAddress() string {
	host := a.Host
	if host == anyHost {
		host = ""
	}

	return net.JoinHostPort(host, strconv.Itoa(a.Port))
}
