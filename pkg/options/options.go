package options

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/pflag"
)

// IOptions is implemented by every option group that can be bound to a
// command-line flag set and validated at startup.
type IOptions interface {
	// Validate returns the list of configuration errors, empty when valid.
	Validate() []error

	// AddFlags binds the option fields to the given flag set.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}

// ValidateAddress checks that addr is a valid "host:port" bind address.
func ValidateAddress(addr string) error {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}

	if host != "" && net.ParseIP(host) == nil {
		// Allow hostnames; only reject clearly malformed input.
		if _, err := net.LookupPort("tcp", portStr); err != nil {
			return fmt.Errorf("invalid address %q: bad port", addr)
		}
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("invalid address %q: port out of range", addr)
	}

	return nil
}
