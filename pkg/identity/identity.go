// Package identity resolves how this device identifies itself in the records it sends.
package identity

import (
	"errors"
	stdnet "net"
	"os"
	"slices"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/net"
)

// ErrNoAddress is returned when no usable local address could be found.
var ErrNoAddress = errors.New("no usable local network address")

// AddressResolver defines how the local network address is discovered.
type AddressResolver interface {
	LocalAddress() (string, error)
}

// InterfaceResolver picks the first IPv4 address of an interface that is up and
// not a loopback. When no interface qualifies it falls back to resolving the hostname.
type InterfaceResolver struct {
	listInterfaces func() ([]net.InterfaceStat, error)
	hostname       func() (string, error)
	lookupIP       func(host string) ([]stdnet.IP, error)
	logger         zerolog.Logger
}

// NewInterfaceResolver creates a resolver backed by the host's network interfaces.
func NewInterfaceResolver(logger zerolog.Logger) *InterfaceResolver {
	return &InterfaceResolver{
		listInterfaces: net.Interfaces,
		hostname:       os.Hostname,
		lookupIP:       stdnet.LookupIP,
		logger:         logger,
	}
}

// LocalAddress returns the local IPv4 address as a string.
func (r *InterfaceResolver) LocalAddress() (string, error) {
	ifaces, err := r.listInterfaces()
	if err != nil {
		r.logger.Debug().Err(err).Msg("Failed to list network interfaces")
	} else if addr, ok := pickInterfaceAddress(ifaces); ok {
		return addr, nil
	}

	return r.hostnameAddress()
}

func (r *InterfaceResolver) hostnameAddress() (string, error) {
	host, err := r.hostname()
	if err != nil {
		return "", errors.Join(ErrNoAddress, err)
	}
	ips, err := r.lookupIP(host)
	if err != nil {
		return "", errors.Join(ErrNoAddress, err)
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return v4.String(), nil
		}
	}
	return "", ErrNoAddress
}

func pickInterfaceAddress(ifaces []net.InterfaceStat) (string, bool) {
	for _, iface := range ifaces {
		if !slices.Contains(iface.Flags, "up") || slices.Contains(iface.Flags, "loopback") {
			continue
		}
		for _, addr := range iface.Addrs {
			ip, _, err := stdnet.ParseCIDR(addr.Addr)
			if err != nil {
				ip = stdnet.ParseIP(addr.Addr)
			}
			if ip == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
				continue
			}
			if v4 := ip.To4(); v4 != nil {
				return v4.String(), true
			}
		}
	}
	return "", false
}

// StaticResolver always returns the same address. It is used when the address
// is pinned in configuration.
type StaticResolver string

// LocalAddress returns the configured address.
func (s StaticResolver) LocalAddress() (string, error) {
	if s == "" {
		return "", ErrNoAddress
	}
	return string(s), nil
}
