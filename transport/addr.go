// File: transport/addr.go
//
// Address parsing: dotted-quad IPv4, colon-hex IPv6, or a hostname that
// goes through the resolver.

package transport

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"github.com/hxhue/coroutine-http-server/coro"
)

// Addr is a resolved socket address.
type Addr struct {
	IP   net.IP
	Port int
}

// ResolveAddr turns "host" + port into an Addr. Literal IPv4/IPv6
// addresses are used as-is; anything else is looked up and the first
// answer wins. An empty host means the IPv4 wildcard address.
func ResolveAddr(host string, port int) (Addr, error) {
	if port < 0 || port > 65535 {
		return Addr{}, fmt.Errorf("%w: port %d out of range", coro.ErrInvalidArgument, port)
	}
	if host == "" {
		return Addr{IP: net.IPv4zero, Port: port}, nil
	}
	if ip := net.ParseIP(host); ip != nil {
		return Addr{IP: ip, Port: port}, nil
	}
	ips, err := net.LookupIP(host)
	if err != nil {
		return Addr{}, fmt.Errorf("resolve %q: %w", host, err)
	}
	if len(ips) == 0 {
		return Addr{}, fmt.Errorf("resolve %q: no addresses", host)
	}
	return Addr{IP: ips[0], Port: port}, nil
}

func (a Addr) String() string {
	return net.JoinHostPort(a.IP.String(), fmt.Sprintf("%d", a.Port))
}

// sockaddr builds the kernel-side address and the matching family.
func (a Addr) sockaddr() (unix.Sockaddr, int, error) {
	if ip4 := a.IP.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: a.Port}
		copy(sa.Addr[:], ip4)
		return sa, unix.AF_INET, nil
	}
	if ip6 := a.IP.To16(); ip6 != nil {
		sa := &unix.SockaddrInet6{Port: a.Port}
		copy(sa.Addr[:], ip6)
		return sa, unix.AF_INET6, nil
	}
	return nil, 0, fmt.Errorf("%w: unusable IP %v", coro.ErrInvalidArgument, a.IP)
}

// AddrFromSockaddr converts a kernel-side peer address back to Addr.
func AddrFromSockaddr(sa unix.Sockaddr) Addr {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return Addr{IP: net.IP(v.Addr[:]).To16(), Port: v.Port}
	case *unix.SockaddrInet6:
		return Addr{IP: net.IP(v.Addr[:]), Port: v.Port}
	default:
		return Addr{}
	}
}
