package network

import (
	"context"
	"fmt"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// Opens a UDP socket able to send to broadcast addresses.
// Port reuse lets several emulated radios share one host.
func ListenBroadcastUDP(ctx context.Context, port int) (conn *net.UDPConn, err error) {
	// Using x/sys/unix package for more up-to-date syscall numbers
	cfg := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			ctrlErr := c.Control(func(fd uintptr) {
				for _, opt := range []int{unix.SO_REUSEADDR, unix.SO_REUSEPORT, unix.SO_BROADCAST} {
					sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, opt, 1)
					if sockErr != nil {
						return
					}
				}
			})
			if ctrlErr != nil {
				return ctrlErr
			}
			return sockErr
		},
	}

	addr := net.UDPAddr{Port: port}
	pc, err := cfg.ListenPacket(ctx, "udp4", addr.String())
	if err != nil {
		err = fmt.Errorf("failed to listen on broadcast capable udp port %d: %w", port, err)
		return
	}
	conn = pc.(*net.UDPConn)
	return
}

// Resolves the destination all emulated radios listen on
func BroadcastAddr(address string, port int) (addr *net.UDPAddr, err error) {
	ip := net.ParseIP(address)
	if ip == nil || ip.To4() == nil {
		err = fmt.Errorf("invalid IPv4 broadcast address %q", address)
		return
	}
	if port <= 0 || port > 65535 {
		err = fmt.Errorf("invalid port %d", port)
		return
	}
	addr = &net.UDPAddr{IP: ip.To4(), Port: port}
	return
}

// Port the socket is bound to
func LocalPort(conn *net.UDPConn) (port int) {
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		port = addr.Port
	}
	return
}
