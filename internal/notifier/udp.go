package notifier

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/OCAP2/gaze/pkg/core"
)

// Defaults for the UDP peer.
const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 5005
)

// UDP sends each message as a single unframed datagram to a fixed peer.
type UDP struct {
	addr string
	conn net.Conn
}

// NewUDP opens a connected UDP socket to host:port.
func NewUDP(host string, port int) (*UDP, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to open UDP socket to %s: %w", addr, err)
	}
	return &UDP{addr: addr, conn: conn}, nil
}

// Addr returns the peer address.
func (u *UDP) Addr() string {
	return u.addr
}

// Notify writes the ASCII payload.
func (u *UDP) Notify(_ context.Context, msg core.Message) error {
	if _, err := u.conn.Write(msg.Bytes()); err != nil {
		return fmt.Errorf("udp send to %s: %w", u.addr, err)
	}
	return nil
}

// Close closes the socket.
func (u *UDP) Close() error {
	return u.conn.Close()
}
