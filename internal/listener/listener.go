// Package listener receives HLDS log datagrams over UDP.
package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
)

// DefaultAddress is the address the listener binds to when none is configured.
const DefaultAddress = "0.0.0.0:27115"

// maxDatagram is the largest UDP payload accepted. Longer datagrams are
// truncated by the kernel.
const maxDatagram = 64 * 1024

// Handler processes one datagram. The slice is only valid for the duration
// of the call.
type Handler func(ctx context.Context, payload []byte)

// Listener reads datagrams from a UDP socket and hands them to a Handler one
// at a time, in arrival order.
type Listener struct {
	conn net.PacketConn
	log  *slog.Logger
}

// Listen binds a UDP socket on address.
func Listen(address string, logger *slog.Logger) (*Listener, error) {
	if address == "" {
		address = DefaultAddress
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	conn, err := net.ListenPacket("udp", address)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", address, err)
	}
	return &Listener{conn: conn, log: logger}, nil
}

// Addr returns the bound local address.
func (l *Listener) Addr() net.Addr {
	return l.conn.LocalAddr()
}

// Serve reads datagrams until ctx is cancelled or the listener is closed.
// It returns nil on a clean stop. The socket is closed when Serve returns.
func (l *Listener) Serve(ctx context.Context, handle Handler) error {
	stop := context.AfterFunc(ctx, func() { l.conn.Close() })
	defer stop()
	defer l.conn.Close()

	l.log.Info("listening for log datagrams", "address", l.Addr())

	buf := make([]byte, maxDatagram)
	for {
		n, addr, err := l.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return fmt.Errorf("read datagram: %w", err)
		}
		l.log.Debug("datagram received", "from", addr, "bytes", n)
		handle(ctx, buf[:n])
	}
}

// Close closes the socket, unblocking Serve.
func (l *Listener) Close() error {
	return l.conn.Close()
}
