// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package transport wraps the blocking TCP connection to the sensor,
// applying independently configurable send/receive deadlines the way the
// reference client sets SO_SNDTIMEO/SO_RCVTIMEO on the raw socket.
package transport

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/sick-lms/sopas-driver/pkg/sopas/sopaserr"
)

// DefaultPort is the sensor's default SOPAS-ASCII TCP port.
const DefaultPort = 2111

// DefaultTimeout is applied to both directions during configuration unless
// overridden.
const DefaultTimeout = 2 * time.Second

// Conn is a Connection abstraction over a single TCP socket to the sensor:
// exactly the Send/Recv/Close surface the driver needs, with separate
// read/write deadlines applied per call.
type Conn struct {
	nc          net.Conn
	sendTimeout time.Duration
	recvTimeout time.Duration
}

// Dial opens a blocking TCP connection to (host, port) with the given
// connect deadline, and configures sendTimeout/recvTimeout for subsequent
// Send/Recv calls.
func Dial(ctx context.Context, host string, port int, connectTimeout, sendTimeout, recvTimeout time.Duration) (*Conn, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	dialer := net.Dialer{Timeout: connectTimeout}
	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	nc, err := dialer.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "transport: dial %s", addr)
	}
	return &Conn{nc: nc, sendTimeout: sendTimeout, recvTimeout: recvTimeout}, nil
}

// NewConn wraps an already-open net.Conn, useful for tests and for
// transports (e.g. net.Pipe) that don't go through Dial.
func NewConn(nc net.Conn, sendTimeout, recvTimeout time.Duration) *Conn {
	return &Conn{nc: nc, sendTimeout: sendTimeout, recvTimeout: recvTimeout}
}

// Send writes data in full, applying the send timeout as a write deadline.
func (c *Conn) Send(data []byte) error {
	if err := c.nc.SetWriteDeadline(time.Now().Add(c.sendTimeout)); err != nil {
		return errors.Wrap(err, "transport: set write deadline")
	}
	_, err := c.nc.Write(data)
	if err != nil {
		return sopaserr.Wrap(sopaserr.SocketSend, err)
	}
	return nil
}

// Recv reads whatever is available into buf, applying the receive timeout
// as a read deadline. A timeout is reported via the returned error wrapping
// a net.Error with Timeout() true; callers in the receiver loop treat that
// as expected and continue.
func (c *Conn) Recv(buf []byte) (int, error) {
	if err := c.nc.SetReadDeadline(time.Now().Add(c.recvTimeout)); err != nil {
		return 0, errors.Wrap(err, "transport: set read deadline")
	}
	n, err := c.nc.Read(buf)
	if err != nil {
		return n, sopaserr.Wrap(sopaserr.SocketRecv, err)
	}
	return n, nil
}

// IsTimeout reports whether err wraps a network timeout, as opposed to a
// genuine connection failure.
func IsTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// SetTimeouts changes the send/receive timeouts applied to subsequent
// calls, e.g. widening them during configuration and narrowing them once
// streaming starts.
func (c *Conn) SetTimeouts(send, recv time.Duration) {
	c.sendTimeout = send
	c.recvTimeout = recv
}

// Close releases the underlying socket.
func (c *Conn) Close() error {
	return c.nc.Close()
}

