// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"net"
	"testing"
	"time"
)

func pipeConn() (*Conn, net.Conn) {
	client, server := net.Pipe()
	return &Conn{nc: client, sendTimeout: time.Second, recvTimeout: time.Second}, server
}

func TestSendRecvRoundTrip(t *testing.T) {
	c, server := pipeConn()
	defer c.Close()
	defer server.Close()

	go func() {
		buf := make([]byte, 64)
		n, err := server.Read(buf)
		if err != nil {
			return
		}
		server.Write(buf[:n])
	}()

	if err := c.Send([]byte("\x02sMN Run\x03")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	buf := make([]byte, 64)
	n, err := c.Recv(buf)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if string(buf[:n]) != "\x02sMN Run\x03" {
		t.Errorf("got %q", buf[:n])
	}
}

func TestRecv_Timeout(t *testing.T) {
	c, server := pipeConn()
	defer c.Close()
	defer server.Close()
	c.SetTimeouts(time.Second, 20*time.Millisecond)

	buf := make([]byte, 64)
	_, err := c.Recv(buf)
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if !IsTimeout(err) {
		t.Errorf("expected IsTimeout to recognize %v", err)
	}
}
