// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sopas

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/sick-lms/sopas-driver/pkg/sopas/scan"
	"github.com/sick-lms/sopas-driver/pkg/sopas/sopascmd"
	"github.com/sick-lms/sopas-driver/pkg/sopas/transport"
)

func newTestDriver(t *testing.T, callback ScanCallback) (*Driver, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	conn := transport.NewConn(client, 2*time.Second, 50*time.Millisecond)
	d := newWithConn(conn, callback)
	t.Cleanup(func() {
		server.Close()
		conn.Close()
	})
	return d, server
}

func TestSetAccessMode_OkTransitionsState(t *testing.T) {
	d, server := newTestDriver(t, nil)

	go func() {
		buf := make([]byte, 256)
		n, _ := server.Read(buf)
		_ = n
		server.Write([]byte("\x02sAN SetAccessMode 1\x03"))
	}()

	if err := d.SetAccessMode(3, 0xF4724744); err != nil {
		t.Fatalf("SetAccessMode: %v", err)
	}
	if d.State() != StateAuthorized {
		t.Errorf("state = %v, want Authorized", d.State())
	}
}

func TestSetAccessMode_Denied(t *testing.T) {
	d, server := newTestDriver(t, nil)

	go func() {
		buf := make([]byte, 256)
		server.Read(buf)
		server.Write([]byte("\x02sAN SetAccessMode 0\x03"))
	}()

	if err := d.SetAccessMode(3, 0xF4724744); err == nil {
		t.Fatal("expected an error on login denial")
	}
	if d.State() != StateConnected {
		t.Errorf("state = %v, want unchanged Connected on failure", d.State())
	}
}

// TestStop_DrainsScansBeforeStopMeas covers S6: with streaming active,
// Stop must send LMDscandata 0, tolerate intervening scan frames before
// the unsubscribe ack, and only then re-authenticate and stop measurement.
func TestStop_DrainsScansBeforeStopMeas(t *testing.T) {
	var mu sync.Mutex
	var delivered int

	d, server := newTestDriver(t, func(s *scan.Scan) {
		mu.Lock()
		delivered++
		mu.Unlock()
	})

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		buf := make([]byte, 4096)

		// LMDscandata 0 request from Stop, sent only after the receiver
		// goroutine has already been signaled and joined.
		n, err := server.Read(buf)
		if err != nil {
			return
		}
		req := string(buf[:n])
		if req != "\x02sEN LMDscandata 0\x03" {
			t.Errorf("unexpected unsubscribe request: %q", req)
		}

		// A couple of frames unrelated to the unsubscribe ack arrive first;
		// the drain loop must discard them and keep reading.
		server.Write([]byte("\x02sAN SomeOtherCommand 1\x03"))
		server.Write([]byte("\x02sAN AnotherCommand 1\x03"))

		// Unsubscribe ack.
		server.Write([]byte("\x02sEA LMDscandata 0\x03"))

		// Re-auth.
		n, err = server.Read(buf)
		if err != nil {
			return
		}
		server.Write([]byte("\x02sAN SetAccessMode 1\x03"))

		// LMCstopmeas.
		n, err = server.Read(buf)
		if err != nil {
			return
		}
		req = string(buf[:n])
		if req != string(sopascmd.FormatStopMeas()) {
			t.Errorf("unexpected stop-measurement request: %q", req)
		}
		server.Write([]byte("\x02sAN LMCstopmeas 0\x03"))
	}()

	d.StartScan()
	// Let the receiver goroutine spin at least once so Stop exercises the
	// join path rather than racing an unstarted goroutine.
	time.Sleep(10 * time.Millisecond)

	d.Stop()
	<-serverDone

	if d.State() != StateStopped {
		t.Errorf("state = %v, want Stopped", d.State())
	}
}
