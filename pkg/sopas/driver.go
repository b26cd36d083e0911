// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package sopas is the SOPAS-ASCII protocol driver for the SICK LMS-family
// laser range finder: it owns the transport and the streaming receiver
// task, and exposes the configuration/lifecycle operations a process
// surface issues in sequence to bring the sensor from a bare TCP
// connection up to a running scan stream.
package sopas

import (
	"bytes"
	"context"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sick-lms/sopas-driver/pkg/sopas/byteutil"
	"github.com/sick-lms/sopas-driver/pkg/sopas/frame"
	"github.com/sick-lms/sopas-driver/pkg/sopas/scan"
	"github.com/sick-lms/sopas-driver/pkg/sopas/sopascmd"
	"github.com/sick-lms/sopas-driver/pkg/sopas/sopaserr"
	"github.com/sick-lms/sopas-driver/pkg/sopas/transport"
)

// Defaults from the sensor's documented configuration surface.
const (
	DefaultAccessMode = 3
	DefaultPwHash     = 0xF4724744
	DefaultEchoFilter = 2
)

// State is a point in the driver's lifecycle.
type State int

const (
	StateConnected State = iota
	StateAuthorized
	StateConfigured
	StateArmed
	StateStreaming
	StateStopped
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "Connected"
	case StateAuthorized:
		return "Authorized"
	case StateConfigured:
		return "Configured"
	case StateArmed:
		return "Armed"
	case StateStreaming:
		return "Streaming"
	case StateStopped:
		return "Stopped"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// ScanCallback is invoked synchronously on the receiver goroutine for each
// completed revolution. The Scan passed in is a reference to the driver's
// working buffer; its contents are stable only for the duration of the
// call. Callers needing persistence must copy.
type ScanCallback func(*scan.Scan)

// LMSConfigParams is the desired scan geometry and rate, in the public
// API's units: radians and Hz. EchoFilter selects the multi-echo
// filtering mode; zero falls back to DefaultEchoFilter.
type LMSConfigParams struct {
	Frequency  float64
	Resolution float64
	StartAngle float64
	EndAngle   float64
	EchoFilter uint32
}

// Driver owns exactly one transport connection and, while streaming, one
// receiver goroutine. All configuration-phase operations are strictly
// request/reply: a mutex enforces at most one command in flight.
type Driver struct {
	mu       sync.Mutex
	conn     *transport.Conn
	callback ScanCallback
	state    State

	stopFlag atomic.Bool
	recvWG   sync.WaitGroup
	recvErr  error
}

// New opens a TCP connection to the sensor and returns a Driver in
// StateConnected. It fails with CustomError if the connection cannot be
// established. A zero timeout falls back to transport.DefaultTimeout.
func New(ctx context.Context, sensorIP string, port int, connectTimeout, sendTimeout, recvTimeout time.Duration, callback ScanCallback) (*Driver, error) {
	if connectTimeout == 0 {
		connectTimeout = transport.DefaultTimeout
	}
	if sendTimeout == 0 {
		sendTimeout = transport.DefaultTimeout
	}
	if recvTimeout == 0 {
		recvTimeout = transport.DefaultTimeout
	}
	conn, err := transport.Dial(ctx, sensorIP, port, connectTimeout, sendTimeout, recvTimeout)
	if err != nil {
		return nil, sopaserr.Wrap(sopaserr.CustomError, err)
	}
	return &Driver{conn: conn, callback: callback, state: StateConnected}, nil
}

// newWithConn builds a Driver around an already-open connection, skipping
// the dial. Used by tests that stand up an in-memory transport.
func newWithConn(conn *transport.Conn, callback ScanCallback) *Driver {
	return &Driver{conn: conn, callback: callback, state: StateConnected}
}

// State reports the driver's current lifecycle state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Err returns the fatal parse error, if any, that ended the receiver task.
// It is only meaningful after Stop returns or after the callback stops
// being invoked unexpectedly.
func (d *Driver) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.recvErr
}

// sendCommand sends payload and classifies the single reply that follows.
// Callers must hold d.mu.
func (d *Driver) sendCommand(payload []byte) (sopaserr.Code, error) {
	if err := d.conn.Send(payload); err != nil {
		return sopaserr.SocketSend, err
	}
	buf := make([]byte, 4096)
	n, err := d.conn.Recv(buf)
	if err != nil {
		return sopaserr.SocketRecv, err
	}
	return sopascmd.ClassifyReply(buf[:n])
}

// runCommand is sendCommand plus turning a non-Ok classification into an
// error. Callers must hold d.mu.
func (d *Driver) runCommand(payload []byte) error {
	code, err := d.sendCommand(payload)
	if err != nil {
		return err
	}
	if code != sopaserr.Ok {
		return sopaserr.New(code)
	}
	return nil
}

// SetAccessMode logs in with the given access level and password hash.
func (d *Driver) SetAccessMode(mode uint8, pwHash uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setAccessModeLocked(mode, pwHash)
}

func (d *Driver) setAccessModeLocked(mode uint8, pwHash uint32) error {
	if err := d.runCommand(sopascmd.FormatSetAccessMode(mode, pwHash)); err != nil {
		return err
	}
	d.state = StateAuthorized
	return nil
}

// ConfigureNTPClient points the sensor's NTP client at ntpIP.
func (d *Driver) ConfigureNTPClient(ntpIP string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.runCommand(sopascmd.FormatTSCRole(1)); err != nil {
		return err
	}
	if err := d.runCommand(sopascmd.FormatTSCTCInterface(0)); err != nil {
		return err
	}
	ipHex, err := byteutil.IPToHexASCII(ntpIP)
	if err != nil {
		return sopaserr.Wrap(sopaserr.CustomError, err)
	}
	return d.runCommand(sopascmd.FormatTSCTCSrvAddr(ipHex))
}

// SetScanConfig converts params to sensor units and issues the
// mLMPsetscancfg / LMDscandatacfg / FREchoFilter / LMPoutputRange /
// LMCstartmeas sequence, aborting on the first failing reply.
func (d *Driver) SetScanConfig(params LMSConfigParams) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	freqCHz := uint32(math.Round(params.Frequency * 100))
	angIncrMdeg := uint32(math.Round(params.Resolution * 10000))
	startMdeg := int32(math.Round(byteutil.AngleToLMS(params.StartAngle) * 10000))
	endMdeg := int32(math.Round(byteutil.AngleToLMS(params.EndAngle) * 10000))

	if err := d.runCommand(sopascmd.FormatSetScanConfig(freqCHz, angIncrMdeg, startMdeg, endMdeg)); err != nil {
		return err
	}
	if err := d.runCommand(sopascmd.FormatScanDataCfg()); err != nil {
		return err
	}
	echoFilter := params.EchoFilter
	if echoFilter == 0 {
		echoFilter = DefaultEchoFilter
	}
	if err := d.runCommand(sopascmd.FormatEchoFilter(echoFilter)); err != nil {
		return err
	}
	if err := d.runCommand(sopascmd.FormatOutputRange(angIncrMdeg, startMdeg, endMdeg)); err != nil {
		return err
	}
	if err := d.runCommand(sopascmd.FormatStartMeas()); err != nil {
		return err
	}
	d.state = StateConfigured
	return nil
}

// SaveParams persists the current configuration to flash.
func (d *Driver) SaveParams() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.runCommand(sopascmd.FormatSaveParams())
}

// Run leaves configuration mode and subscribes to the scan stream. The
// driver transitions to StateArmed; call StartScan to begin receiving.
func (d *Driver) Run() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.runCommand(sopascmd.FormatRun()); err != nil {
		return err
	}
	if err := d.runCommand(sopascmd.FormatScanData(1)); err != nil {
		return err
	}
	d.state = StateArmed
	return nil
}

// StartScan spawns the receiver task and returns immediately. The socket
// passes from the driver to the receiver goroutine until Stop joins it.
func (d *Driver) StartScan() {
	d.mu.Lock()
	d.state = StateStreaming
	d.mu.Unlock()

	d.stopFlag.Store(false)
	d.recvWG.Add(1)
	go d.receiveLoop()
}

// receiveLoop owns a fresh receive buffer and a private reassembler and
// scan parser. It runs until the stop flag is observed or a fatal parse
// error (recorded for Err) ends it, invoking the callback synchronously on
// each completed scan.
func (d *Driver) receiveLoop() {
	defer d.recvWG.Done()

	buf := make([]byte, 8*1024)
	reassembler := frame.NewReassembler()
	parser := scan.NewParser()

	for !d.stopFlag.Load() {
		n, err := d.conn.Recv(buf)
		if err != nil {
			if !transport.IsTimeout(err) {
				log.Printf("sopas: recv error, retrying: %v", err)
			}
			continue
		}
		if n <= 0 {
			log.Printf("sopas: short read (%d bytes), retrying", n)
			continue
		}

		chunk := buf[:n]
		for {
			tel, ok := reassembler.Push(chunk)
			chunk = nil
			if !ok {
				break
			}
			if !frame.Validate(tel) {
				log.Printf("sopas: malformed frame discarded: %q", tel)
				continue
			}
			s, delivered, err := parser.Parse(tel)
			if err != nil {
				d.mu.Lock()
				d.recvErr = err
				d.mu.Unlock()
				return
			}
			if delivered && d.callback != nil {
				d.callback(s)
			}
		}
	}
}

// Stop signals the receiver task to exit, joins it, unsubscribes from the
// scan stream, drains any scans still in flight, and re-authenticates to
// issue LMCstopmeas. It always completes, even if any of those steps
// fails. Stop does not close the transport; Close releases it.
func (d *Driver) Stop() {
	d.stopFlag.Store(true)
	d.recvWG.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.conn.Send(sopascmd.FormatScanData(0)); err != nil {
		log.Printf("sopas: unsubscribe send failed, skipping drain: %v", err)
	} else {
		d.drainUntilUnsubscribeAck()
	}

	d.state = StateStopped
}

func (d *Driver) drainUntilUnsubscribeAck() {
	buf := make([]byte, 4096)
	for {
		n, err := d.conn.Recv(buf)
		if err != nil {
			log.Printf("sopas: drain loop recv error, giving up: %v", err)
			return
		}
		if n <= 0 {
			continue
		}
		reply := buf[:n]
		if !bytes.Contains(reply, []byte("LMDscandata")) {
			log.Printf("sopas: drain loop discarding unrelated frame: %q", reply)
			continue // unsolicited scan frame still in flight
		}
		code, err := sopascmd.ClassifyReply(reply)
		if err == nil && code == sopaserr.Ok {
			if err := d.setAccessModeLocked(DefaultAccessMode, DefaultPwHash); err == nil {
				_ = d.runCommand(sopascmd.FormatStopMeas())
			}
		}
		return
	}
}

// Close releases the transport. Call after Stop.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = StateClosed
	return d.conn.Close()
}
