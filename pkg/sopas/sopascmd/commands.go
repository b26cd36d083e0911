// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package sopascmd holds the closed catalogue of SOPAS-ASCII commands this
// driver issues, their wire templates, and the classifier that turns a
// sensor reply into an error kind.
package sopascmd

import (
	"fmt"

	"github.com/sick-lms/sopas-driver/pkg/sopas/frame"
)

// Command is a member of the closed catalogue of outbound requests.
type Command int

const (
	SetAccessMode Command = iota
	TSCRole
	TSCTCInterface
	TSCTCSrvAddr
	MLMPsetscancfg
	LMDscandatacfg
	FREchoFilter
	LMPoutputRange
	MEEwriteall
	Run
	LMDscandata
	LMCstopmeas
	LMCstartmeas
)

// Name is the wire command word as it appears as the second token of both
// the request and its reply, used by the classifier to look up the
// command's ok-predicate.
func (c Command) Name() string {
	switch c {
	case SetAccessMode:
		return "SetAccessMode"
	case TSCRole:
		return "TSCRole"
	case TSCTCInterface:
		return "TSCTCInterface"
	case TSCTCSrvAddr:
		return "TSCTCSrvAddr"
	case MLMPsetscancfg:
		return "mLMPsetscancfg"
	case LMDscandatacfg:
		return "LMDscandatacfg"
	case FREchoFilter:
		return "FREchoFilter"
	case LMPoutputRange:
		return "LMPoutputRange"
	case MEEwriteall:
		return "mEEwriteall"
	case Run:
		return "Run"
	case LMDscandata:
		return "LMDscandata"
	case LMCstopmeas:
		return "LMCstopmeas"
	case LMCstartmeas:
		return "LMCstartmeas"
	default:
		return "Unknown"
	}
}

func wrap(payload string) []byte {
	out := make([]byte, 0, len(payload)+2)
	out = append(out, frame.STX)
	out = append(out, payload...)
	out = append(out, frame.ETX)
	return out
}

// FormatSetAccessMode builds the login request. mode is the desired access
// level (3 = authorized client); pwHash is the vendor password hash.
func FormatSetAccessMode(mode uint8, pwHash uint32) []byte {
	return wrap(fmt.Sprintf("sMN SetAccessMode %02d %08X", mode, pwHash))
}

// FormatTSCRole sets the NTP client role (1 = client).
func FormatTSCRole(role uint8) []byte {
	return wrap(fmt.Sprintf("sWN TSCRole %02d", role))
}

// FormatTSCTCInterface selects the NTP transport interface (0 = Ethernet).
func FormatTSCTCInterface(iface uint8) []byte {
	return wrap(fmt.Sprintf("sWN TSCTCInterface %02d", iface))
}

// FormatTSCTCSrvAddr sets the NTP server address. ipHex is the space
// separated hex-byte ASCII form produced by byteutil.IPToHexASCII.
func FormatTSCTCSrvAddr(ipHex string) []byte {
	return wrap(fmt.Sprintf("sWN TSCTCSrvAddr %s", ipHex))
}

// FormatSetScanConfig builds mLMPsetscancfg. freqCHz and angIncrMdeg are
// unsigned (centihertz, millidegrees), space-padded to width 4 per the
// sensor's "+%4u" field template; startMdeg/endMdeg carry an explicit sign.
func FormatSetScanConfig(freqCHz uint32, angIncrMdeg uint32, startMdeg, endMdeg int32) []byte {
	return wrap(fmt.Sprintf("sMN mLMPsetscancfg +%4d +1 +%4d %+d %+d", freqCHz, angIncrMdeg, startMdeg, endMdeg))
}

// FormatScanDataCfg builds the fixed data-channel selection enabling range
// plus intensity output. The payload is an undocumented magic blob known
// only to produce that effect.
func FormatScanDataCfg() []byte {
	return wrap("sWN LMDscandatacfg 00 00 1 0 0 0 00 0 0 0 1 1")
}

// FormatEchoFilter selects the multi-echo filtering mode.
func FormatEchoFilter(n uint32) []byte {
	return wrap(fmt.Sprintf("sWN FREchoFilter %d", n))
}

// FormatOutputRange restricts the angular sector the sensor reports.
func FormatOutputRange(angIncrMdeg uint32, startMdeg, endMdeg int32) []byte {
	return wrap(fmt.Sprintf("sWN LMPoutputRange 1 +%4d %+d %+d", angIncrMdeg, startMdeg, endMdeg))
}

// FormatSaveParams persists the current configuration to flash.
func FormatSaveParams() []byte {
	return wrap("sMN mEEwriteall")
}

// FormatRun leaves configuration mode.
func FormatRun() []byte {
	return wrap("sMN Run")
}

// FormatScanData subscribes (1) or unsubscribes (0) from the scan stream.
func FormatScanData(subscribe uint8) []byte {
	return wrap(fmt.Sprintf("sEN LMDscandata %d", subscribe))
}

// FormatStopMeas issues LMCstopmeas.
func FormatStopMeas() []byte {
	return wrap("sMN LMCstopmeas")
}

// FormatStartMeas issues LMCstartmeas.
func FormatStartMeas() []byte {
	return wrap("sMN LMCstartmeas")
}
