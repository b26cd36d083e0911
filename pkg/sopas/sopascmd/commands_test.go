// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sopascmd

import (
	"testing"

	"github.com/sick-lms/sopas-driver/pkg/sopas/sopaserr"
)

func TestFormatSetAccessMode(t *testing.T) {
	got := string(FormatSetAccessMode(3, 0xF4724744))
	want := "\x02sMN SetAccessMode 03 F4724744\x03"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatSetScanConfig(t *testing.T) {
	// S4: frequency=25Hz, resolution=0.1667rad, start=-95deg, end=+95deg.
	got := string(FormatSetScanConfig(2500, 1667, -50000, 1850000))
	want := "\x02sMN mLMPsetscancfg +2500 +1 +1667 -50000 +1850000\x03"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatSetScanConfig_SpacePadded(t *testing.T) {
	// freqCHz and angIncrMdeg below 1000 must be space-padded to width 4,
	// not zero-padded: "+%4u", not "+%04u".
	got := string(FormatSetScanConfig(25, 7, -50000, 1850000))
	want := "\x02sMN mLMPsetscancfg +  25 +1 +   7 -50000 +1850000\x03"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatOutputRange_SpacePadded(t *testing.T) {
	got := string(FormatOutputRange(7, -50000, 1850000))
	want := "\x02sWN LMPoutputRange 1 +   7 -50000 +1850000\x03"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestClassifyReply_LoginOK(t *testing.T) {
	reply := []byte("\x02sAN SetAccessMode 1\x03")
	code, err := ClassifyReply(reply)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != sopaserr.Ok {
		t.Errorf("code = %v, want Ok", code)
	}
}

func TestClassifyReply_LoginDenied(t *testing.T) {
	reply := []byte("\x02sAN SetAccessMode 0\x03")
	code, err := ClassifyReply(reply)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != sopaserr.CustomError {
		t.Errorf("code = %v, want CustomError", code)
	}
}

func TestClassifyReply_SensorError(t *testing.T) {
	reply := []byte("\x02sFA 08\x03")
	code, err := ClassifyReply(reply)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != sopaserr.SopasErrorBufferUnderflow {
		t.Errorf("code = %v, want SopasErrorBufferUnderflow", code)
	}
}

func TestClassifyReply_MalformedFrame(t *testing.T) {
	reply := []byte("\x02sAN SetAccessMode\x02 1\x03")
	if _, err := ClassifyReply(reply); err == nil {
		t.Fatal("expected error for a frame with an embedded STX")
	}
}

func TestClassifyReply_OkPredicateTable(t *testing.T) {
	tests := []struct {
		cmdName string
		status  int
		wantOk  bool
	}{
		{"mLMPsetscancfg", 0, true},
		{"mLMPsetscancfg", 1, false},
		{"LMCstopmeas", 0, true},
		{"LMCstopmeas", 1, false},
		{"LMCstartmeas", 0, true},
		{"LMCstartmeas", 1, false},
		{"mEEwriteall", 1, true},
		{"mEEwriteall", 0, false},
		{"Run", 1, true},
		{"Run", 0, false},
		{"LMDscandata", 0, true},
		{"LMDscandata", 1, true},
		{"SetAccessMode", 1, true},
		{"SetAccessMode", 0, false},
		{"TSCRole", 1, true},
		{"TSCRole", 0, false},
	}
	for _, tt := range tests {
		if got := statusOK(tt.cmdName, tt.status); got != tt.wantOk {
			t.Errorf("statusOK(%q, %d) = %v, want %v", tt.cmdName, tt.status, got, tt.wantOk)
		}
	}
}

func TestClassifyReply_NoStatusTokenIsOk(t *testing.T) {
	reply := []byte("\x02sAN mEEwriteall\x03")
	code, err := ClassifyReply(reply)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != sopaserr.Ok {
		t.Errorf("code = %v, want Ok when no status token follows", code)
	}
}
