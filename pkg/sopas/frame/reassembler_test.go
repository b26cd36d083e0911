// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package frame

import (
	"bytes"
	"testing"
)

func frameOf(body string) []byte {
	return append([]byte{STX}, append([]byte(body), ETX)...)
}

// TestPartitionInvariance covers the property that for any partitioning of a
// byte stream containing complete frames, feeding the partitions in order
// yields exactly the same frames in the same order, regardless of how the
// stream was chopped up.
func TestPartitionInvariance(t *testing.T) {
	f1 := frameOf("sRA LMDscandata")
	f2 := frameOf("sAN mLMPsetscancfg 1")
	f3 := frameOf("sRA LMDscandata")
	stream := bytes.Join([][]byte{f1, f2, f3}, nil)

	partitionings := [][]int{
		{len(stream)},
		{1, len(stream) - 1},
		{len(f1), len(f2), len(f3)},
		{len(f1) + 1, len(f2) - 1, len(f3)},
		{3, 5, 7, len(stream) - 15},
	}

	want := [][]byte{f1, f2, f3}

	for _, cuts := range partitionings {
		r := NewReassembler()
		var got [][]byte
		pos := 0
		for _, n := range cuts {
			if pos+n > len(stream) {
				n = len(stream) - pos
			}
			chunk := stream[pos : pos+n]
			pos += n
			for {
				fr, ok := r.Push(chunk)
				chunk = nil
				if !ok {
					break
				}
				got = append(got, fr)
			}
		}
		if len(got) != len(want) {
			t.Fatalf("cuts %v: got %d frames, want %d", cuts, len(got), len(want))
		}
		for i := range want {
			if !bytes.Equal(got[i], want[i]) {
				t.Fatalf("cuts %v: frame %d = %q, want %q", cuts, i, got[i], want[i])
			}
		}
	}
}

func TestPushRetainsTrailingPrefix(t *testing.T) {
	r := NewReassembler()
	f1 := frameOf("sRA LMDscandata")
	trailing := []byte{STX, 's', 'R'}

	got, ok := r.Push(append(append([]byte{}, f1...), trailing...))
	if !ok {
		t.Fatal("expected first frame to close")
	}
	if !bytes.Equal(got, f1) {
		t.Fatalf("got %q, want %q", got, f1)
	}

	if _, ok := r.Push(nil); ok {
		t.Fatal("did not expect a second frame yet")
	}

	rest := []byte("A ...")
	rest = append(rest, ETX)
	got2, ok := r.Push(rest)
	if !ok {
		t.Fatal("expected second frame to close")
	}
	want2 := append(append([]byte{}, trailing...), rest...)
	if !bytes.Equal(got2, want2) {
		t.Fatalf("got %q, want %q", got2, want2)
	}
}

func TestPushNoFrameYet(t *testing.T) {
	r := NewReassembler()
	if _, ok := r.Push([]byte{STX, 's', 'R', 'A'}); ok {
		t.Fatal("did not expect a frame without an ETX")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
		want  bool
	}{
		{"well formed", frameOf("sRA LMDscandata"), true},
		{"empty payload", []byte{STX, ETX}, true},
		{"too short", []byte{STX}, false},
		{"missing STX", append([]byte("sRA"), ETX), false},
		{"missing ETX", append([]byte{STX}, []byte("sRA")...), false},
		{"embedded STX", []byte{STX, 's', STX, 'A', ETX}, false},
		{"embedded ETX", []byte{STX, 's', ETX, 'A', ETX}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Validate(tt.frame); got != tt.want {
				t.Errorf("Validate(%q) = %v, want %v", tt.frame, got, tt.want)
			}
		})
	}
}
