// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scan

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sick-lms/sopas-driver/pkg/sopas/byteutil"
	"github.com/sick-lms/sopas-driver/pkg/sopas/frame"
	"github.com/sick-lms/sopas-driver/pkg/sopas/sopaserr"
)

// Approximate civil durations used to reconstruct the telegram's embedded
// timestamp. These are averages, not calendar-accurate: the same tradeoff
// the sensor's own reference client makes, kept here for wire-compatible
// timestamps rather than a true civil-to-wall-clock conversion.
const (
	yearDuration  = 31556952 * time.Second
	monthDuration = 2629746 * time.Second
)

// Parser decodes LMDscandata telegrams into a Scan, reusing the same Scan
// and its trig maps across calls once the beam count is known.
type Parser struct {
	scan        Scan
	initialized bool
}

// NewParser returns a Parser with no scan yet materialized.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes one complete STX...ETX telegram. It returns the driver's
// working Scan and true when the telegram carried a timestamp and passed
// validation; false with a nil error means the telegram was well-formed but
// had no embedded timestamp (nothing to deliver). Any other problem is
// reported as a *sopaserr.Error wrapping InvalidDatagram.
func (p *Parser) Parse(tel []byte) (*Scan, bool, error) {
	if len(tel) < 2 || tel[0] != frame.STX || tel[len(tel)-1] != frame.ETX {
		return nil, false, sopaserr.Wrap(sopaserr.InvalidDatagram, errors.New("scan: not a framed telegram"))
	}
	toks := &tokenIter{toks: bytes.Fields(tel[1 : len(tel)-1])}

	if _, ok := toks.next(); !ok { // method
		return nil, false, invalidDatagram("missing method token")
	}
	if _, ok := toks.next(); !ok { // command name
		return nil, false, invalidDatagram("missing command token")
	}
	if !toks.skip(9) { // proto_version, device_num, serial_num, 2x status, telegrams_in_scan, scan_counter, 2x time-since-boot/transmission
		return nil, false, invalidDatagram("truncated preamble")
	}
	if !toks.skip(4) { // digital IO status x4
		return nil, false, invalidDatagram("truncated digital IO fields")
	}
	if !toks.skip(1) { // layer angle
		return nil, false, invalidDatagram("missing layer angle")
	}
	if !toks.skip(2) { // scan frequency, measurement frequency
		return nil, false, invalidDatagram("missing frequency fields")
	}

	encTok, ok := toks.next()
	if !ok {
		return nil, false, invalidDatagram("missing encoder field")
	}
	encoder, err := parseHexUint(encTok, 32)
	if err != nil {
		return nil, false, invalidDatagram("bad encoder field: " + err.Error())
	}
	if encoder != 0 {
		if !toks.skip(2) { // position, speed
			return nil, false, invalidDatagram("encoder set but position/speed missing")
		}
	}

	rangeCh, err := parseChannelBlock(toks, 16)
	if err != nil {
		return nil, false, err
	}
	intensityCh, err := parseChannelBlock(toks, 8)
	if err != nil {
		return nil, false, err
	}

	if !strings.Contains(rangeCh.description, "DIST") {
		return nil, false, invalidDatagram(fmt.Sprintf("first 16-bit channel was %q, not a range channel", rangeCh.description))
	}
	if !strings.Contains(intensityCh.description, "RSSI") {
		return nil, false, invalidDatagram(fmt.Sprintf("first 8-bit channel was %q, not an intensity channel", intensityCh.description))
	}
	if len(rangeCh.values) != len(intensityCh.values) {
		return nil, false, invalidDatagram("range and intensity channel lengths do not match")
	}

	if !toks.skip(1) { // position
		return nil, false, invalidDatagram("missing position field")
	}

	nameExists, err := nextFlag(toks, "name_exists")
	if err != nil {
		return nil, false, err
	}
	if nameExists {
		if !toks.skip(2) {
			return nil, false, invalidDatagram("name_exists set but name fields missing")
		}
	}

	commentExists, err := nextFlag(toks, "comment_exists")
	if err != nil {
		return nil, false, err
	}
	if commentExists {
		if !toks.skip(2) {
			return nil, false, invalidDatagram("comment_exists set but comment fields missing")
		}
	}

	timeExists, err := nextFlag(toks, "time_exists")
	if err != nil {
		return nil, false, err
	}
	if !timeExists {
		return nil, false, nil
	}

	stamp, err := parseTimestamp(toks)
	if err != nil {
		return nil, false, err
	}

	n := len(rangeCh.values)
	if !p.initialized {
		p.scan.NVals = n
		p.scan.Ranges = make([]float32, n)
		p.scan.Intensities = make([]float32, n)
		p.scan.SinMap = make([]float32, n)
		p.scan.CosMap = make([]float32, n)
		p.scan.AngIncrement = rangeCh.angIncrDeg * math.Pi / 180
		p.scan.StartAngle = rangeCh.angles[0]
		p.scan.EndAngle = rangeCh.angles[n-1]
		for i, a := range rangeCh.angles {
			p.scan.SinMap[i] = float32(math.Sin(a))
			p.scan.CosMap[i] = float32(math.Cos(a))
		}
		p.initialized = true
	} else if n != p.scan.NVals {
		return nil, false, invalidDatagram(fmt.Sprintf("beam count changed from %d to %d mid-stream", p.scan.NVals, n))
	}

	for i := 0; i < n; i++ {
		p.scan.Ranges[i] = float32(rangeCh.values[i])
		p.scan.Intensities[i] = float32(intensityCh.values[i])
	}
	p.scan.Time = stamp

	return &p.scan, true, nil
}

func parseTimestamp(toks *tokenIter) (time.Time, error) {
	fields := make([]uint64, 7)
	names := [7]string{"year", "month", "day", "hour", "minute", "second", "microsecond"}
	for i := range fields {
		tok, ok := toks.next()
		if !ok {
			return time.Time{}, invalidDatagram("truncated timestamp: missing " + names[i])
		}
		v, err := parseHexUint(tok, 64)
		if err != nil {
			return time.Time{}, invalidDatagram("bad " + names[i] + " field: " + err.Error())
		}
		fields[i] = v
	}

	// Summed in whole seconds: a time.Duration only spans about 292 years,
	// so year*yearDuration would overflow for any real calendar year.
	secs := int64(fields[0])*int64(yearDuration/time.Second) +
		int64(fields[1])*int64(monthDuration/time.Second) +
		int64(fields[2])*86400 +
		int64(fields[3])*3600 +
		int64(fields[4])*60 +
		int64(fields[5])

	return time.Unix(secs, int64(fields[6])*int64(time.Microsecond)).UTC(), nil
}

func nextFlag(toks *tokenIter, field string) (bool, error) {
	tok, ok := toks.next()
	if !ok {
		return false, invalidDatagram("missing " + field + " field")
	}
	v, err := parseHexUint(tok, 8)
	if err != nil {
		return false, invalidDatagram("bad " + field + " field: " + err.Error())
	}
	return v == 1, nil
}

// parseChannelBlock reads a channel count field (which must equal exactly
// 1 for either bit width) followed by that single channel.
func parseChannelBlock(toks *tokenIter, bitWidth int) (channel, error) {
	countTok, ok := toks.next()
	if !ok {
		return channel{}, invalidDatagram(fmt.Sprintf("missing %d-bit channel count", bitWidth))
	}
	count, err := parseHexUint(countTok, 32)
	if err != nil {
		return channel{}, invalidDatagram(fmt.Sprintf("bad %d-bit channel count: %v", bitWidth, err))
	}
	if count != 1 {
		return channel{}, invalidDatagram(fmt.Sprintf("expected exactly one %d-bit channel, got %d", bitWidth, count))
	}
	return parseChannel(toks)
}

func parseChannel(toks *tokenIter) (channel, error) {
	descTok, ok := toks.next()
	if !ok {
		return channel{}, invalidDatagram("channel missing description")
	}

	scaleTok, ok := toks.next()
	if !ok {
		return channel{}, invalidDatagram("channel missing scale factor")
	}
	var scale float64
	switch string(scaleTok) {
	case "3F800000":
		scale = 1
	case "40000000":
		scale = 2
	default:
		return channel{}, invalidDatagram(fmt.Sprintf("unexpected scale factor %q", scaleTok))
	}

	offsetTok, ok := toks.next()
	if !ok {
		return channel{}, invalidDatagram("channel missing offset")
	}
	offsetRaw, err := parseHexInt32(offsetTok)
	if err != nil {
		return channel{}, invalidDatagram("bad channel offset: " + err.Error())
	}
	offset := float64(offsetRaw)

	startAngleTok, ok := toks.next()
	if !ok {
		return channel{}, invalidDatagram("channel missing start angle")
	}
	startAngleRaw, err := parseHexInt32(startAngleTok)
	if err != nil {
		return channel{}, invalidDatagram("bad channel start angle: " + err.Error())
	}
	startAngleDeg := float64(startAngleRaw) / 10000.0

	angIncrTok, ok := toks.next()
	if !ok {
		return channel{}, invalidDatagram("channel missing angular increment")
	}
	angIncrRaw, err := parseHexInt16(angIncrTok)
	if err != nil {
		return channel{}, invalidDatagram("bad channel angular increment: " + err.Error())
	}
	angIncrDeg := float64(angIncrRaw) / 10000.0

	nValuesTok, ok := toks.next()
	if !ok {
		return channel{}, invalidDatagram("channel missing value count")
	}
	nValuesRaw, err := parseHexUint(nValuesTok, 32)
	if err != nil {
		return channel{}, invalidDatagram("bad channel value count: " + err.Error())
	}
	n := int(nValuesRaw)

	values := make([]float64, n)
	for i := 0; i < n; i++ {
		vTok, ok := toks.next()
		if !ok {
			return channel{}, invalidDatagram("channel truncated before all values were read")
		}
		raw, err := parseHexUint(vTok, 32)
		if err != nil {
			return channel{}, invalidDatagram("bad channel value: " + err.Error())
		}
		values[i] = offset + scale*float64(raw)/1000.0
	}

	angles := make([]float64, n)
	for i := 0; i < n; i++ {
		angles[i] = byteutil.AngleFromLMS(startAngleDeg + float64(i)*angIncrDeg)
	}

	return channel{
		description: string(descTok),
		angIncrDeg:  angIncrDeg,
		angles:      angles,
		values:      values,
	}, nil
}

type tokenIter struct {
	toks [][]byte
	pos  int
}

func (t *tokenIter) next() ([]byte, bool) {
	if t.pos >= len(t.toks) {
		return nil, false
	}
	tok := t.toks[t.pos]
	t.pos++
	return tok, true
}

func (t *tokenIter) skip(n int) bool {
	for i := 0; i < n; i++ {
		if _, ok := t.next(); !ok {
			return false
		}
	}
	return true
}

func parseHexUint(tok []byte, bits int) (uint64, error) {
	return strconv.ParseUint(string(tok), 16, bits)
}

func parseHexInt32(tok []byte) (int32, error) {
	u, err := strconv.ParseUint(string(tok), 16, 32)
	if err != nil {
		return 0, err
	}
	return int32(uint32(u)), nil
}

func parseHexInt16(tok []byte) (int16, error) {
	u, err := strconv.ParseUint(string(tok), 16, 16)
	if err != nil {
		return 0, err
	}
	return int16(uint16(u)), nil
}

func invalidDatagram(msg string) error {
	return sopaserr.Wrap(sopaserr.InvalidDatagram, errors.New(msg))
}
