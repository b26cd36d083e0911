// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package byteutil provides the small numeric conversions the SOPAS-ASCII
// wire format needs: IPv4 dotted-quad to network-order integer and back to
// the hex-byte string SOPAS embeds in command payloads, plus the sensor's
// LMS-angle convention.
package byteutil

import (
	"encoding/binary"
	"fmt"
	"math"
	"net"
)

// IPToUint32 parses a dotted-quad IPv4 address and returns it in network
// byte order: the first octet occupies the most significant byte once the
// result is read back in host order.
func IPToUint32(ip string) (uint32, error) {
	addr := net.ParseIP(ip)
	if addr == nil {
		return 0, fmt.Errorf("byteutil: invalid IPv4 address %q", ip)
	}
	v4 := addr.To4()
	if v4 == nil {
		return 0, fmt.Errorf("byteutil: %q is not an IPv4 address", ip)
	}
	return binary.BigEndian.Uint32(v4), nil
}

// IPToHexASCII renders the four host-order octets of ip as two uppercase
// hex digits each, space separated, e.g. "192.168.95.44" -> "C0 A8 5F 2C".
func IPToHexASCII(ip string) (string, error) {
	n, err := IPToUint32(ip)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02X %02X %02X %02X",
		byte(n>>24), byte(n>>16), byte(n>>8), byte(n)), nil
}

// AngleToLMS converts a sensor-frame radian angle (0 = straight ahead) to
// the wire's LMS-degree convention (90 = straight ahead).
func AngleToLMS(rad float64) float64 {
	return rad*(180/math.Pi) + 90
}

// AngleFromLMS is the exact inverse of AngleToLMS.
func AngleFromLMS(deg float64) float64 {
	return (deg - 90) * (math.Pi / 180)
}
