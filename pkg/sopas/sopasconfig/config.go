// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package sopasconfig loads the structured configuration record the
// process surface hands to the protocol driver: sensor address, desired
// scan geometry, and the optional NTP/access-mode overrides.
package sopasconfig

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults matching the reference client and the sensor's documented
// values.
const (
	DefaultAccessMode     = 3
	DefaultPwHash         = 0xF4724744
	DefaultEchoFilter     = 2
	DefaultPort           = 2111
	DefaultConnectTimeout = 2 * time.Second
	DefaultSendTimeout    = 2 * time.Second
	DefaultRecvTimeout    = 2 * time.Second
)

// Config is the structured record a process surface reads from disk and
// hands to the driver. Angles are radians in the sensor frame; frequency
// is Hz; resolution is radians. Timeouts are given in milliseconds in the
// YAML file and converted to time.Duration on load.
type Config struct {
	SensorIP       string  `yaml:"sensorIP"`
	Port           int     `yaml:"port"`
	Frequency      float64 `yaml:"frequency"`
	Resolution     float64 `yaml:"resolution"`
	StartAngle     float64 `yaml:"startAngle"`
	EndAngle       float64 `yaml:"endAngle"`
	AccessMode     uint8   `yaml:"accessMode"`
	PwHash         uint32  `yaml:"pwHash"`
	NTPServerIP    string  `yaml:"ntpServerIP"`
	EchoFilter     uint32  `yaml:"echoFilter"`
	ConnectTimeout time.Duration
	SendTimeout    time.Duration
	RecvTimeout    time.Duration

	ConnectTimeoutMs int `yaml:"connectTimeoutMs"`
	SendTimeoutMs    int `yaml:"sendTimeoutMs"`
	RecvTimeoutMs    int `yaml:"recvTimeoutMs"`
}

// Load reads and decodes a YAML configuration file, filling in the
// sensor's documented default access mode, password hash, port, and echo
// filter for any field the file leaves at its zero value.
func Load(path string) (Config, error) {
	var cfg Config
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}

	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.AccessMode == 0 {
		cfg.AccessMode = DefaultAccessMode
	}
	if cfg.PwHash == 0 {
		cfg.PwHash = DefaultPwHash
	}
	if cfg.EchoFilter == 0 {
		cfg.EchoFilter = DefaultEchoFilter
	}

	cfg.ConnectTimeout = DefaultConnectTimeout
	if cfg.ConnectTimeoutMs > 0 {
		cfg.ConnectTimeout = time.Duration(cfg.ConnectTimeoutMs) * time.Millisecond
	}
	cfg.SendTimeout = DefaultSendTimeout
	if cfg.SendTimeoutMs > 0 {
		cfg.SendTimeout = time.Duration(cfg.SendTimeoutMs) * time.Millisecond
	}
	cfg.RecvTimeout = DefaultRecvTimeout
	if cfg.RecvTimeoutMs > 0 {
		cfg.RecvTimeout = time.Duration(cfg.RecvTimeoutMs) * time.Millisecond
	}

	return cfg, nil
}
