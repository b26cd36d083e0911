// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package cmd is the lidarctl cobra command tree: a root command carrying
// the shared config-file flag, plus run and monitor subcommands built
// around the sopas driver.
package cmd

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "lidarctl",
	Short: "SICK LMS-family SOPAS-ASCII driver CLI",
	Long: `lidarctl configures and streams from a SICK LMS-family 2D laser range
finder over its SOPAS-ASCII TCP interface.

It logs in, applies the scan geometry and rate from a YAML config file,
persists the configuration, and starts streaming - either as a
fire-and-forget runner or into a live terminal dashboard.

Connection and scan parameters are read from a config file:

  lidarctl run --config sensor.yaml
  lidarctl monitor --config sensor.yaml`,
	Version: "1.0.0",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the sensor config YAML file (required)")
	rootCmd.MarkPersistentFlagRequired("config")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
