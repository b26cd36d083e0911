// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sick-lms/sopas-driver/pkg/sopas"
	"github.com/sick-lms/sopas-driver/pkg/sopas/sopasconfig"
	"github.com/spf13/cobra"
)

// Exit codes reserved for each configuration step that can fail before
// streaming starts.
const (
	exitAccessMode = 1
	exitNTPConfig  = 2
	exitScanConfig = 3
	exitPersist    = 4
	exitRun        = 5
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Configure the sensor and stream scans until interrupted",
	Long: `Load a sensor config, log in, apply the scan geometry, persist it,
start measurement, and stream scans until interrupted with Ctrl+C.

Each configuration step exits with a distinct, documented code on failure:

  1  SetAccessMode failed
  2  ConfigureNTPClient failed
  3  SetScanConfig failed
  4  SaveParams failed
  5  Run failed`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func bringUp(cfg sopasconfig.Config, d *sopas.Driver) int {
	if err := d.SetAccessMode(cfg.AccessMode, cfg.PwHash); err != nil {
		log.Printf("SetAccessMode failed: %v", err)
		return exitAccessMode
	}
	if cfg.NTPServerIP != "" {
		if err := d.ConfigureNTPClient(cfg.NTPServerIP); err != nil {
			log.Printf("ConfigureNTPClient failed: %v", err)
			return exitNTPConfig
		}
	}
	if err := d.SetScanConfig(sopas.LMSConfigParams{
		Frequency:  cfg.Frequency,
		Resolution: cfg.Resolution,
		StartAngle: cfg.StartAngle,
		EndAngle:   cfg.EndAngle,
		EchoFilter: cfg.EchoFilter,
	}); err != nil {
		log.Printf("SetScanConfig failed: %v", err)
		return exitScanConfig
	}
	if err := d.SaveParams(); err != nil {
		log.Printf("SaveParams failed: %v", err)
		return exitPersist
	}
	if err := d.Run(); err != nil {
		log.Printf("Run failed: %v", err)
		return exitRun
	}
	return 0
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := sopasconfig.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	d, err := sopas.New(context.Background(), cfg.SensorIP, cfg.Port,
		cfg.ConnectTimeout, cfg.SendTimeout, cfg.RecvTimeout, nil)
	if err != nil {
		return fmt.Errorf("connecting to sensor: %w", err)
	}
	defer d.Close()

	if code := bringUp(cfg, d); code != 0 {
		os.Exit(code)
	}

	d.StartScan()
	log.Printf("streaming from %s:%d, press Ctrl+C to stop", cfg.SensorIP, cfg.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Printf("stopping")
	d.Stop()
	return nil
}
