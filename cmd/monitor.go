// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sick-lms/sopas-driver/pkg/sopas"
	"github.com/sick-lms/sopas-driver/pkg/sopas/scan"
	"github.com/sick-lms/sopas-driver/pkg/sopas/sopasconfig"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live terminal dashboard of the sensor's scan stream",
	Long: `Like run, but instead of streaming silently, drives a full-screen
terminal dashboard showing the latest scan's beam count, angular window,
and near/far range summary, plus a scrollable table of recent scans.

Press 'q' or Ctrl+C to stop streaming and exit.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

type monitorScanMsg struct {
	nVals      int
	startAngle float64
	endAngle   float64
	nearest    float32
	farthest   float32
	at         time.Time
}

const maxHistoryRows = 100

type monitorModel struct {
	sensorIP, connInfo string
	last               *monitorScanMsg
	scanCount          int
	history            table.Model
	width, height      int
	quitting           bool
}

func newHistoryTable() table.Model {
	columns := []table.Column{
		{Title: "Time", Width: 12},
		{Title: "Beams", Width: 6},
		{Title: "Near (m)", Width: 9},
		{Title: "Far (m)", Width: 9},
	}
	t := table.New(table.WithColumns(columns), table.WithHeight(10))
	t.SetStyles(table.Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Cell:     lipgloss.NewStyle(),
		Selected: lipgloss.NewStyle(),
	})
	return t
}

func initialMonitorModel(sensorIP string, port int) monitorModel {
	return monitorModel{
		sensorIP: sensorIP,
		connInfo: fmt.Sprintf("%s:%d", sensorIP, port),
		history:  newHistoryTable(),
		width:    80,
		height:   24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.EnterAltScreen
}

func (m *monitorModel) addHistoryRow(s monitorScanMsg) {
	rows := m.history.Rows()
	row := table.Row{
		s.at.Format("15:04:05.000"),
		fmt.Sprintf("%d", s.nVals),
		fmt.Sprintf("%.3f", s.nearest),
		fmt.Sprintf("%.3f", s.farthest),
	}
	rows = append(rows, row)
	if len(rows) > maxHistoryRows {
		rows = rows[len(rows)-maxHistoryRows:]
	}
	m.history.SetRows(rows)
	m.history.GotoBottom()
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case monitorScanMsg:
		s := msg
		m.last = &s
		m.scanCount++
		m.addHistoryRow(s)
	}

	var cmd tea.Cmd
	m.history, cmd = m.history.Update(msg)
	return m, cmd
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Stopping stream...\n"
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).Padding(0, 1)
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	boxStyle := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("LIDARCTL - SCAN MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("Sensor: %s | Scans received: %d | Press 'q' to quit", m.connInfo, m.scanCount)))
	s.WriteString("\n\n")

	if m.last == nil {
		s.WriteString(headerStyle.Render("Waiting for first scan..."))
		s.WriteString("\n\n")
	} else {
		content := strings.Builder{}
		content.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render("Beams:"), valueStyle.Render(fmt.Sprintf("%d", m.last.nVals))))
		content.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render("Angular window:"),
			valueStyle.Render(fmt.Sprintf("%.3f .. %.3f rad", m.last.startAngle, m.last.endAngle))))
		content.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render("Range span:"),
			valueStyle.Render(fmt.Sprintf("%.3f .. %.3f m", m.last.nearest, m.last.farthest))))
		content.WriteString(fmt.Sprintf("%s %s",
			labelStyle.Render("Timestamp:"), valueStyle.Render(m.last.at.Format("15:04:05.000"))))
		s.WriteString(boxStyle.Render(content.String()))
		s.WriteString("\n\n")
	}

	s.WriteString(labelStyle.Render("Scan History:"))
	s.WriteString("\n")
	s.WriteString(boxStyle.Render(m.history.View()))

	return s.String()
}

// summarize reduces a full Scan to the handful of fields the dashboard
// shows, without retaining a reference to the driver's working buffer.
func summarize(s *scan.Scan) monitorScanMsg {
	var nearest, farthest float32
	for i, r := range s.Ranges {
		if i == 0 || r < nearest {
			nearest = r
		}
		if i == 0 || r > farthest {
			farthest = r
		}
	}
	return monitorScanMsg{
		nVals:      s.NVals,
		startAngle: s.StartAngle,
		endAngle:   s.EndAngle,
		nearest:    nearest,
		farthest:   farthest,
		at:         s.Time,
	}
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := sopasconfig.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	m := initialMonitorModel(cfg.SensorIP, cfg.Port)
	p := tea.NewProgram(m, tea.WithAltScreen())

	d, err := sopas.New(context.Background(), cfg.SensorIP, cfg.Port,
		cfg.ConnectTimeout, cfg.SendTimeout, cfg.RecvTimeout,
		func(s *scan.Scan) { p.Send(summarize(s)) })
	if err != nil {
		return fmt.Errorf("connecting to sensor: %w", err)
	}
	defer d.Close()

	if code := bringUp(cfg, d); code != 0 {
		os.Exit(code)
	}

	d.StartScan()

	if _, err := p.Run(); err != nil {
		d.Stop()
		return fmt.Errorf("TUI error: %w", err)
	}

	d.Stop()
	return nil
}
