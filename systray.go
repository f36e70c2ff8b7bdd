package main

import (
	_ "embed"
	"fmt"
	"log"
	"net"
	"net/url"
	"time"

	"fyne.io/systray"
	"github.com/atotto/clipboard"

	"github.com/nedpals/nfc-dump-converter/autotls"
	"github.com/nedpals/nfc-dump-converter/buildinfo"
	"github.com/nedpals/nfc-dump-converter/converter"
)

var (
	//go:embed icons/idle.png
	iconData []byte

	//go:embed icons/running.png
	iconDataConnected []byte

	//go:embed icons/error.png
	iconDataError []byte

	//go:embed icons/stopped.png
	iconDataStopped []byte
)

// SystrayApp manages the system tray interface for the converter
type SystrayApp struct {
	agent *Agent

	// Menu items
	mStatus      *systray.MenuItem
	mURL         *systray.MenuItem
	mCopyURL     *systray.MenuItem
	mWatch       *systray.MenuItem
	mLast        *systray.MenuItem
	mLastUID     *systray.MenuItem
	mCopyLastUID *systray.MenuItem
	mStart       *systray.MenuItem
	mStop        *systray.MenuItem
	mQuit        *systray.MenuItem
}

// NewSystrayApp creates a new systray application
func NewSystrayApp(agent *Agent) *SystrayApp {
	return &SystrayApp{agent: agent}
}

// Run starts the systray application
func (s *SystrayApp) Run() {
	systray.Run(s.onReady, s.onExit)
}

// onReady is called when the systray is ready
func (s *SystrayApp) onReady() {
	s.setupUI()
	s.autoStartAgent()
	s.startConversionUpdater()
	go s.handleMenuEvents()
}

// onExit is called when the systray is exiting
func (s *SystrayApp) onExit() {
	if s.agent.Running() {
		s.agent.Stop()
	}
}

// setupUI initializes all menu items
func (s *SystrayApp) setupUI() {
	systray.SetIcon(iconData)
	systray.SetTooltip(buildinfo.DisplayName)

	s.mStatus = systray.AddMenuItem("Starting...", "Converter status")
	s.mStatus.Disable()

	systray.AddSeparator()

	s.mURL = systray.AddMenuItem("Service: Not running", "Conversion service URL")
	s.mURL.Disable()
	s.mCopyURL = systray.AddMenuItem("  Copy Service URL", "Copy the service URL to clipboard")
	s.mCopyURL.Disable()

	s.mWatch = systray.AddMenuItem("Watch Folder: Off", "Folder converted automatically")
	s.mWatch.Disable()
	if dir := s.agent.Config.WatchDir; dir != "" {
		s.mWatch.SetTitle("Watch Folder: " + dir)
	}

	systray.AddSeparator()

	s.mLast = systray.AddMenuItem("Last Conversion: None", "Most recent conversion")
	s.mLast.Disable()
	s.mLastUID = systray.AddMenuItem("Card UID: None", "UID of the most recent conversion")
	s.mLastUID.Disable()
	s.mCopyLastUID = systray.AddMenuItem("  Copy Card UID", "Copy the card UID to clipboard")
	s.mCopyLastUID.Disable()

	systray.AddSeparator()

	s.mStart = systray.AddMenuItem("Start", "Start converting")
	s.mStop = systray.AddMenuItem("Stop", "Stop converting")
	s.mStart.Disable() // Disable start since we're auto-starting
	s.mStop.Disable()  // Will be enabled once the agent starts

	systray.AddSeparator()
	s.mQuit = systray.AddMenuItem("Quit", "Quit the application")
}

// autoStartAgent starts the agent automatically
func (s *SystrayApp) autoStartAgent() {
	go s.handleStart()
}

// startConversionUpdater refreshes the last conversion display
func (s *SystrayApp) startConversionUpdater() {
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		var lastSeen time.Time

		for range ticker.C {
			c := s.agent.LastConversion()
			if c == nil || c.Time.Equal(lastSeen) {
				continue
			}
			lastSeen = c.Time
			s.updateConversion(c)
		}
	}()
}

// handleMenuEvents processes all menu click events
func (s *SystrayApp) handleMenuEvents() {
	for {
		select {
		case <-s.mStart.ClickedCh:
			s.handleStart()
		case <-s.mStop.ClickedCh:
			s.handleStop()
		case <-s.mCopyURL.ClickedCh:
			s.copy("service URL", lanURL(s.agent.ServiceURL()))
		case <-s.mCopyLastUID.ClickedCh:
			if c := s.agent.LastConversion(); c != nil && c.Result != nil {
				s.copy("card UID", converter.FormatBytes(c.Result.UID))
			}
		case <-s.mQuit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

func (s *SystrayApp) handleStart() {
	if err := s.agent.Start(); err != nil {
		log.Printf("[systray] Failed to start: %v", err)
		s.updateStatus("Failed to Start")
		s.mStart.Enable()
		return
	}
	s.updateStatus("Running")
	s.updateURL(s.agent.ServiceURL())
	s.mStart.Disable()
	s.mStop.Enable()
}

func (s *SystrayApp) handleStop() {
	s.agent.Stop()
	s.updateStatus("Stopped")
	s.updateURL("")
	s.mStop.Disable()
	s.mStart.Enable()
}

// updateStatus updates the status menu item and icon
func (s *SystrayApp) updateStatus(status string) {
	s.mStatus.SetTitle(status)

	switch status {
	case "Running":
		systray.SetIcon(iconDataConnected)
	case "Failed to Start":
		systray.SetIcon(iconDataError)
	case "Stopped":
		systray.SetIcon(iconDataStopped)
	default:
		systray.SetIcon(iconData)
	}
}

// lanURL swaps the host of serviceURL for the first LAN address, if any.
func lanURL(serviceURL string) string {
	ips, err := autotls.LANIPs()
	if serviceURL == "" || err != nil || len(ips) == 0 {
		return serviceURL
	}
	u, err := url.Parse(serviceURL)
	if err != nil {
		return serviceURL
	}
	u.Host = net.JoinHostPort(ips[0], u.Port())
	return u.String()
}

// updateURL shows the service URL
func (s *SystrayApp) updateURL(serviceURL string) {
	if serviceURL == "" {
		s.mURL.SetTitle("Service: Not running")
		s.mCopyURL.Disable()
		return
	}
	s.mURL.SetTitle("Service: " + lanURL(serviceURL))
	s.mCopyURL.Enable()
}

// updateConversion shows the outcome of c
func (s *SystrayApp) updateConversion(c *Conversion) {
	s.mLast.SetTitle(fmt.Sprintf("Last Conversion (%s, %s): %s",
		c.Source, c.Time.Format("15:04:05"), c.Status()))

	if c.Result == nil || len(c.Result.UID) == 0 {
		s.mLastUID.SetTitle("Card UID: None")
		s.mCopyLastUID.Disable()
		return
	}
	s.mLastUID.SetTitle("Card UID: " + converter.FormatBytes(c.Result.UID))
	s.mCopyLastUID.Enable()
}

func (s *SystrayApp) copy(what, text string) {
	if text == "" {
		return
	}
	if err := clipboard.WriteAll(text); err != nil {
		log.Printf("[systray] Failed to copy to clipboard: %v", err)
		return
	}
	log.Printf("[systray] Copied %s to clipboard", what)
}
