package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/nedpals/nfc-dump-converter/autotls"
	"github.com/nedpals/nfc-dump-converter/config"
	"github.com/nedpals/nfc-dump-converter/converter"
	"github.com/nedpals/nfc-dump-converter/server"
	"github.com/nedpals/nfc-dump-converter/watcher"
)

// Conversion is the most recent conversion seen by the agent.
type Conversion struct {
	Source string // "server", "watch" or "cli"
	Result *converter.Result
	Err    error
	Time   time.Time
}

// Status returns the user-facing status line of the conversion.
func (c Conversion) Status() string {
	return converter.StatusMessage(c.Result, c.Err)
}

// Agent runs the conversion service and the watch folder together.
type Agent struct {
	Logger    *log.Logger
	Config    config.Config
	Converter *converter.Converter
	Serve     bool // Run the HTTP/WebSocket service

	mu      sync.Mutex
	server  *server.Server
	watcher *watcher.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	last    *Conversion
}

func NewAgent(cfg config.Config, serve bool) *Agent {
	return &Agent{
		Logger:    log.New(os.Stderr, "[agent] ", log.LstdFlags),
		Config:    cfg,
		Converter: converter.New(converter.Options{StrictBlockIndex: cfg.StrictBlockIndex}),
		Serve:     serve,
	}
}

// Start launches the service and the watcher as configured. It returns
// once both are running.
func (a *Agent) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return errors.New("agent is already running")
	}
	if !a.Serve && a.Config.WatchDir == "" {
		return errors.New("nothing to run: enable the service or set a watch directory")
	}

	certFile, keyFile, caFile := a.Config.CertFile, a.Config.KeyFile, ""
	if a.Serve && a.Config.AutoTLS {
		var err error
		if certFile, keyFile, caFile, err = ensureCertificates(); err != nil {
			return fmt.Errorf("automatic TLS: %w", err)
		}
	}

	// The listener is bound first so a busy port fails Start outright
	var srv *server.Server
	if a.Serve {
		srv = server.New(server.Config{
			Port:           a.Config.Port,
			CertFile:       certFile,
			KeyFile:        keyFile,
			CACertFile:     caFile,
			EnableMDNS:     a.Config.EnableMDNS,
			RateLimit:      a.Config.RateLimit,
			MaxUploadBytes: a.Config.MaxUploadBytes,
			AllowedOrigins: a.Config.AllowedOrigins,
			Converter:      a.Converter,
			OnConvert: func(res *converter.Result) {
				a.record(Conversion{Source: "server", Result: res, Time: time.Now()})
			},
		})
		if err := srv.Start(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	if a.Config.WatchDir != "" {
		w, err := watcher.New(watcher.Config{
			Dir:             a.Config.WatchDir,
			OutputDir:       a.Config.WatchOutputDir(),
			Debounce:        a.Config.Debounce,
			ConvertExisting: a.Config.ConvertExisting,
			Converter:       a.Converter,
		})
		if err != nil {
			cancel()
			if srv != nil {
				srv.Stop()
			}
			return err
		}
		a.watcher = w

		a.wg.Add(2)
		go func() {
			defer a.wg.Done()
			if err := w.Run(ctx); err != nil {
				a.Logger.Printf("Watcher stopped: %v", err)
			}
		}()
		go func() {
			defer a.wg.Done()
			a.collect(ctx, w.Events())
		}()
	}

	a.server = srv
	a.cancel = cancel
	a.Logger.Println("Agent started")
	return nil
}

func ensureCertificates() (certFile, keyFile, caFile string, err error) {
	dir, err := autotls.DefaultDir()
	if err != nil {
		return "", "", "", err
	}
	mgr := autotls.NewManager(dir)
	certFile, keyFile, err = mgr.Ensure()
	if err != nil {
		return "", "", "", err
	}
	return certFile, keyFile, mgr.CACertFile(), nil
}

// Stop shuts down the service and the watcher.
func (a *Agent) Stop() {
	a.mu.Lock()
	if a.cancel == nil {
		a.mu.Unlock()
		a.Logger.Println("Agent is not running")
		return
	}
	srv, cancel := a.server, a.cancel
	a.server, a.cancel, a.watcher = nil, nil, nil
	a.mu.Unlock()

	a.Logger.Println("Stopping agent...")

	// In-flight requests record their conversion, so a.mu must be free here
	if srv != nil {
		srv.Stop()
	}
	cancel()
	a.wg.Wait()

	a.Logger.Println("Agent stopped successfully")
}

// Running reports whether Start has been called without a matching Stop.
func (a *Agent) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancel != nil
}

// ServiceURL returns the base URL of the running service, or "".
func (a *Agent) ServiceURL() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server == nil || a.server.Addr() == nil {
		return ""
	}
	return a.server.URL()
}

// LastConversion returns the most recent conversion, or nil.
func (a *Agent) LastConversion() *Conversion {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last == nil {
		return nil
	}
	c := *a.last
	return &c
}

func (a *Agent) record(c Conversion) {
	a.mu.Lock()
	a.last = &c
	a.mu.Unlock()
}

func (a *Agent) collect(ctx context.Context, events <-chan watcher.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			c := Conversion{Source: "watch", Err: ev.Err, Time: time.Now()}
			if ev.Output != nil {
				c.Result = ev.Output.Result
			}
			a.record(c)
		}
	}
}
