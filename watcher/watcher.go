// Package watcher converts .nfc and .dump files as they appear in a folder.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/nedpals/nfc-dump-converter/converter"
	"github.com/nedpals/nfc-dump-converter/fileio"
)

// Config holds the watcher configuration
type Config struct {
	// Dir is the folder to watch (not recursive)
	Dir string

	// OutputDir receives the converted files; it must not be Dir
	OutputDir string

	// Debounce waits for writes to settle before converting a file
	Debounce time.Duration

	// Converter performs conversions; nil uses default options
	Converter *converter.Converter

	// ConvertExisting converts files already in Dir once Run is watching
	ConvertExisting bool
}

// Event reports the outcome of one conversion.
type Event struct {
	ID     string
	Input  string
	Output *fileio.Output // nil when Err is set
	Err    error
}

// Status renders the event as a user-facing status line.
func (e Event) Status() string {
	if e.Output != nil {
		return converter.StatusMessage(e.Output.Result, nil)
	}
	return converter.StatusMessage(nil, e.Err)
}

// Watcher converts files dropped into a folder.
type Watcher struct {
	config Config
	conv   *converter.Converter
	logger *log.Logger
	events chan Event
	ready  chan struct{}

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// New creates a watcher. Call Run to start it.
func New(config Config) (*Watcher, error) {
	if config.Dir == "" {
		return nil, errors.New("watch directory is required")
	}
	if config.OutputDir == "" {
		config.OutputDir = filepath.Join(config.Dir, "converted")
	}
	if filepath.Clean(config.OutputDir) == filepath.Clean(config.Dir) {
		return nil, fmt.Errorf("output directory must differ from %s", config.Dir)
	}
	if config.Debounce <= 0 {
		config.Debounce = 250 * time.Millisecond
	}
	conv := config.Converter
	if conv == nil {
		conv = converter.New(converter.Options{})
	}

	return &Watcher{
		config:  config,
		conv:    conv,
		logger:  log.New(os.Stderr, "[watch] ", log.LstdFlags),
		events:  make(chan Event, 16),
		ready:   make(chan struct{}),
		pending: make(map[string]*time.Timer),
	}, nil
}

// Events delivers conversion outcomes. Events are dropped when nobody reads.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run watches the folder until ctx is cancelled. Files already present are
// converted only when Config.ConvertExisting is set.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	if err := os.MkdirAll(w.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := fsw.Add(w.config.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.config.Dir, err)
	}
	w.logger.Printf("Watching %s, writing to %s", w.config.Dir, w.config.OutputDir)
	close(w.ready)

	defer w.stopPending()

	if w.config.ConvertExisting {
		if err := w.ConvertExisting(); err != nil {
			w.logger.Printf("Failed to convert existing files: %v", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				w.schedule(event.Name)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Printf("Watcher error: %v", err)
		}
	}
}

// Watchable reports whether a file name has a convertible extension.
func Watchable(name string) bool {
	if strings.HasPrefix(filepath.Base(name), ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case converter.FormatNFC.Extension(), converter.FormatDump.Extension():
		return true
	}
	return false
}

// schedule (re)starts the debounce timer of path. A timer that already
// fired is replaced, never re-armed, so each timer runs its callback once.
func (w *Watcher) schedule(path string) {
	if !Watchable(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok && timer.Stop() {
		timer.Reset(w.config.Debounce)
		return
	}

	w.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.config.Debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.pending[path] == timer {
			delete(w.pending, path)
		}
		w.mu.Unlock()
		w.convert(path)
	})
	w.pending[path] = timer
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	for path, timer := range w.pending {
		if timer.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *Watcher) convert(path string) {
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return
	}

	event := Event{ID: uuid.NewString(), Input: path}
	out, err := fileio.ConvertFile(w.conv, path, w.config.OutputDir)
	if err != nil {
		event.Err = err
		w.logger.Printf("[%s] %s: %v", event.ID[:8], filepath.Base(path), err)
	} else {
		event.Output = out
		w.logger.Printf("[%s] %s -> %s (%s, %d blocks)", event.ID[:8],
			filepath.Base(path), out.Path, humanize.Bytes(uint64(out.Size)), out.Blocks)
	}

	select {
	case w.events <- event:
	default:
	}
}

// ConvertExisting converts every watchable file already in the folder.
func (w *Watcher) ConvertExisting() error {
	entries, err := os.ReadDir(w.config.Dir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", w.config.Dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !Watchable(entry.Name()) {
			continue
		}
		w.convert(filepath.Join(w.config.Dir, entry.Name()))
	}
	return nil
}
