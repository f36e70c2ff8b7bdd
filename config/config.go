// Package config loads application settings from defaults, an optional
// .env file and NFCDUMP_* environment variables. Command-line flags are
// applied on top by main.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "NFCDUMP_"

// Config holds the settings shared by the CLI, the service and the watcher.
type Config struct {
	// Service
	Port           int
	CertFile       string
	KeyFile        string
	AutoTLS        bool // Issue a locally trusted certificate
	EnableMDNS     bool
	RateLimit      int   // Requests per minute per IP, 0 disables limiting
	MaxUploadBytes int64 // Largest accepted request body
	AllowedOrigins []string

	// Files
	OutputDir       string
	WatchDir        string
	Debounce        time.Duration
	ConvertExisting bool // Convert files already in WatchDir on start

	// Parsing
	StrictBlockIndex bool
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:           18090,
		RateLimit:      120,
		MaxUploadBytes: 1 << 20,
		AllowedOrigins: []string{"*"},
		Debounce:       250 * time.Millisecond,
	}
}

// Load returns Default overlaid with envFile (if it exists) and the process
// environment. A missing envFile is not an error.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		} else {
			log.Printf("Loaded environment from %s", envFile)
		}
	}

	cfg := Default()
	var errs []error

	if v, ok := lookup("PORT"); ok {
		n, err := strconv.Atoi(v)
		errs = append(errs, wrap("PORT", err))
		cfg.Port = n
	}
	if v, ok := lookup("CERT_FILE"); ok {
		cfg.CertFile = v
	}
	if v, ok := lookup("KEY_FILE"); ok {
		cfg.KeyFile = v
	}
	if v, ok := lookup("AUTO_TLS"); ok {
		b, err := strconv.ParseBool(v)
		errs = append(errs, wrap("AUTO_TLS", err))
		cfg.AutoTLS = b
	}
	if v, ok := lookup("MDNS"); ok {
		b, err := strconv.ParseBool(v)
		errs = append(errs, wrap("MDNS", err))
		cfg.EnableMDNS = b
	}
	if v, ok := lookup("RATE_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		errs = append(errs, wrap("RATE_LIMIT", err))
		cfg.RateLimit = n
	}
	if v, ok := lookup("MAX_UPLOAD_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		errs = append(errs, wrap("MAX_UPLOAD_BYTES", err))
		cfg.MaxUploadBytes = n
	}
	if v, ok := lookup("ALLOWED_ORIGINS"); ok {
		cfg.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup("OUTPUT_DIR"); ok {
		cfg.OutputDir = v
	}
	if v, ok := lookup("WATCH_DIR"); ok {
		cfg.WatchDir = v
	}
	if v, ok := lookup("DEBOUNCE"); ok {
		d, err := time.ParseDuration(v)
		errs = append(errs, wrap("DEBOUNCE", err))
		cfg.Debounce = d
	}
	if v, ok := lookup("CONVERT_EXISTING"); ok {
		b, err := strconv.ParseBool(v)
		errs = append(errs, wrap("CONVERT_EXISTING", err))
		cfg.ConvertExisting = b
	}
	if v, ok := lookup("STRICT_BLOCK_INDEX"); ok {
		b, err := strconv.ParseBool(v)
		errs = append(errs, wrap("STRICT_BLOCK_INDEX", err))
		cfg.StrictBlockIndex = b
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit cannot be negative")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload size must be positive")
	}
	if (c.CertFile == "") != (c.KeyFile == "") {
		return fmt.Errorf("TLS needs both a certificate and a key file")
	}
	if c.AutoTLS && c.CertFile != "" {
		return fmt.Errorf("automatic TLS cannot be combined with a certificate file")
	}
	if c.WatchDir != "" && c.WatchOutputDir() == filepath.Clean(c.WatchDir) {
		return fmt.Errorf("output directory must differ from the watched directory %s", c.WatchDir)
	}
	return nil
}

// WatchOutputDir is where the watcher writes conversions: OutputDir, or a
// "converted" folder inside WatchDir.
func (c Config) WatchOutputDir() string {
	if c.OutputDir != "" {
		return filepath.Clean(c.OutputDir)
	}
	return filepath.Join(c.WatchDir, "converted")
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func wrap(key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
