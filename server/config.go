package server

import "github.com/nedpals/nfc-dump-converter/converter"

// Config holds the server configuration
type Config struct {
	// Port is the HTTP/WebSocket port to listen on
	Port int

	// TLS configuration (optional)
	CertFile string // Path to TLS certificate file
	KeyFile  string // Path to TLS private key file

	// CACertFile is served at /api/v1/ca.pem so clients can trust CertFile (optional)
	CACertFile string

	// EnableMDNS advertises the service on the local network
	EnableMDNS bool

	// RateLimit caps convert requests per minute per client IP (0 disables)
	RateLimit int

	// MaxUploadBytes caps request bodies and WebSocket messages
	MaxUploadBytes int64

	// AllowedOrigins lists CORS origins; "*" allows any
	AllowedOrigins []string

	// Converter performs conversions; nil uses default options
	Converter *converter.Converter

	// OnConvert is called after every successful conversion (optional)
	OnConvert func(res *converter.Result)
}

// TLSEnabled returns true if TLS is configured.
func (c Config) TLSEnabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}
