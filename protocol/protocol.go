// Package protocol provides the request and response types of the conversion
// service. It is importable by clients without pulling in server dependencies.
package protocol

// HealthResponse is returned by GET /api/v1/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"` // RFC3339 format
}

// InfoResponse is returned by GET /api/v1/info.
type InfoResponse struct {
	Name           string   `json:"name"`
	Version        string   `json:"version"`
	Commit         string   `json:"commit,omitempty"`
	BuildTime      string   `json:"buildTime,omitempty"`
	Formats        []string `json:"formats"`
	MaxUploadBytes int64    `json:"maxUploadBytes"`
	StrictIndex    bool     `json:"strictBlockIndex"`
	MessageTypes   []string `json:"messageTypes"` // Accepted WebSocket request types
	Clients        int      `json:"clients"`      // Connected WebSocket clients
}

// ErrorResponse is the JSON body of every failed HTTP request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Line  int    `json:"line,omitempty"` // Offending input line for malformed blocks
}

// Error codes that do not come from the converter.
const (
	ErrCodeParse          = "PARSE_ERROR"
	ErrCodeUnknownType    = "UNKNOWN_TYPE"
	ErrCodeInvalidPayload = "INVALID_PAYLOAD"
	ErrCodeTooLarge       = "PAYLOAD_TOO_LARGE"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// Response headers set by the convert endpoints.
const (
	HeaderBlocks = "X-NFC-Blocks"
	HeaderUID    = "X-NFC-UID"
)
