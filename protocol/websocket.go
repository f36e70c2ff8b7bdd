package protocol

import "encoding/json"

// WebSocket message type constants
const (
	WSTypeConvertToDump   = "convertToDump"
	WSTypeConvertToNFC    = "convertToNFC"
	WSTypeConvertFile     = "convertFile"
	WSTypeConvertResponse = "convertResponse"
	WSTypeError           = "error"
)

// WebSocketRequest is for incoming requests from WebSocket clients.
type WebSocketRequest struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WebSocketResponse is for responses to WebSocket requests.
type WebSocketResponse struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ConvertToDumpPayload carries NFC text to convert into a dump.
type ConvertToDumpPayload struct {
	Text string `json:"text"`
}

// ConvertToNFCPayload carries a dump to convert into NFC text.
// Data is base64 encoded on the wire.
type ConvertToNFCPayload struct {
	Data []byte `json:"data"`
}

// ConvertFilePayload carries a named file; the name decides the direction.
type ConvertFilePayload struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

// ConvertResultPayload is the payload of a convertResponse. Text is set for
// NFC output, Data (base64) for dump output.
type ConvertResultPayload struct {
	Filename string `json:"filename,omitempty"`
	From     string `json:"from"`
	To       string `json:"to"`
	Text     string `json:"text,omitempty"`
	Data     []byte `json:"data,omitempty"`
	Blocks   int    `json:"blocks"`
	UID      string `json:"uid"`
}

// ErrorPayload is the payload of an error response.
type ErrorPayload struct {
	Code string `json:"code"`
	Line int    `json:"line,omitempty"`
}
