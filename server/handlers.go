package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/nedpals/nfc-dump-converter/converter"
	"github.com/nedpals/nfc-dump-converter/protocol"
)

// ConvertHandler serves conversion requests arriving over WebSocket.
type ConvertHandler struct {
	conv   *converter.Converter
	notify func(res *converter.Result)
}

// NewConvertHandler creates a new convert handler. notify may be nil.
func NewConvertHandler(conv *converter.Converter, notify func(res *converter.Result)) *ConvertHandler {
	return &ConvertHandler{conv: conv, notify: notify}
}

// Register implements ServerHandler interface.
func (h *ConvertHandler) Register(server HandlerServer) {
	server.Handle(protocol.WSTypeConvertToDump, h.handleConvertToDump)
	server.Handle(protocol.WSTypeConvertToNFC, h.handleConvertToNFC)
	server.Handle(protocol.WSTypeConvertFile, h.handleConvertFile)
}

func (h *ConvertHandler) handleConvertToDump(ctx context.Context, conn *websocket.Conn, req protocol.WebSocketRequest) error {
	var payload protocol.ConvertToDumpPayload
	if err := json.Unmarshal(req.Payload, &payload); err != nil {
		sendErrorResponse(conn, req.ID, protocol.ErrCodeInvalidPayload, "Invalid convertToDump payload", 0)
		return err
	}
	return h.convert(conn, req.ID, "tag.nfc", []byte(payload.Text))
}

func (h *ConvertHandler) handleConvertToNFC(ctx context.Context, conn *websocket.Conn, req protocol.WebSocketRequest) error {
	var payload protocol.ConvertToNFCPayload
	if err := json.Unmarshal(req.Payload, &payload); err != nil {
		sendErrorResponse(conn, req.ID, protocol.ErrCodeInvalidPayload, "Invalid convertToNFC payload", 0)
		return err
	}
	return h.convert(conn, req.ID, "tag.dump", payload.Data)
}

func (h *ConvertHandler) handleConvertFile(ctx context.Context, conn *websocket.Conn, req protocol.WebSocketRequest) error {
	var payload protocol.ConvertFilePayload
	if err := json.Unmarshal(req.Payload, &payload); err != nil {
		sendErrorResponse(conn, req.ID, protocol.ErrCodeInvalidPayload, "Invalid convertFile payload", 0)
		return err
	}
	if payload.Filename == "" {
		sendErrorResponse(conn, req.ID, protocol.ErrCodeInvalidPayload, "convertFile requires a filename", 0)
		return errors.New("missing filename")
	}
	return h.convert(conn, req.ID, payload.Filename, payload.Data)
}

func (h *ConvertHandler) convert(conn *websocket.Conn, requestID, name string, data []byte) error {
	res, err := h.conv.Convert(name, data)
	if err != nil {
		sendErrorResponse(conn, requestID, protocol.ErrorCodeOf(err), err.Error(), protocol.ErrorLineOf(err))
		return err
	}
	if h.notify != nil {
		h.notify(res)
	}

	return conn.WriteJSON(protocol.WebSocketResponse{
		ID:      requestID,
		Type:    protocol.WSTypeConvertResponse,
		Success: true,
		Payload: protocol.NewConvertResult(res),
	})
}

// handleConvert converts a body whose direction is taken from the filename
// query parameter (POST /api/v1/convert?filename=card.nfc).
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("filename")
	if name == "" {
		writeError(w, http.StatusBadRequest, protocol.ErrorResponse{
			Error: "filename query parameter is required",
			Code:  protocol.ErrCodeInvalidPayload,
		})
		return
	}
	s.serveConversion(w, r, filepath.Base(name))
}

// handleConvertTo converts bodies known to be in format from
// (POST /api/v1/convert/dump takes NFC text, /convert/nfc takes a dump).
func (s *Server) handleConvertTo(from converter.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := "tag"
		if q := r.URL.Query().Get("filename"); q != "" {
			name = filepath.Base(q)
		}
		s.serveConversion(w, r, converter.OutputName(name, from))
	}
}

func (s *Server) serveConversion(w http.ResponseWriter, r *http.Request, name string) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, protocol.ErrorResponse{
				Error: "request body too large",
				Code:  protocol.ErrCodeTooLarge,
			})
			return
		}
		writeError(w, http.StatusBadRequest, protocol.ErrorResponse{
			Error: "failed to read request body",
			Code:  protocol.ErrCodeInvalidPayload,
		})
		return
	}

	res, err := s.conv.Convert(name, data)
	if err != nil {
		writeConvertError(w, err)
		return
	}
	s.notify(res)

	contentType := ContentTypeBinary
	if res.To == converter.FormatNFC {
		contentType = ContentTypeText
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.Name}))
	w.Header().Set(protocol.HeaderBlocks, strconv.Itoa(res.Blocks))
	w.Header().Set(protocol.HeaderUID, converter.FormatBytes(res.UID))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Data); err != nil {
		log.Printf("Failed to write conversion result: %v", err)
	}
}

// statusFor maps a conversion error to an HTTP status code.
func statusFor(err error) int {
	switch converter.GetErrorCode(err) {
	case converter.ErrCodeUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case converter.ErrCodeMalformedBlockLine, converter.ErrCodeEmptyInput, converter.ErrCodeInsufficientData:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeConvertError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), protocol.ErrorResponse{
		Error: err.Error(),
		Code:  protocol.ErrorCodeOf(err),
		Line:  protocol.ErrorLineOf(err),
	})
}

func writeError(w http.ResponseWriter, status int, body protocol.ErrorResponse) {
	writeJSON(w, status, body)
}
