// Package server exposes the converter over HTTP and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/grandcat/zeroconf"

	"github.com/nedpals/nfc-dump-converter/buildinfo"
	"github.com/nedpals/nfc-dump-converter/converter"
	"github.com/nedpals/nfc-dump-converter/protocol"
)

// Server manages the HTTP and WebSocket server
type Server struct {
	config Config
	conv   *converter.Converter
	logger *log.Logger
	router chi.Router

	httpServer *http.Server
	listener   net.Listener
	ctx        context.Context
	cancel     context.CancelFunc
	mu         sync.Mutex

	// Client WebSocket management
	clients    map[*websocket.Conn]string // conn -> client ID
	clientsMux sync.RWMutex
	upgrader   websocket.Upgrader

	handlerRegistry *HandlerRegistry

	// mDNS service for auto-discovery
	mdnsServer *zeroconf.Server
}

// New creates a new server instance
func New(config Config) *Server {
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = 1 << 20
	}
	conv := config.Converter
	if conv == nil {
		conv = converter.New(converter.Options{})
	}

	s := &Server{
		config:  config,
		conv:    conv,
		logger:  log.New(os.Stderr, "[server] ", log.LstdFlags),
		clients: make(map[*websocket.Conn]string),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
		handlerRegistry: NewHandlerRegistry(),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	NewConvertHandler(conv, s.notify).Register(s)
	s.router = s.routes()

	return s
}

// Handle implements HandlerServer interface.
func (s *Server) Handle(messageType string, handler HandlerFunc) error {
	return s.handlerRegistry.Handle(messageType, handler)
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.SetHeader("Server", buildinfo.UserAgent()))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: CORSAllowMethods,
		AllowedHeaders: CORSAllowHeaders,
		ExposedHeaders: CORSExposeHeader,
		MaxAge:         300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(buildinfo.DisplayName + " Running"))
	})
	r.Get(RouteWebSocket, s.handleWebSocket)

	r.Route(APIPrefix, func(r chi.Router) {
		r.Get(RouteHealth, s.handleHealthCheck)
		r.Get(RouteInfo, s.handleInfo)
		if s.config.CACertFile != "" {
			r.Get(RouteCACert, s.handleCACert)
		}

		r.Group(func(r chi.Router) {
			if s.config.RateLimit > 0 {
				r.Use(httprate.LimitByIP(s.config.RateLimit, time.Minute))
			}
			r.Post(RouteConvert, s.handleConvert)
			r.Post(RouteConvertToDump, s.handleConvertTo(converter.FormatNFC))
			r.Post(RouteConvertToNFC, s.handleConvertTo(converter.FormatDump))
		})
	})

	return r
}

// ErrServerStopped is returned by Start after Stop has been called.
var ErrServerStopped = errors.New("server stopped")

// Start binds the listener and serves in the background. Listen errors are
// returned to the caller; once Start returns nil the service is reachable
// at URL until Stop is called. A stopped server cannot be restarted.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ctx.Err(); err != nil {
		return ErrServerStopped
	}
	if s.listener != nil {
		return errors.New("server already started")
	}

	addr := fmt.Sprintf(":%d", s.config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.listener = ln
	s.httpServer = httpServer

	go func() {
		var err error
		if s.config.TLSEnabled() {
			s.logger.Printf("Listening on %s (TLS)", ln.Addr())
			err = httpServer.ServeTLS(ln, s.config.CertFile, s.config.KeyFile)
		} else {
			s.logger.Printf("Listening on %s", ln.Addr())
			err = httpServer.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("HTTP server error: %v", err)
			s.cancel()
		}
	}()

	if s.config.EnableMDNS {
		if err := s.startMDNS(); err != nil {
			s.logger.Printf("Warning: Failed to start mDNS service: %v", err)
			s.logger.Printf("Auto-discovery will not be available, but server will continue normally")
		}
	}

	return nil
}

// Done is closed when the server stops, either through Stop or because
// serving failed.
func (s *Server) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Stop stops the HTTP server gracefully
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel()

	if s.mdnsServer != nil {
		s.mdnsServer.Shutdown()
		s.mdnsServer = nil
		s.logger.Printf("mDNS service stopped")
	}

	s.clientsMux.Lock()
	for conn := range s.clients {
		conn.Close()
		delete(s.clients, conn)
	}
	s.clientsMux.Unlock()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Printf("Server shutdown error: %v", err)
		}
		// Serve may not have tracked the listener yet
		s.listener.Close()
		s.httpServer = nil
		s.listener = nil
	}
}

// Addr returns the listening address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// URL returns the base URL of the service on this machine.
func (s *Server) URL() string {
	scheme := "http"
	if s.config.TLSEnabled() {
		scheme = "https"
	}
	port := s.config.Port
	if addr, ok := s.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}
	return fmt.Sprintf("%s://localhost:%d", scheme, port)
}

// ClientCount returns the number of connected WebSocket clients.
func (s *Server) ClientCount() int {
	s.clientsMux.RLock()
	defer s.clientsMux.RUnlock()
	return len(s.clients)
}

// startMDNS registers the converter as an mDNS service for auto-discovery
func (s *Server) startMDNS() error {
	port := s.config.Port
	if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}

	txtRecords := append(buildinfo.Current().TXT(),
		"protocol=websocket",
		"path=" + RouteWebSocket,
		"api=" + APIPrefix,
		fmt.Sprintf("tls=%t", s.config.TLSEnabled()),
	)

	server, err := zeroconf.Register(MDNSServiceName, MDNSServiceType, MDNSDomain, port, txtRecords, nil)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}

	s.mdnsServer = server
	s.logger.Printf("mDNS service registered: %s on port %d", MDNSServiceName, port)
	return nil
}

func (s *Server) notify(res *converter.Result) {
	if s.config.OnConvert != nil {
		s.config.OnConvert(res)
	}
}

// handleWebSocket upgrades HTTP connections to WebSocket connections and
// dispatches incoming requests to the registered handlers.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("WebSocket upgrade error: %v", err)
		return
	}

	// base64 plus the JSON envelope
	conn.SetReadLimit(s.config.MaxUploadBytes*4/3 + 4096)

	clientID := uuid.NewString()
	s.clientsMux.Lock()
	s.clients[conn] = clientID
	s.clientsMux.Unlock()

	s.logger.Printf("WebSocket client %s connected from %s", clientID, r.RemoteAddr)

	defer func() {
		s.clientsMux.Lock()
		delete(s.clients, conn)
		s.clientsMux.Unlock()
		conn.Close()
		s.logger.Printf("WebSocket client %s disconnected", clientID)
	}()

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var req protocol.WebSocketRequest
		if err := json.Unmarshal(message, &req); err != nil {
			s.logger.Printf("Failed to parse WebSocket message: %v", err)
			sendErrorResponse(conn, "", protocol.ErrCodeParse, "Invalid message format", 0)
			continue
		}
		if req.ID == "" {
			req.ID = uuid.NewString()
		}

		handler, ok := s.handlerRegistry.Get(req.Type)
		if !ok {
			s.logger.Printf("Unknown message type: %s", req.Type)
			sendErrorResponse(conn, req.ID, protocol.ErrCodeUnknownType, fmt.Sprintf("Unknown message type: %s", req.Type), 0)
			continue
		}

		if err := handler(r.Context(), conn, req); err != nil {
			// Error already sent by handler, just log it
			s.logger.Printf("Handler error for message type '%s': %v", req.Type, err)
		}
	}
}

// sendErrorResponse sends a structured error response to a WebSocket client
func sendErrorResponse(conn *websocket.Conn, requestID, errorCode, message string, line int) {
	response := protocol.WebSocketResponse{
		ID:      requestID,
		Type:    protocol.WSTypeError,
		Success: false,
		Error:   message,
		Payload: protocol.ErrorPayload{
			Code: errorCode,
			Line: line,
		},
	}

	if err := conn.WriteJSON(response); err != nil {
		log.Printf("Failed to send error response: %v", err)
	}
}

// handleHealthCheck provides a health check endpoint (GET /api/v1/health)
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, protocol.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// handleCACert serves the CA that signed the service certificate.
func (s *Server) handleCACert(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(s.config.CACertFile)
	if err != nil {
		s.logger.Printf("Failed to read CA certificate: %v", err)
		writeError(w, http.StatusNotFound, protocol.ErrorResponse{
			Error: "CA certificate not available",
			Code:  protocol.ErrCodeInternal,
		})
		return
	}
	w.Header().Set("Content-Type", "application/x-pem-file")
	w.Header().Set("Content-Disposition", `attachment; filename="ca.pem"`)
	w.Write(data)
}

// handleInfo describes the service (GET /api/v1/info)
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	build := buildinfo.Current()
	writeJSON(w, http.StatusOK, protocol.InfoResponse{
		Name:           build.Name,
		Version:        build.FullVersion(),
		Commit:         build.Commit,
		BuildTime:      build.BuildTime,
		Formats:        []string{string(converter.FormatNFC), string(converter.FormatDump)},
		MaxUploadBytes: s.config.MaxUploadBytes,
		StrictIndex:    s.conv.Options().StrictBlockIndex,
		MessageTypes:   s.handlerRegistry.MessageTypes(),
		Clients:        s.ClientCount(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
