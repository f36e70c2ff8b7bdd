package server

import "github.com/nedpals/nfc-dump-converter/buildinfo"

// mDNS service discovery constants
var (
	MDNSServiceType = "_nfc-dump._tcp"
	MDNSServiceName = buildinfo.DisplayName
	MDNSDomain      = "local."
)

// HTTP routes
const (
	APIPrefix = "/api/v1"

	RouteHealth        = "/health"
	RouteInfo          = "/info"
	RouteCACert        = "/ca.pem"
	RouteConvert       = "/convert"
	RouteConvertToDump = "/convert/dump"
	RouteConvertToNFC  = "/convert/nfc"
	RouteWebSocket     = "/ws"
)

// Content types
const (
	ContentTypeJSON   = "application/json"
	ContentTypeText   = "text/plain; charset=utf-8"
	ContentTypeBinary = "application/octet-stream"
)

// CORS configuration
var (
	CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	CORSAllowHeaders = []string{"Content-Type", "Authorization"}
	CORSExposeHeader = []string{"Content-Disposition", "X-NFC-Blocks", "X-NFC-UID", "X-Request-Id"}
)
