package constants

// Content Types
const (
	ContentTypeJSON        = "application/json"
	ContentTypeText        = "Content-Type"
	ContentTypeEventStream = "text/event-stream"
)

// Headers
const (
	HeaderAccessControlAllowOrigin  = "Access-Control-Allow-Origin"
	HeaderAccessControlAllowHeaders = "Access-Control-Allow-Headers"
	HeaderAccessControlAllowMethods = "Access-Control-Allow-Methods"
	HeaderCacheControl              = "Cache-Control"
	HeaderConnection                = "Connection"
)

// Date formats
const (
	DateFormat    = "2006-01-02"
	DateFormatDMY = "02/01/2006"
)

// SSE message types
const (
	SSEConnected = "connected"
	SSEEvent     = "event"
	SSEOutcome   = "outcome"
	SSEPing      = "ping"
)
