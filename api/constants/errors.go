package constants

// Console error messages
const (
	ErrInvalidJSON       = "invalid json or missing fields"
	ErrInvalidDate       = "invalid date, expected YYYY-MM-DD"
	ErrRunInProgress     = "a run is already in progress"
	ErrRunNotFound       = "run not found"
	ErrRunNotActive      = "run is not in progress"
	ErrStreamUnsupported = "streaming unsupported"
	ErrMethodNotAllowed  = "Method Not Allowed"
)
