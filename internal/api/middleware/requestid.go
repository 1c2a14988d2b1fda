package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/shared/id"
)

const (
	// RequestIDHeader carries the request ID in both directions
	RequestIDHeader = "X-Request-ID"

	requestIDKey = "request_id"
	maxIDLength  = 128
)

// RequestID tags every request with an ID. A well-formed ID supplied by the
// caller is reused, with UUIDs in any accepted spelling normalized to the
// canonical form; otherwise a req_<ULID> is generated. The ID is echoed in
// the response header and stored in the gin context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := callerRequestID(c.GetHeader(RequestIDHeader))
		if rid == "" {
			rid = id.NewRequestID().String()
		}
		c.Set(requestIDKey, rid)
		c.Header(RequestIDHeader, rid)
		c.Next()
	}
}

// GetRequestID returns the ID assigned by RequestID, or "" when the
// middleware did not run
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func callerRequestID(raw string) string {
	if raw == "" || len(raw) > maxIDLength {
		return ""
	}
	if u, err := uuid.Parse(raw); err == nil {
		return u.String()
	}
	if validRequestID(raw) {
		return raw
	}
	return ""
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		ch := id[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case ch == '-' || ch == '_' || ch == '.':
		default:
			return false
		}
	}
	return true
}
