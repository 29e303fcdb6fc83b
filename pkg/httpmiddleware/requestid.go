package httpmiddleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in both directions. CORS exposes it
// so browser clients can quote it in support requests.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLen = 64

// requestIDKey is the context key for the request id value.
type requestIDKey struct{}

// RequestIDFromContext extracts the request id stored by RequestID.
// It returns an empty string for contexts that never passed through the
// middleware, such as background jobs.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestID returns a middleware that gives every request an identifier.
// A well-formed incoming X-Request-ID is reused, so ids assigned by a proxy
// in front of the service survive. Otherwise a new UUID v7 is generated,
// which sorts by creation time in logs.
//
// Incoming values must be at most 64 bytes of letters, digits and the
// characters -_.: ; anything else is replaced rather than echoed.
//
// The request id is:
//   - Set on the response X-Request-ID header.
//   - Stored in the request context (retrieve with RequestIDFromContext).
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if !validRequestID(id) {
				id = newRequestID()
			}
			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
		})
	}
}

func newRequestID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// validRequestID accepts short tokens of letters, digits and -_.: so the
// id is safe to log and to echo in a header.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := range len(id) {
		switch c := id[i]; {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == ':':
		default:
			return false
		}
	}
	return true
}
