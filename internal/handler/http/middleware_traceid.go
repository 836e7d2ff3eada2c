package http

import (
	"net/http"

	"github.com/MKhiriev/go-doc-sync/internal/utils"
	"github.com/rs/zerolog"
)

// withTraceID tags the request logger with a trace ID taken from the
// X-Trace-ID header, or a fresh UUIDv7 when the caller sent none, and echoes
// it back in the response.
func (h *Handler) withTraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(utils.TraceIDHeader)
		if traceID == "" {
			traceID = h.ids.Generate()
		}

		l := h.logger.GetChildLogger()
		l.UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("trace_id", traceID)
		})
		r = r.WithContext(l.WithContext(r.Context()))

		w.Header().Set(utils.TraceIDHeader, traceID)
		next.ServeHTTP(w, r)
	})
}
