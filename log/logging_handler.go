package log

import (
	"net/http"
	"time"

	"go.uber.org/atomic"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type loggingHandler struct {
	handler   http.Handler
	logger    Logger
	requestID *atomic.Uint64
}

// NewLoggingHandler logs every request served by handler with a process wide sequential request id
func NewLoggingHandler(handler http.Handler, logger Logger) http.Handler {
	return &loggingHandler{
		handler:   handler,
		logger:    logger,
		requestID: atomic.NewUint64(0),
	}
}

func (h *loggingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	id := h.requestID.Inc()

	h.handler.ServeHTTP(recorder, r)

	h.logger.Info("request served",
		"requestId", id,
		"method", r.Method,
		"path", r.URL.Path,
		"status", recorder.status,
		"duration", time.Since(start))
}
