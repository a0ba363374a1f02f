package log

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggingHandler(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := NewZapLogger(zap.New(core))

	handler := NewLoggingHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), logger)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/crud/letter", nil))
		assert.Equal(t, http.StatusTeapot, w.Code)
	}

	entries := logs.AllUntimed()
	assert.Len(t, entries, 2)
	fields := entries[1].ContextMap()
	assert.Equal(t, "request served", entries[1].Message)
	assert.Equal(t, uint64(2), fields["requestId"])
	assert.Equal(t, "/api/crud/letter", fields["path"])
	assert.Equal(t, int64(http.StatusTeapot), fields["status"])
}

func TestZapLoggerWith(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := NewZapLogger(zap.New(core)).With("table", "letter")

	logger.Debug("compiled", "predicates", 2)

	entries := logs.AllUntimed()
	assert.Len(t, entries, 1)
	assert.Equal(t, "letter", entries[0].ContextMap()["table"])
	assert.Equal(t, int64(2), entries[0].ContextMap()["predicates"])
}
