package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_LevelAndService(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "inkwell", "warn")

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept", "userId", "u1")
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "kept", record["msg"])
	assert.Equal(t, "inkwell", record["service"])
	assert.Equal(t, "u1", record["userId"])
}

func TestFromRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "inkwell", "debug")

	var ctx context.Context
	h := middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ctx = r.Context()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, ctx)

	FromRequest(ctx, logger).Info("with id")
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, middleware.GetReqID(ctx), record["requestId"])

	assert.Same(t, logger, FromRequest(context.Background(), logger))
}
