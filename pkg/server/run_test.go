package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var order []string
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, srv, logger,
			func() { order = append(order, "first") },
			func() { order = append(order, "second") },
		)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestRun_ReturnsListenError(t *testing.T) {
	srv := &http.Server{Addr: "bad-address", Handler: http.NotFoundHandler()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hookRan := false
	err := Run(context.Background(), srv, logger, func() { hookRan = true })
	assert.Error(t, err)
	assert.True(t, hookRan)
}
