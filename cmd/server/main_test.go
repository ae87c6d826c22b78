package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	sessionservice "medgate/internal/session/service"
)

func TestSweepSessions(t *testing.T) {
	sessions := sessionservice.NewStore(func() *sessionservice.Manager {
		return sessionservice.NewManager(nil)
	}, sessionservice.WithSessionTTL(time.Millisecond))
	for range 3 {
		sessions.Create()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sweepSessions(ctx, sessions, 5*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()

	assert.Eventually(t, func() bool { return sessions.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
