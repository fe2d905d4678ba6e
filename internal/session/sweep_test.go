package session

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSweeperRemovesExpired(t *testing.T) {
	mirror := NewMemoryMirror()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	live := testRecord(time.Hour)
	stale := testRecord(-time.Hour)
	require.NoError(t, mirror.Save(ctx, live))
	require.NoError(t, mirror.Save(ctx, stale))

	done := make(chan struct{})
	go func() {
		defer close(done)
		RunSweeper(ctx, mirror, 10*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()

	assert.Eventually(t, func() bool { return mirror.Len() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}

	loaded, err := mirror.Load(context.Background(), live.ID)
	require.NoError(t, err)
	assert.NotNil(t, loaded)
}

func TestRunSweeperDisabled(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		RunSweeper(context.Background(), NewMemoryMirror(), 0, nil)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("zero interval should return immediately")
	}
}
