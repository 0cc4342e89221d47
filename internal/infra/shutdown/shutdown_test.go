package shutdown_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skillcoder/replica-autoscaler/internal/infra/shutdown"
)

// fakeShutdowner records when it was shut down relative to its siblings.
type fakeShutdowner struct {
	name  string
	err   error
	order *[]string
	mu    *sync.Mutex
}

func (f *fakeShutdowner) Name() string { return f.name }

func (f *fakeShutdowner) Shutdown(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	*f.order = append(*f.order, f.name)

	return f.err
}

func TestGracefulShutdown(t *testing.T) {
	t.Parallel()

	t.Run("reverse registration order", func(t *testing.T) {
		t.Parallel()

		var (
			order []string
			mu    sync.Mutex
		)

		shutdowners := []shutdown.Shutdowner{
			&fakeShutdowner{name: "first", order: &order, mu: &mu},
			&fakeShutdowner{name: "second", order: &order, mu: &mu},
			&fakeShutdowner{name: "third", order: &order, mu: &mu},
		}

		err := shutdown.GracefulShutdown(context.Background(), slog.Default(), shutdowners)
		require.NoError(t, err)
		require.Equal(t, []string{"third", "second", "first"}, order)
	})

	t.Run("one failure does not stop the rest", func(t *testing.T) {
		t.Parallel()

		var (
			order []string
			mu    sync.Mutex
		)

		shutdowners := []shutdown.Shutdowner{
			&fakeShutdowner{name: "first", order: &order, mu: &mu},
			&fakeShutdowner{name: "second", err: errors.New("stuck"), order: &order, mu: &mu},
			&fakeShutdowner{name: "third", order: &order, mu: &mu},
		}

		err := shutdown.GracefulShutdown(context.Background(), slog.Default(), shutdowners)
		require.Error(t, err)
		require.Contains(t, err.Error(), "second")
		require.Equal(t, []string{"third", "second", "first"}, order)
	})
}

// fakeQuiter exposes a signal channel the test can feed.
type fakeQuiter struct {
	ch chan os.Signal
}

func (f *fakeQuiter) Quit() <-chan os.Signal { return f.ch }

func TestHandler_HandleSignals(t *testing.T) {
	t.Parallel()

	quiter := &fakeQuiter{ch: make(chan os.Signal, 1)}
	handler := shutdown.New(slog.Default(), quiter, "")

	ctx := context.Background()
	cancelled := make(chan struct{})

	go handler.HandleSignals(ctx, func() { close(cancelled) })

	quiter.ch <- os.Interrupt

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("signal did not cancel")
	}
}

func TestHandler_CheckTermination(t *testing.T) {
	t.Parallel()

	t.Run("no marker passes", func(t *testing.T) {
		t.Parallel()

		handler := shutdown.New(slog.Default(), &fakeQuiter{}, filepath.Join(t.TempDir(), "terminating"))

		require.NoError(t, handler.CheckTermination(context.Background()))
	})

	t.Run("marker file fails startup", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "terminating")
		require.NoError(t, os.WriteFile(path, nil, 0o600))

		handler := shutdown.New(slog.Default(), &fakeQuiter{}, path)

		require.Error(t, handler.CheckTermination(context.Background()))
	})

	t.Run("cancelled context fails startup", func(t *testing.T) {
		t.Parallel()

		handler := shutdown.New(slog.Default(), &fakeQuiter{}, "")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.Error(t, handler.CheckTermination(ctx))
	})
}
