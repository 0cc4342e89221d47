package pinger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// defaultPingTimeout is the default timeout for ping operations
	defaultPingTimeout = 1 * time.Second
)

// Statistics tracks ping outcomes for one registered component.
type Statistics struct {
	Total       uint64        `json:"total"`
	Failures    uint64        `json:"failures"`
	LastError   string        `json:"lastError,omitempty"`
	LastPingAt  time.Time     `json:"lastPingAt"`
	LastLatency time.Duration `json:"lastLatencyNs"`
}

// Service pings registered components periodically and tracks their statistics.
type Service struct {
	logger     *slog.Logger
	interval   time.Duration
	mu         sync.RWMutex
	pingers    map[string]Pinger
	stats      map[string]*Statistics
	ready      chan struct{}
	doneCh     chan struct{}
	inShutdown atomic.Bool
}

// New creates a new pinger service with the specified interval
func New(
	logger *slog.Logger,
	interval time.Duration,
) *Service {
	return &Service{
		logger:   logger,
		interval: interval,
		pingers:  make(map[string]Pinger),
		stats:    make(map[string]*Statistics),
		ready:    make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Name returns the name of the pinger component
func (s *Service) Name() string {
	return "pinger"
}

// Register adds a component to the periodic health check round.
// Must be called before Start.
func (s *Service) Register(p Pinger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := p.Name()
	if _, ok := s.pingers[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePinger, name)
	}

	s.pingers[name] = p
	s.stats[name] = &Statistics{}

	return nil
}

// Start starts the periodic ping loop in a goroutine.
func (s *Service) Start(ctx context.Context) error {
	if s.inShutdown.Load() {
		s.logger.InfoContext(ctx, "pinger service is shutting down, skipping start")

		return nil
	}

	go s.run(ctx)

	return nil
}

// Ready returns a channel that is closed when the pinger loop is running.
func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// Ping reports the pinger service itself as healthy once its loop runs.
func (s *Service) Ping(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ready:
		return nil
	default:
		return fmt.Errorf("pinger service is not ready")
	}
}

// Shutdown waits for the ping loop to exit.
func (s *Service) Shutdown(ctx context.Context) error {
	if !s.inShutdown.CompareAndSwap(false, true) {
		s.logger.ErrorContext(ctx, "pinger service is already shutting down, skipping shutdown")

		return nil
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("shutdown context done before pinger loop exited: %w", ctx.Err())
	case <-s.doneCh:
	}

	s.logger.InfoContext(ctx, "pinger service shut downed")

	return nil
}

// GetAllStats returns a snapshot of the statistics per component.
func (s *Service) GetAllStats() map[string]*Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*Statistics, len(s.stats))
	for name, stat := range s.stats {
		statCopy := *stat
		out[name] = &statCopy
	}

	return out
}

func (s *Service) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	close(s.ready)

	for {
		s.pingAll(ctx)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "terminating pinger loop")

			return
		}
	}
}

func (s *Service) pingAll(ctx context.Context) {
	s.mu.RLock()

	names := make([]string, 0, len(s.pingers))
	for name := range s.pingers {
		names = append(names, name)
	}

	s.mu.RUnlock()

	for _, name := range names {
		s.pingOne(ctx, name)
	}
}

func (s *Service) pingOne(ctx context.Context, name string) {
	s.mu.RLock()
	p := s.pingers[name]
	s.mu.RUnlock()

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	start := time.Now()
	err := p.Ping(pingCtx)
	latency := time.Since(start)

	s.mu.Lock()
	defer s.mu.Unlock()

	stat := s.stats[name]
	stat.Total++
	stat.LastPingAt = start
	stat.LastLatency = latency

	if err != nil {
		stat.Failures++
		stat.LastError = err.Error()

		s.logger.WarnContext(ctx, "component ping failed",
			"component", name,
			"reason", err,
			"latency", latency,
		)

		return
	}

	stat.LastError = ""
}
