package autoscaler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skillcoder/replica-autoscaler/internal/infra/metrics"
)

// Options carries the loop configuration shared by all targets.
type Options struct {
	Interval      time.Duration
	CycleTimeout  time.Duration
	LabelSelector string
	Stabilization StabilizationConfig
}

// Service runs the evaluation loop over all managed targets.
type Service struct {
	logger         *slog.Logger
	repo           ScaleRepository
	resourceSource MetricSource
	customSource   MetricSource
	cron           CronNexter
	opts           Options

	// states is keyed by namespace/name; only touched between concurrent
	// evaluations, each of which owns exactly one State.
	states map[string]*State

	ready                chan struct{}
	doneCh               chan struct{}
	inShutdown           atomic.Bool
	mu                   sync.RWMutex
	lastReconcileEndTime time.Time
}

// New creates a new autoscaler service. customSource may be nil when no
// Prometheus endpoint is configured.
func New(
	logger *slog.Logger,
	repo ScaleRepository,
	resourceSource MetricSource,
	customSource MetricSource,
	cron CronNexter,
	opts Options,
) *Service {
	return &Service{
		logger:         logger,
		repo:           repo,
		resourceSource: resourceSource,
		customSource:   customSource,
		cron:           cron,
		opts:           opts,
		states:         make(map[string]*State),
		ready:          make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

func (s *Service) Start(ctx context.Context) error {
	if s.inShutdown.Load() {
		s.logger.InfoContext(ctx, "autoscaler service is shutting down, skipping start")

		return nil
	}

	go s.RunCommand(ctx)

	return nil
}

// Name returns the name of the server component
func (s *Service) Name() string {
	return "replica-autoscaler"
}

func (s *Service) Ping(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ready:
		lastReconcileAge := s.getLastReconcileAge()
		if lastReconcileAge > 2*s.opts.Interval {
			return fmt.Errorf("last reconcile was too long ago: %s", lastReconcileAge.Round(time.Second).String())
		}

		return nil
	default:
		return fmt.Errorf("autoscaler service is not ready")
	}
}

func (s *Service) Shutdown(ctx context.Context) error {
	if !s.inShutdown.CompareAndSwap(false, true) {
		s.logger.ErrorContext(ctx, "autoscaler service is already shutting down, skipping shutdown")

		return nil // Already shutting down
	}

	defer func() {
		s.logger.InfoContext(ctx, "autoscaler service shut downed")
	}()

	s.logger.InfoContext(ctx, "shutting down autoscaler service")

	select {
	case <-ctx.Done():
		return fmt.Errorf("shutdown context done before autoscaler loop exited: %w", ctx.Err())
	case <-s.doneCh:
		s.logger.InfoContext(ctx, "autoscaler loop exited")
	}

	return nil
}

func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// RunCommand runs the evaluation loop with the configured interval.
func (s *Service) RunCommand(ctx context.Context) {
	defer close(s.doneCh)

	logger := s.logger.With("autoscaler", "RunCommand")

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	close(s.ready)

	for {
		err := s.ReconcileCommand(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "reconcile error", "reason", err)
		}

		s.setLastReconcileEndTime()

		select {
		case <-ticker.C:
		case <-ctx.Done():
			logger.InfoContext(ctx, "terminating main autoscaler loop")

			return
		}
	}
}

// ReconcileCommand runs one evaluation cycle over all managed targets.
// Targets evaluate concurrently; each owns its per-target State, so there is
// no shared mutable state between them.
func (s *Service) ReconcileCommand(ctx context.Context) error {
	logger := s.logger.With("autoscaler", "ReconcileCommand")

	targets, err := s.repo.ListTargetsQuery(ctx, s.opts.LabelSelector)
	if err != nil {
		return fmt.Errorf("list targets: %w", err)
	}

	logger.DebugContext(ctx, "starting to evaluate targets", "count", len(targets))

	s.syncStates(targets)

	var wg sync.WaitGroup

	for i := range targets {
		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "context done, stopping reconciliation")

			return nil
		default:
		}

		target := targets[i]
		state := s.states[stateKey(target)]

		wg.Add(1)

		go func() {
			defer wg.Done()

			s.evaluateTarget(ctx, logger, target, state)
		}()
	}

	wg.Wait()

	logger.InfoContext(ctx, "targets evaluated", "count", len(targets))

	return nil
}

// evaluateTarget runs one full cycle for one target:
// poll -> aggregate -> decide -> stabilize -> actuate.
func (s *Service) evaluateTarget(
	ctx context.Context,
	logger *slog.Logger,
	target Target,
	state *State,
) {
	logger = logger.With("target", target.Name, "namespace", target.Namespace)

	ctx, cancel := context.WithTimeout(ctx, s.opts.CycleTimeout)
	defer cancel()

	metrics.RecordEvaluation(target.Namespace, target.Name)

	err := s.evaluateCycle(ctx, logger, target, state)
	if err != nil {
		switch {
		case errors.Is(err, ErrMetricUnavailable):
			metrics.RecordCycleSkipped(target.Namespace, target.Name, "metric_unavailable")
			logger.WarnContext(ctx, "metric unavailable, cycle skipped", "reason", err)
		case errors.Is(err, ErrInsufficientData):
			metrics.RecordCycleSkipped(target.Namespace, target.Name, "insufficient_data")
			logger.WarnContext(ctx, "insufficient data, cycle skipped", "reason", err)
		case errors.Is(err, ErrActuationConflict):
			metrics.RecordActuationConflict(target.Namespace, target.Name)
			logger.ErrorContext(ctx, "actuation conflict, cycle failed", "reason", err)
		default:
			metrics.RecordCycleSkipped(target.Namespace, target.Name, "error")
			logger.ErrorContext(ctx, "evaluate target error", "reason", err)
		}
	}
}

func (s *Service) evaluateCycle(
	ctx context.Context,
	logger *slog.Logger,
	target Target,
	state *State,
) error {
	cfg, err := resolveTargetConfig(target)
	if err != nil {
		return fmt.Errorf("resolve target config: %w", err)
	}

	bounds := cfg.Bounds

	now := time.Now()

	floor, err := scheduledFloor(s.cron, cfg.Schedule, now)
	if err != nil {
		return fmt.Errorf("scheduled floor: %w", err)
	}

	if floor > bounds.Min {
		bounds.Min = floor
		if bounds.Min > bounds.Max {
			bounds.Min = bounds.Max
		}
	}

	values := make([]metricValue, 0, len(cfg.Metrics))

	for i := range cfg.Metrics {
		value, err := s.observeMetric(ctx, target, cfg.Metrics[i])
		if err != nil {
			return err
		}

		values = append(values, metricValue{spec: cfg.Metrics[i], value: value})

		logger.DebugContext(ctx, "metric observed",
			"metric", cfg.Metrics[i].Name,
			"value", value,
			"targetValue", cfg.Metrics[i].TargetValue,
		)
	}

	decision := decide(now, target.Replicas, values, bounds)

	state.prune(now, s.opts.Stabilization)
	state.record(decision)

	stabilized := clamp(
		state.stabilize(now, decision, target.Replicas, s.opts.Stabilization),
		bounds,
	)

	metrics.SetReplicas(target.Namespace, target.Name, target.Replicas, stabilized)

	if stabilized == target.Replicas {
		logger.DebugContext(ctx, "no replica change",
			"replicas", target.Replicas,
			"metric", decision.Metric,
		)

		return nil
	}

	if stabilized < decision.Desired && decision.Desired < target.Replicas {
		metrics.RecordScaleDownSuppressed(target.Namespace, target.Name)
	}

	return s.applyScale(ctx, logger, target, decision.Metric, stabilized)
}

// observeMetric polls one metric and aggregates its samples.
func (s *Service) observeMetric(
	ctx context.Context,
	target Target,
	spec MetricSpec,
) (float64, error) {
	source := s.resourceSource
	if spec.Name == MetricCustom {
		source = s.customSource
	}

	if source == nil {
		return 0, fmt.Errorf("%w: no source for metric %s", ErrMetricUnavailable, spec.Name)
	}

	samples, err := source.Poll(ctx, target, spec)
	if err != nil {
		var unavailableTarget unavailable
		if errors.As(err, &unavailableTarget) {
			return 0, fmt.Errorf("%w: %s: %w", ErrMetricUnavailable, spec.Name, err)
		}

		return 0, fmt.Errorf("poll %s: %w", spec.Name, err)
	}

	value, err := aggregate(samples, spec)
	if err != nil {
		return 0, fmt.Errorf("aggregate %s: %w", spec.Name, err)
	}

	return value, nil
}

func (s *Service) applyScale(
	ctx context.Context,
	logger *slog.Logger,
	target Target,
	triggeringMetric string,
	replicas int32,
) error {
	err := s.repo.ApplyScaleCommand(ctx, target.Namespace, target.Name, replicas)
	if err != nil {
		var conflictTarget conflict
		if errors.As(err, &conflictTarget) {
			return fmt.Errorf("%w: %w", ErrActuationConflict, err)
		}

		var notFoundTarget notFound
		if errors.As(err, &notFoundTarget) {
			logger.DebugContext(ctx, "target not found when scaling")

			return nil
		}

		var tooManyRequestsTarget tooManyRequests
		if errors.As(err, &tooManyRequestsTarget) {
			logger.DebugContext(ctx, "too many requests when scaling, will retry later")

			return nil
		}

		return fmt.Errorf("%w: %w", ErrApplyScale, err)
	}

	metrics.RecordScale(target.Namespace, target.Name, target.Replicas, replicas)

	logger.InfoContext(ctx, "target scaled",
		"from", target.Replicas,
		"to", replicas,
		"metric", triggeringMetric,
	)

	// best-effort operator breadcrumb on the workload itself
	lastScale := fmt.Sprintf("%s from=%d to=%d", time.Now().UTC().Format(time.RFC3339), target.Replicas, replicas)

	err = s.repo.SetAnnotationCommand(ctx, target.Namespace, target.Name, AnnotationLastScaleKey, lastScale)
	if err != nil {
		logger.WarnContext(ctx, "set last-scale annotation failed", "reason", err)
	}

	return nil
}

// syncStates creates states for new targets and drops states of removed ones.
func (s *Service) syncStates(targets []Target) {
	seen := make(map[string]struct{}, len(targets))

	for i := range targets {
		key := stateKey(targets[i])
		seen[key] = struct{}{}

		if _, ok := s.states[key]; !ok {
			s.states[key] = NewState()
		}
	}

	for key := range s.states {
		if _, ok := seen[key]; !ok {
			delete(s.states, key)
		}
	}
}

func stateKey(target Target) string {
	return target.Namespace + "/" + target.Name
}

func (s *Service) getLastReconcileAge() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return time.Since(s.lastReconcileEndTime)
}

func (s *Service) setLastReconcileEndTime() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastReconcileEndTime = time.Now()
}
