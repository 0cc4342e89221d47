package autoscaler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testStabilizationConfig() StabilizationConfig {
	return StabilizationConfig{
		UpWindow:   0,
		DownWindow: 300 * time.Second,
		ScaleDown: ScaleDownPolicy{
			Percent: 100,
			Pods:    100,
			Period:  60 * time.Second,
		},
	}
}

func TestState_stabilize_scaleDownWindow(t *testing.T) {
	t.Parallel()

	cfg := testStabilizationConfig()
	state := NewState()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// spike: demand for 10 replicas recorded
	spike := ScalingDecision{Desired: 10, Timestamp: t0, Metric: MetricCPU}
	state.record(spike)
	require.Equal(t, int32(10), state.stabilize(t0, spike, 2, cfg))

	// utilization collapses right after the spike; the down window holds the line
	t1 := t0.Add(60 * time.Second)
	dip := ScalingDecision{Desired: 1, Timestamp: t1, Metric: MetricCPU}
	state.record(dip)
	require.Equal(t, int32(10), state.stabilize(t1, dip, 10, cfg))

	// still inside the window
	t2 := t0.Add(299 * time.Second)
	dip2 := ScalingDecision{Desired: 1, Timestamp: t2, Metric: MetricCPU}
	state.record(dip2)
	require.Equal(t, int32(10), state.stabilize(t2, dip2, 10, cfg))

	// window elapsed: the spike ages out and the low demand applies
	t3 := t0.Add(301 * time.Second)
	state.prune(t3, cfg)
	dip3 := ScalingDecision{Desired: 1, Timestamp: t3, Metric: MetricCPU}
	state.record(dip3)
	require.Equal(t, int32(1), state.stabilize(t3, dip3, 10, cfg))
}

func TestState_stabilize_scaleUpImmediate(t *testing.T) {
	t.Parallel()

	cfg := testStabilizationConfig()
	state := NewState()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	up := ScalingDecision{Desired: 6, Timestamp: now, Metric: MetricCPU}
	state.record(up)

	// zero up-window means increases pass through untouched
	require.Equal(t, int32(6), state.stabilize(now, up, 2, cfg))
}

func TestState_stabilize_upWindowHoldsSpikeMax(t *testing.T) {
	t.Parallel()

	cfg := testStabilizationConfig()
	cfg.UpWindow = 30 * time.Second

	state := NewState()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	state.record(ScalingDecision{Desired: 8, Timestamp: t0, Metric: MetricCPU})

	// a lower scale-up shortly after still emits the in-window maximum
	t1 := t0.Add(10 * time.Second)
	up := ScalingDecision{Desired: 5, Timestamp: t1, Metric: MetricCPU}
	state.record(up)
	require.Equal(t, int32(8), state.stabilize(t1, up, 3, cfg))
}

func TestState_scaleDownFloor_rateLimit(t *testing.T) {
	t.Parallel()

	cfg := testStabilizationConfig()
	cfg.ScaleDown = ScaleDownPolicy{
		Percent: 30,
		Pods:    2,
		Period:  60 * time.Second,
	}

	state := NewState()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// 30% of 10 allows removing 3, absolute policy allows 2:
	// the smaller decrease wins
	dip := ScalingDecision{Desired: 1, Timestamp: t0, Metric: MetricCPU}
	state.record(dip)
	require.Equal(t, int32(8), state.stabilize(t0, dip, 10, cfg))

	// within the same period the limit stays anchored to 10 replicas
	t1 := t0.Add(30 * time.Second)
	state.prune(t1, cfg)
	dip2 := ScalingDecision{Desired: 1, Timestamp: t1, Metric: MetricCPU}
	state.record(dip2)
	require.Equal(t, int32(8), state.stabilize(t1, dip2, 8, cfg))

	// a fresh period re-anchors on the new current count
	t2 := t0.Add(61 * time.Second)
	state.prune(t2, cfg)
	dip3 := ScalingDecision{Desired: 1, Timestamp: t2, Metric: MetricCPU}
	state.record(dip3)
	require.Equal(t, int32(6), state.stabilize(t2, dip3, 8, cfg))
}

func TestState_prune(t *testing.T) {
	t.Parallel()

	cfg := testStabilizationConfig()
	state := NewState()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	state.record(ScalingDecision{Desired: 5, Timestamp: t0})
	state.record(ScalingDecision{Desired: 3, Timestamp: t0.Add(200 * time.Second)})

	state.prune(t0.Add(301*time.Second), cfg)

	require.Len(t, state.decisions, 1)
	require.Equal(t, int32(3), state.decisions[0].Desired)
}
