package autoscaler

import "time"

// ScaleDownPolicy caps how fast a target may shrink within one period.
// Both limits are evaluated against the replica count at period start and
// the policy allowing the smaller decrease wins (select-min-change).
type ScaleDownPolicy struct {
	// Percent of period-start replicas removable per period.
	Percent int32
	// Pods is the absolute number of replicas removable per period.
	Pods   int32
	Period time.Duration
}

// StabilizationConfig holds the window durations and the scale-down policy
// shared by all targets.
type StabilizationConfig struct {
	// UpWindow dampens scale-up thrash on transient spikes. Usually short or zero.
	UpWindow time.Duration
	// DownWindow delays decreases: the highest desired count seen within it
	// is emitted, so a momentary dip never triggers a premature scale-down.
	DownWindow time.Duration
	ScaleDown  ScaleDownPolicy
}

// record appends a decision to the target's history.
func (s *State) record(d ScalingDecision) {
	s.decisions = append(s.decisions, d)
}

// prune drops history older than the longest stabilization window.
func (s *State) prune(now time.Time, cfg StabilizationConfig) {
	keep := cfg.DownWindow
	if cfg.UpWindow > keep {
		keep = cfg.UpWindow
	}

	cut := 0
	for cut < len(s.decisions) && now.Sub(s.decisions[cut].Timestamp) > keep {
		cut++
	}

	s.decisions = s.decisions[cut:]
}

// stabilize dampens the latest decision against recent history.
//
// Both directions emit the maximum desired value seen within their window:
// for scale-up this rides out transient spikes without thrashing, for
// scale-down it keeps capacity until the window has drained of higher
// demands. Decreases are additionally rate-limited by the scale-down policy.
func (s *State) stabilize(
	now time.Time,
	proposed ScalingDecision,
	current int32,
	cfg StabilizationConfig,
) int32 {
	window := cfg.UpWindow
	if proposed.Desired < current {
		window = cfg.DownWindow
	}

	stabilized := proposed.Desired

	for i := range s.decisions {
		if now.Sub(s.decisions[i].Timestamp) > window {
			continue
		}

		if s.decisions[i].Desired > stabilized {
			stabilized = s.decisions[i].Desired
		}
	}

	if stabilized < current {
		floor := s.scaleDownFloor(now, current, cfg.ScaleDown)
		if stabilized < floor {
			stabilized = floor
		}
	}

	return stabilized
}

// scaleDownFloor returns the lowest replica count the rate limiter allows
// this period. The period anchors on the first decrease attempt after the
// previous period elapsed.
func (s *State) scaleDownFloor(
	now time.Time,
	current int32,
	policy ScaleDownPolicy,
) int32 {
	if s.periodStart.IsZero() || now.Sub(s.periodStart) >= policy.Period {
		s.periodStart = now
		s.periodStartReplicas = current
	}

	byPercent := s.periodStartReplicas - s.periodStartReplicas*policy.Percent/percentScale
	byPods := s.periodStartReplicas - policy.Pods

	// higher floor means smaller decrease, the more conservative policy
	floor := byPercent
	if byPods > floor {
		floor = byPods
	}

	if floor < 0 {
		floor = 0
	}

	return floor
}
