package autoscaler

import (
	"fmt"
	"time"
)

// scheduledFloor returns the minimum replica floor the cron schedule demands
// right now, or 0 when no schedule is configured or the window is inactive.
//
// The window is active when a cron occurrence fell within the last
// sched.Duration, i.e. the next occurrence after (now - duration) has
// already passed.
func scheduledFloor(nexter CronNexter, sched *ScheduleSpec, now time.Time) (int32, error) {
	if sched == nil {
		return 0, nil
	}

	next, err := nexter.NextAfter(sched.Cron, sched.TZ, now.Add(-sched.Duration))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrScheduleParse, err)
	}

	if next.IsZero() || next.After(now) {
		return 0, nil
	}

	return sched.MinReplicas, nil
}
