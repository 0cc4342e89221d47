package autoscaler

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// stubNexter returns a fixed next occurrence or error regardless of the spec.
type stubNexter struct {
	next time.Time
	err  error
}

func (s stubNexter) NextAfter(_, _ string, _ time.Time) (time.Time, error) {
	return s.next, s.err
}

func Test_scheduledFloor(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

	sched := &ScheduleSpec{
		Cron:        "0 9 * * *",
		Duration:    time.Hour,
		MinReplicas: 4,
	}

	t.Run("nil schedule means no floor", func(t *testing.T) {
		t.Parallel()

		floor, err := scheduledFloor(stubNexter{}, nil, now)
		require.NoError(t, err)
		require.Equal(t, int32(0), floor)
	})

	t.Run("occurrence inside window activates the floor", func(t *testing.T) {
		t.Parallel()

		// 09:00 falls between (now - 1h) and now
		nexter := stubNexter{next: now.Add(-30 * time.Minute)}

		floor, err := scheduledFloor(nexter, sched, now)
		require.NoError(t, err)
		require.Equal(t, int32(4), floor)
	})

	t.Run("next occurrence still ahead means inactive", func(t *testing.T) {
		t.Parallel()

		nexter := stubNexter{next: now.Add(2 * time.Hour)}

		floor, err := scheduledFloor(nexter, sched, now)
		require.NoError(t, err)
		require.Equal(t, int32(0), floor)
	})

	t.Run("parser error is wrapped", func(t *testing.T) {
		t.Parallel()

		nexter := stubNexter{err: errors.New("bad spec")}

		_, err := scheduledFloor(nexter, sched, now)
		require.ErrorIs(t, err, ErrScheduleParse)
	})
}
