package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduler_ScheduleEvery(t *testing.T) {
	t.Run("returns job id for valid interval", func(t *testing.T) {
		s, err := NewScheduler(nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop(context.Background()) })

		id, err := s.ScheduleEvery("test", 10*time.Second, func() {})
		require.NoError(t, err)
		require.NotEmpty(t, id)
	})

	t.Run("rejects non-positive interval", func(t *testing.T) {
		s, err := NewScheduler(nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop(context.Background()) })

		_, err = s.ScheduleEvery("test", 0, func() {})
		require.Error(t, err)
	})

	t.Run("runs immediately once started", func(t *testing.T) {
		s, err := NewScheduler(nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop(context.Background()) })

		ran := make(chan struct{}, 1)
		_, err = s.ScheduleEvery("test", time.Hour, func() {
			select {
			case ran <- struct{}{}:
			default:
			}
		})
		require.NoError(t, err)
		s.Start(context.Background())

		select {
		case <-ran:
		case <-time.After(5 * time.Second):
			t.Fatal("task did not run")
		}
	})
}

func TestScheduler_Reschedule(t *testing.T) {
	s, err := NewScheduler(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	_, err = s.Reschedule("not-a-uuid", "test", time.Minute, func() {})
	require.Error(t, err)

	id, err := s.ScheduleEvery("test", time.Minute, func() {})
	require.NoError(t, err)
	_, err = s.Reschedule(id, "test", 0, func() {})
	require.Error(t, err)

	_, err = s.NextRun("00000000-0000-0000-0000-000000000000")
	require.Error(t, err)
}
