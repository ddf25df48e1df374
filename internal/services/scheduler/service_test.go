package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestRegisterJobValidation(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	require.Error(t, svc.RegisterJob("", "* * * * *", func() error { return nil }))
	require.Error(t, svc.RegisterJob("bad-schedule", "not a cron expr", func() error { return nil }))

	require.NoError(t, svc.RegisterJob("sweep", "0 6 * * *", func() error { return nil }))
	require.Error(t, svc.RegisterJob("sweep", "0 6 * * *", func() error { return nil }), "duplicate name must fail")
}

func TestTriggerJobRecordsOutcome(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	var runs atomic.Int64
	require.NoError(t, svc.RegisterJob("ok", "0 6 * * *", func() error {
		runs.Add(1)
		return nil
	}))
	require.NoError(t, svc.RegisterJob("failing", "0 6 * * *", func() error {
		return errors.New("sweep broken")
	}))

	require.NoError(t, svc.TriggerJob("ok"))
	require.NoError(t, svc.TriggerJob("failing"))
	require.Error(t, svc.TriggerJob("missing"))

	require.Equal(t, int64(1), runs.Load())

	jobs := svc.Jobs()
	require.Len(t, jobs, 2)
	require.Equal(t, "failing", jobs[0].Name)
	require.Equal(t, int64(1), jobs[0].Failures)
	require.Equal(t, "ok", jobs[1].Name)
	require.Equal(t, int64(1), jobs[1].Runs)
	require.Equal(t, int64(0), jobs[1].Failures)
	require.False(t, jobs[1].LastRun.IsZero())
}

func TestPanicInJobIsRecovered(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	require.NoError(t, svc.RegisterJob("panicky", "0 6 * * *", func() error {
		panic("boom")
	}))

	require.NoError(t, svc.TriggerJob("panicky"))
	jobs := svc.Jobs()
	require.Equal(t, int64(1), jobs[0].Failures)
}

func TestStartStop(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	require.NoError(t, svc.RegisterJob("sweep", "0 6 * * *", func() error { return nil }))

	require.NoError(t, svc.Start())
	require.Error(t, svc.Start(), "double start must fail")

	jobs := svc.Jobs()
	require.False(t, jobs[0].NextRun.IsZero(), "running scheduler exposes next run")

	svc.Stop()
	svc.Stop()
}
