//go:build unix

package jobs

import (
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"tsh/internal/proc"
)

func launchSleep(t *testing.T, reg *Registry) Job {
	t.Helper()
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skipf("sleep not available: %v", err)
	}
	c, err := (&proc.Spawner{}).Prepare(proc.Pipeline{Stages: [][]string{{"sleep", "10"}}, Background: true})
	require.NoError(t, err)
	defer c.Close()

	job, err := reg.Launch(Background, "sleep 10", c.Start)
	require.NoError(t, err)
	return job
}

func reapUntilGone(t *testing.T, ctl *Controller, reg *Registry, pid int) {
	t.Helper()
	require.NoError(t, proc.Kernel{}.SignalGroup(pid, unix.SIGKILL))
	require.Eventually(t, func() bool {
		ctl.Reap()
		_, ok := reg.ByPID(pid)
		return !ok
	}, 5*time.Second, 5*time.Millisecond)
}

func TestReapKeepsStoppedProcess(t *testing.T) {
	reg := newTestRegistry(t)
	out := &syncBuffer{}
	ctl := NewController(reg, proc.Kernel{}, proc.Kernel{}, Options{Out: out, Logger: testLogger()})
	job := launchSleep(t, reg)

	require.NoError(t, proc.Kernel{}.SignalGroup(job.PID, unix.SIGSTOP))
	for n := 0; n < 20; n++ {
		assert.Zero(t, ctl.Reap())
		time.Sleep(5 * time.Millisecond)
	}

	got, ok := reg.ByPID(job.PID)
	require.True(t, ok, "a stopped job must stay registered")
	assert.Equal(t, Background, got.State)
	assert.Empty(t, out.String())

	reapUntilGone(t, ctl, reg, job.PID)
}

func TestReapRecordsStopWhenReported(t *testing.T) {
	reg := newTestRegistry(t)
	out := &syncBuffer{}
	ctl := NewController(reg, proc.Kernel{}, proc.Kernel{ReportStops: true}, Options{Out: out, Logger: testLogger(), AccurateStopNotice: true})
	job := launchSleep(t, reg)

	require.NoError(t, proc.Kernel{}.SignalGroup(job.PID, unix.SIGSTOP))
	require.Eventually(t, func() bool {
		ctl.Reap()
		got, ok := reg.ByPID(job.PID)
		return ok && got.State == Stopped
	}, 5*time.Second, 5*time.Millisecond)
	assert.Contains(t, out.String(), fmt.Sprintf("Stopped by signal %d\n", int(unix.SIGSTOP)))

	reapUntilGone(t, ctl, reg, job.PID)
}
