package jobs

import (
	"golang.org/x/sys/unix"

	"tsh/internal/proc"
)

type reaped struct {
	exit    proc.Exit
	job     Job
	deleted bool
	stopped bool
}

// Reap collects every child whose status has changed so far, without
// blocking. Exited children are dropped from the registry. A stopped child
// only reaches here when the Waiter reports stops; its job is marked stopped
// and kept. It returns the number of status changes collected.
func (c *Controller) Reap() int {
	n := 0
	for {
		r, err := c.reapOne()
		if err != nil {
			if !proc.NoChildren(err) {
				c.log.Warn("wait for children failed", "error", err)
			}
			return n
		}
		if r.exit.PID <= 0 {
			return n
		}
		n++

		status := r.exit.Status
		switch {
		case status.Stopped():
			if r.stopped {
				c.log.Debug("job stopped", "pid", r.exit.PID, "jid", r.job.JID, "signal", int(status.StopSignal()))
				c.stopNotice(r.job, status.StopSignal())
			}
		case r.deleted:
			c.log.Debug("child reaped", "pid", r.exit.PID, "jid", r.job.JID, "status", status.ExitStatus())
			// A pipeline stage dying of SIGPIPE is routine.
			if status.Signaled() && status.Signal() != unix.SIGPIPE {
				c.printf("Job [%d] (%d) Terminated by signal %d\n", r.job.JID, r.job.PID, int(status.Signal()))
			}
		case r.job.JID != 0:
			c.log.Debug("pipeline member reaped", "pid", r.exit.PID, "jid", r.job.JID, "remaining", len(r.job.Members))
		default:
			c.log.Debug("reaped untracked child", "pid", r.exit.PID)
		}
	}
}

// reapOne waits with the registry locked. Launch holds the same lock while
// it builds a process group, so no member, in particular the group leader,
// can be collected before the whole group is started and registered.
func (c *Controller) reapOne() (reaped, error) {
	c.reg.mu.Lock()
	defer c.reg.mu.Unlock()

	exit, err := c.waiter.WaitNoHang()
	if err != nil || exit.PID <= 0 {
		return reaped{exit: exit}, err
	}
	r := reaped{exit: exit}
	if exit.Status.Stopped() {
		r.job, r.stopped = c.reg.stopMemberLocked(exit.PID)
		return r, nil
	}
	r.job, r.deleted = c.reg.reapMemberLocked(exit.PID)
	return r, nil
}
