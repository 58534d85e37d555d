package jobs

import "golang.org/x/sys/unix"

// Interrupt forwards SIGINT to the foreground job's process group and
// deletes the job. Without a foreground job it does nothing.
func (c *Controller) Interrupt() {
	job, ok := c.reg.Foreground()
	if !ok {
		return
	}
	c.signal(job.PID, unix.SIGINT)
	if !c.reg.Remove(job.PID) {
		// Already reaped.
		return
	}
	c.printf("Job [%d] (%d) Terminated by signal %d\n", job.JID, job.PID, int(unix.SIGINT))
}

// Suspend forwards SIGTSTP to the foreground job's process group and marks
// the job stopped. Without a foreground job it does nothing.
func (c *Controller) Suspend() {
	job, ok := c.reg.Foreground()
	if !ok {
		return
	}
	c.signal(job.PID, unix.SIGTSTP)
	if _, ok := c.reg.SetState(job.PID, Stopped); !ok {
		return
	}
	c.stopNotice(job, unix.SIGTSTP)
}
