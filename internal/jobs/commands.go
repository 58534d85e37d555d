package jobs

import (
	"errors"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

var (
	ErrInvalidArgs = errors.New("Invalid arguments for fg/bg")
	ErrNoSuchJob   = errors.New("Could not find that JOB")
)

// Target names a job either by job id (%<jid>) or by pid.
type Target struct {
	JID int
	PID int
}

// ParseTarget parses a fg/bg argument.
func ParseTarget(arg string) (Target, error) {
	if rest, ok := strings.CutPrefix(arg, "%"); ok {
		jid, err := strconv.Atoi(rest)
		if err != nil || jid < 1 {
			return Target{}, ErrInvalidArgs
		}
		return Target{JID: jid}, nil
	}
	pid, err := strconv.Atoi(arg)
	if err != nil || pid < 1 {
		return Target{}, ErrInvalidArgs
	}
	return Target{PID: pid}, nil
}

func (c *Controller) resolve(args []string) (Job, error) {
	if len(args) == 0 {
		return Job{}, ErrInvalidArgs
	}
	t, err := ParseTarget(args[0])
	if err != nil {
		return Job{}, err
	}
	var (
		job Job
		ok  bool
	)
	if t.JID != 0 {
		job, ok = c.reg.ByJID(t.JID)
	} else {
		job, ok = c.reg.ByPID(t.PID)
	}
	if !ok {
		return Job{}, ErrNoSuchJob
	}
	return job, nil
}

// Jobs prints the job table.
func (c *Controller) Jobs() {
	for _, line := range c.reg.List() {
		c.printf("%s\n", line)
	}
}

// Bg resumes the target job in the background.
func (c *Controller) Bg(args []string) error {
	job, err := c.resolve(args)
	if err != nil {
		return err
	}
	c.signal(job.PID, unix.SIGCONT)
	if _, ok := c.reg.SetState(job.PID, Background); !ok {
		return nil
	}
	c.printf("Job [%d] (%d) %s\n", job.JID, job.PID, job.Cmdline)
	return nil
}

// Fg resumes the target job in the foreground and blocks until it is no
// longer the foreground job.
func (c *Controller) Fg(args []string) error {
	job, err := c.resolve(args)
	if err != nil {
		return err
	}
	c.give(job.PID)
	c.signal(job.PID, unix.SIGCONT)
	if _, ok := c.reg.SetState(job.PID, Foreground); !ok {
		c.Reclaim()
		return nil
	}
	c.Wait(job.PID)
	return nil
}
