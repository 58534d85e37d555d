package jobs

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"syscall"

	"tsh/internal/proc"
)

// Options configures a Controller.
type Options struct {
	Out    io.Writer
	Logger *slog.Logger
	// AccurateStopNotice prints "Stopped by signal" instead of the
	// compatible "Terminated by signal" when a job is suspended.
	AccurateStopNotice bool
	// Terminal, when set, is handed to a job while it runs in the
	// foreground.
	Terminal proc.TTY
}

// Controller runs the job control operations against a Registry. The reaper
// and relay methods are invoked from the signal goroutine while the builtin
// methods run on the read loop.
type Controller struct {
	reg          *Registry
	signals      proc.Signaler
	waiter       proc.Waiter
	tty          proc.TTY
	log          *slog.Logger
	accurateStop bool

	outMu sync.Mutex
	out   io.Writer
}

func NewController(reg *Registry, signals proc.Signaler, waiter proc.Waiter, opts Options) *Controller {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Controller{
		reg:          reg,
		signals:      signals,
		waiter:       waiter,
		tty:          opts.Terminal,
		log:          opts.Logger,
		accurateStop: opts.AccurateStopNotice,
		out:          opts.Out,
	}
}

func (c *Controller) printf(format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// signal delivers sig to the group led by pid. A group that has already
// vanished lost a race with the reaper and is not an error.
func (c *Controller) signal(pid int, sig syscall.Signal) {
	err := c.signals.SignalGroup(pid, sig)
	switch {
	case err == nil:
		c.log.Debug("signal relayed", "pid", pid, "signal", int(sig))
	case proc.Gone(err):
		c.log.Debug("signal target already gone", "pid", pid, "signal", int(sig))
	default:
		c.log.Warn("signal delivery failed", "pid", pid, "signal", int(sig), "error", err)
	}
}

// Wait blocks until the job led by pid leaves the foreground, then takes
// the terminal back.
func (c *Controller) Wait(pid int) {
	c.reg.WaitForeground(pid)
	c.Reclaim()
}

// Reclaim returns the terminal to the shell. Without a terminal it does
// nothing.
func (c *Controller) Reclaim() {
	if c.tty == nil {
		return
	}
	if err := c.tty.Reclaim(); err != nil {
		c.log.Warn("reclaim terminal failed", "error", err)
	}
}

func (c *Controller) give(pid int) {
	if c.tty == nil {
		return
	}
	if err := c.tty.Give(pid); err != nil {
		c.log.Warn("hand terminal to job failed", "pid", pid, "error", err)
	}
}

func (c *Controller) stopNotice(job Job, sig syscall.Signal) {
	verb := "Terminated"
	if c.accurateStop {
		verb = "Stopped"
	}
	c.printf("Job [%d] (%d) %s by signal %d\n", job.JID, job.PID, verb, int(sig))
}
