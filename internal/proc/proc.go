//go:build unix

// Package proc is the shell's boundary with the kernel: signalling process
// groups, collecting exited children and starting new process groups.
package proc

import (
	"errors"
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// Signaler delivers a signal to every process of a process group.
type Signaler interface {
	SignalGroup(pgid int, sig syscall.Signal) error
}

// Exit describes a reaped child.
type Exit struct {
	PID    int
	Status unix.WaitStatus
}

// Waiter collects exited children without blocking. It returns a zero PID
// when children exist but none has exited.
type Waiter interface {
	WaitNoHang() (Exit, error)
}

// TTY hands a terminal's foreground to a job's process group and back to
// the shell.
type TTY interface {
	Give(pgid int) error
	Reclaim() error
}

// Kernel implements Signaler and Waiter with real system calls. With
// ReportStops set, stopped children are reported as well as exited ones.
type Kernel struct {
	ReportStops bool
}

func (Kernel) SignalGroup(pgid int, sig syscall.Signal) error {
	if pgid < 1 {
		return fmt.Errorf("signal group %d: %w", pgid, unix.EINVAL)
	}
	if err := unix.Kill(-pgid, sig); err != nil {
		return fmt.Errorf("kill -%d %d: %w", int(sig), pgid, err)
	}
	return nil
}

// WaitNoHang waits for any child that has terminated, and for stopped
// children when ReportStops is set.
func (k Kernel) WaitNoHang() (Exit, error) {
	options := unix.WNOHANG
	if k.ReportStops {
		options |= unix.WUNTRACED
	}
	var status unix.WaitStatus
	for {
		pid, err := unix.Wait4(-1, &status, options, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return Exit{}, err
		}
		return Exit{PID: pid, Status: status}, nil
	}
}

// Gone reports whether err means the target process no longer exists, which
// is expected when racing with the reaper.
func Gone(err error) bool {
	return errors.Is(err, unix.ESRCH)
}

// NoChildren reports whether err means there is nothing left to wait for.
func NoChildren(err error) bool {
	return errors.Is(err, unix.ECHILD)
}
