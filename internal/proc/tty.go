//go:build unix

package proc

import (
	"fmt"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Terminal passes the controlling terminal between the shell's process
// group and a job's. Taking it back also restores the terminal modes the
// shell started with.
type Terminal struct {
	fd    int
	pgid  int
	modes *term.State
}

// OpenTerminal returns the terminal behind f. It reports false when f is
// not a terminal.
func OpenTerminal(f *os.File) (*Terminal, bool) {
	if f == nil {
		return nil, false
	}
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, false
	}
	modes, err := term.GetState(fd)
	if err != nil {
		return nil, false
	}
	return &Terminal{fd: fd, pgid: unix.Getpgrp(), modes: modes}, true
}

// Fd returns the terminal's descriptor in the shell process.
func (t *Terminal) Fd() int {
	return t.fd
}

// Give makes pgid the terminal's foreground process group.
func (t *Terminal) Give(pgid int) error {
	if err := unix.IoctlSetPointerInt(t.fd, unix.TIOCSPGRP, pgid); err != nil {
		return fmt.Errorf("give terminal to %d: %w", pgid, err)
	}
	return nil
}

// Reclaim puts the shell's process group back in the foreground.
func (t *Terminal) Reclaim() error {
	// tcsetpgrp from a background group raises SIGTTOU unless it is ignored.
	signal.Ignore(unix.SIGTTOU)
	defer signal.Reset(unix.SIGTTOU)

	if err := unix.IoctlSetPointerInt(t.fd, unix.TIOCSPGRP, t.pgid); err != nil {
		return fmt.Errorf("reclaim terminal: %w", err)
	}
	if err := term.Restore(t.fd, t.modes); err != nil {
		return fmt.Errorf("restore terminal modes: %w", err)
	}
	return nil
}
