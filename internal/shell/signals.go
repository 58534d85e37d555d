package shell

import (
	"fmt"
	"os/signal"

	"golang.org/x/sys/unix"
)

// setupSignalHandling routes terminal and child signals to a single
// goroutine, which runs the relay and reaper while the read loop may be
// blocked waiting on a foreground job.
func (s *Shell) setupSignalHandling() {
	signal.Notify(s.signalChan, unix.SIGINT, unix.SIGTSTP, unix.SIGCHLD, unix.SIGQUIT)
	go s.handleSignals()
}

func (s *Shell) stopSignalHandling() {
	signal.Stop(s.signalChan)
}

func (s *Shell) handleSignals() {
	for sig := range s.signalChan {
		switch sig {
		case unix.SIGINT:
			s.control.Interrupt()
		case unix.SIGTSTP:
			s.control.Suspend()
		case unix.SIGCHLD:
			s.control.Reap()
		case unix.SIGQUIT:
			fmt.Fprintln(s.out, "Terminating after receipt of SIGQUIT signal")
			s.exit(1)
		}
	}
}
