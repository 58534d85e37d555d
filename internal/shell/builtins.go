package shell

import (
	"errors"
	"fmt"
	"os"
)

// errQuit asks the read loop to terminate the shell. Remaining jobs are left
// running and are not signalled.
var errQuit = errors.New("quit")

func (s *Shell) executeBuiltin(args []string) (bool, error) {
	switch args[0] {
	case "quit", "exit":
		return true, errQuit
	case "jobs":
		s.control.Jobs()
		return true, nil
	case "fg":
		return true, s.control.Fg(args[1:])
	case "bg":
		return true, s.control.Bg(args[1:])
	case "cd":
		return true, s.changeDirectory(args[1:])
	case "history":
		return true, s.showHistory()
	default:
		return false, nil
	}
}

func (s *Shell) changeDirectory(args []string) error {
	var dir string
	if len(args) == 0 {
		dir = s.config.HomeDir
	} else {
		dir = args[0]
	}

	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("cd: %w", err)
	}
	return nil
}

func (s *Shell) showHistory() error {
	for i, cmd := range s.history.All() {
		fmt.Fprintf(s.out, "%d: %s\n", i+1, cmd)
	}
	return nil
}
