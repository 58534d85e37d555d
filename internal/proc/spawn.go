//go:build unix

package proc

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// ErrNotFound is returned when a stage names a program that cannot be found.
var ErrNotFound = errors.New("Command not found")

// Pipeline is a parsed command line: one or more stages connected by pipes,
// with optional redirection of the first stage's input and the last stage's
// output.
type Pipeline struct {
	Stages     [][]string
	Input      string
	Output     string
	Background bool
}

// Name returns the program name of the first stage.
func (p Pipeline) Name() string {
	if len(p.Stages) == 0 || len(p.Stages[0]) == 0 {
		return ""
	}
	return p.Stages[0][0]
}

// Spawner starts pipelines as new process groups. When Terminal is set, a
// foreground pipeline's group is given the terminal before the leader runs.
type Spawner struct {
	Stdin    *os.File
	Stdout   *os.File
	Stderr   *os.File
	Terminal *Terminal
}

// Prepared is a pipeline whose redirections are open. Opening a file can
// block, on a FIFO without a peer for instance, so it is kept apart from
// starting the processes.
type Prepared struct {
	spawner *Spawner
	p       Pipeline
	in      *os.File
	out     *os.File
	files   []*os.File
}

// Prepare opens the redirection files of p.
func (s *Spawner) Prepare(p Pipeline) (*Prepared, error) {
	if len(p.Stages) == 0 {
		return nil, errors.New("empty pipeline")
	}
	c := &Prepared{spawner: s, p: p, in: s.Stdin, out: s.Stdout}
	if p.Background {
		c.in = nil
	}
	if p.Input != "" {
		f, err := os.Open(p.Input)
		if err != nil {
			return nil, err
		}
		c.files = append(c.files, f)
		c.in = f
	}
	if p.Output != "" {
		f, err := os.OpenFile(p.Output, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		c.files = append(c.files, f)
		c.out = f
	}
	return c, nil
}

// Close releases the redirection files. Started children keep their own
// descriptors.
func (c *Prepared) Close() error {
	var errs []error
	for _, f := range c.files {
		errs = append(errs, f.Close())
	}
	c.files = nil
	return errors.Join(errs...)
}

// Start launches every stage in one new process group and returns the pids
// in stage order; the first is the group leader. The children are not
// waited on here, they are collected by a Waiter. If a stage fails to start,
// the stages already running are killed.
func (c *Prepared) Start() (pids []int, err error) {
	var pipes []*os.File
	defer func() {
		for _, f := range pipes {
			_ = f.Close()
		}
	}()

	pgid := 0
	defer func() {
		if err != nil && pgid > 0 {
			_ = unix.Kill(-pgid, unix.SIGKILL)
		}
	}()

	in := c.in
	for i, argv := range c.p.Stages {
		if len(argv) == 0 {
			return pids, errors.New("empty command in pipeline")
		}
		path, err := exec.LookPath(argv[0])
		if err != nil {
			return pids, fmt.Errorf("%s: %w", argv[0], ErrNotFound)
		}

		stdout := c.out
		var next *os.File
		if i < len(c.p.Stages)-1 {
			r, w, err := os.Pipe()
			if err != nil {
				return pids, err
			}
			pipes = append(pipes, r, w)
			stdout = w
			next = r
		}

		cmd := exec.Command(path, argv[1:]...)
		cmd.Args[0] = argv[0]
		if in != nil {
			cmd.Stdin = in
		}
		if stdout != nil {
			cmd.Stdout = stdout
		}
		if c.spawner.Stderr != nil {
			cmd.Stderr = c.spawner.Stderr
		}
		cmd.SysProcAttr = c.procAttr(pgid)
		if err := cmd.Start(); err != nil {
			return pids, fmt.Errorf("%s: %w", argv[0], err)
		}

		pid := cmd.Process.Pid
		if pgid == 0 {
			pgid = pid
		}
		pids = append(pids, pid)
		// The child is reaped with wait4, never through cmd.Wait.
		_ = cmd.Process.Release()
		in = next
	}
	return pids, nil
}

// procAttr places a stage in the group pgid, or in a new group when pgid is
// zero. A new foreground group takes the terminal in the child before exec,
// so the leader never reads from a terminal it does not own.
func (c *Prepared) procAttr(pgid int) *syscall.SysProcAttr {
	attr := &syscall.SysProcAttr{Setpgid: true, Pgid: pgid}
	if pgid == 0 && !c.p.Background && c.spawner.Terminal != nil {
		attr.Foreground = true
		attr.Ctty = c.spawner.Terminal.Fd()
	}
	return attr
}
