package shell

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"tsh/internal/config"
	"tsh/internal/history"
	"tsh/internal/jobs"
	"tsh/internal/proc"
)

type Shell struct {
	config     *config.Config
	history    *history.History
	registry   *jobs.Registry
	control    *jobs.Controller
	spawner    *proc.Spawner
	signalChan chan os.Signal
	reader     lineReader
	out        io.Writer
	log        *slog.Logger
	exit       func(int)
}

// deps are the pieces of a Shell that touch the terminal or the kernel.
type deps struct {
	signals  proc.Signaler
	waiter   proc.Waiter
	spawner  *proc.Spawner
	terminal proc.TTY
	reader   lineReader
	out      io.Writer
	exit     func(int)
}

func New(cfg *config.Config, log *slog.Logger) (*Shell, error) {
	spawner := &proc.Spawner{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
	d := deps{
		signals: proc.Kernel{},
		waiter:  proc.Kernel{},
		spawner: spawner,
		exit:    os.Exit,
	}

	// On a terminal, foreground jobs own it while they run, so terminal keys
	// reach them directly and stops are learned from wait4.
	if tty, ok := proc.OpenTerminal(os.Stdin); ok {
		if err := tty.Reclaim(); err != nil {
			return nil, fmt.Errorf("error taking the terminal: %w", err)
		}
		spawner.Terminal = tty
		d.terminal = tty
		d.waiter = proc.Kernel{ReportStops: true}
	}

	out := &syncWriter{w: os.Stdout}
	reader, err := newReader(cfg, os.Stdin, out)
	if err != nil {
		return nil, fmt.Errorf("error initializing readline: %w", err)
	}
	d.reader = reader
	d.out = out

	return newShell(cfg, log, d)
}

func newShell(cfg *config.Config, log *slog.Logger, d deps) (*Shell, error) {
	hist, err := history.New(cfg.HistoryFile, history.DefaultMaxItems)
	if err != nil {
		return nil, fmt.Errorf("error initializing history: %w", err)
	}
	if rl, ok := d.reader.(*readline.Instance); ok {
		for _, item := range hist.All() {
			_ = rl.SaveHistory(item)
		}
	}

	reg := jobs.NewRegistry(cfg.MaxJobs, cfg.MaxLine, log)
	ctl := jobs.NewController(reg, d.signals, d.waiter, jobs.Options{
		Out:                d.out,
		Logger:             log,
		AccurateStopNotice: cfg.AccurateStopNotice,
		Terminal:           d.terminal,
	})

	return &Shell{
		config:     cfg,
		history:    hist,
		registry:   reg,
		control:    ctl,
		spawner:    d.spawner,
		signalChan: make(chan os.Signal, 8),
		reader:     d.reader,
		out:        d.out,
		log:        log,
		exit:       d.exit,
	}, nil
}

// Run executes the read/evaluate loop until end of input or quit.
func (s *Shell) Run() error {
	s.setupSignalHandling()
	defer s.stopSignalHandling()
	defer s.reader.Close()

	return s.loop()
}

func (s *Shell) loop() error {
	for {
		line, err := s.reader.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		} else if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return fmt.Errorf("read command: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := s.history.Add(line); err != nil {
			s.log.Warn("saving history failed", "error", err)
		}

		err = s.Execute(line)
		if errors.Is(err, errQuit) {
			s.exit(0)
			return nil
		}
		if err != nil {
			fmt.Fprintln(s.out, err)
		}
	}
}

// Execute evaluates one command line: a builtin runs in the shell, anything
// else is spawned as a job.
func (s *Shell) Execute(line string) error {
	p, err := parse(line)
	if err != nil {
		return err
	}
	if len(p.Stages) == 0 {
		return nil
	}
	if len(p.Stages) == 1 && p.Input == "" && p.Output == "" {
		if ok, err := s.executeBuiltin(p.Stages[0]); ok {
			return err
		}
	}
	return s.launch(p, line)
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}
