package shell

import (
	"fmt"

	"tsh/internal/jobs"
	"tsh/internal/proc"
)

// launch spawns p and registers it as one job. A foreground job is waited on
// until it exits, is interrupted or is stopped.
func (s *Shell) launch(p proc.Pipeline, cmdline string) error {
	state := jobs.Foreground
	if p.Background {
		state = jobs.Background
	}

	// Redirections are opened before the job table is locked; opening a
	// FIFO blocks until its peer shows up.
	prepared, err := s.spawner.Prepare(p)
	if err != nil {
		return err
	}
	defer prepared.Close()

	job, err := s.registry.Launch(state, cmdline, prepared.Start)
	if err != nil {
		if !p.Background {
			s.control.Reclaim()
		}
		return err
	}
	s.log.Debug("job launched", "program", p.Name(), "jid", job.JID, "pid", job.PID, "stages", len(p.Stages))
	if s.config.Verbose {
		fmt.Fprintf(s.out, "Added job [%d] %d %s\n", job.JID, job.PID, job.Cmdline)
	}

	if p.Background {
		fmt.Fprintf(s.out, "Job [%d] (%d) %s\n", job.JID, job.PID, job.Cmdline)
		return nil
	}
	s.control.Wait(job.PID)
	return nil
}
