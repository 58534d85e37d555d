// Package jobs tracks the processes spawned by the shell and implements the
// job control operations built on top of that table: reaping, relaying
// terminal signals, waiting on the foreground job and the fg/bg/jobs builtins.
package jobs

import (
	"fmt"
	"slices"
)

// State is the job-control state of a job.
type State int

const (
	Undefined State = iota
	Foreground
	Background
	Stopped
)

// String returns the label used by the jobs listing.
func (s State) String() string {
	switch s {
	case Foreground:
		return "Foreground"
	case Background:
		return "Running"
	case Stopped:
		return "Stopped"
	default:
		return "Undefined"
	}
}

// Job is a copy of one registry slot. PID is the process group leader and
// Members holds every process of the group that has not been reaped yet.
type Job struct {
	PID     int
	JID     int
	State   State
	Cmdline string
	Members []int
}

// String formats the job the way the jobs builtin prints it.
func (j Job) String() string {
	return fmt.Sprintf("[%d] (%d) %s %s", j.JID, j.PID, j.State, j.Cmdline)
}

func (j *Job) clear() {
	*j = Job{}
}

func (j Job) occupied() bool {
	return j.PID != 0
}

func (j Job) clone() Job {
	j.Members = slices.Clone(j.Members)
	return j
}
