package jobs

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"
)

const (
	DefaultMaxJobs = 16
	DefaultMaxLine = 1024
)

var (
	ErrTooManyJobs = errors.New("Tried to create too many jobs")
	ErrInvalidPID  = errors.New("invalid process id")
	ErrInitState   = errors.New("jobs can only be created in the foreground or background")
)

// Registry is a fixed-capacity job table. All methods are safe for
// concurrent use; lookups return copies, so callers must look a job up
// again after anything that can block.
type Registry struct {
	mu      sync.Mutex
	changed *sync.Cond
	slots   []Job
	nextJID int
	maxLine int
	log     *slog.Logger
}

// NewRegistry returns an initialized registry with maxJobs slots. Command
// lines longer than maxLine bytes are truncated when stored.
func NewRegistry(maxJobs, maxLine int, log *slog.Logger) *Registry {
	if maxJobs < 1 {
		maxJobs = DefaultMaxJobs
	}
	if maxLine < 1 {
		maxLine = DefaultMaxLine
	}
	if log == nil {
		log = slog.Default()
	}
	r := &Registry{
		slots:   make([]Job, maxJobs),
		maxLine: maxLine,
		log:     log,
	}
	r.changed = sync.NewCond(&r.mu)
	r.Init()
	return r
}

// Init clears every slot and resets the job id counter.
func (r *Registry) Init() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.slots {
		r.slots[i].clear()
	}
	r.nextJID = 1
	r.changed.Broadcast()
}

// Cap returns the number of slots.
func (r *Registry) Cap() int {
	return len(r.slots)
}

// Add registers a single-process job.
func (r *Registry) Add(pid int, state State, cmdline string) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.addLocked([]int{pid}, state, cmdline)
}

// Launch runs start with the registry locked and registers the process group
// it returns before unlocking, so a child that exits immediately cannot be
// reaped before it is known. The first pid is the group leader. Capacity is
// checked before start is called. start must not call back into r.
func (r *Registry) Launch(state State, cmdline string, start func() ([]int, error)) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if state != Foreground && state != Background {
		return Job{}, ErrInitState
	}
	if r.freeSlotLocked() < 0 {
		return Job{}, ErrTooManyJobs
	}
	pids, err := start()
	if err != nil {
		return Job{}, err
	}
	if len(pids) == 0 {
		return Job{}, fmt.Errorf("launch %q: %w", cmdline, ErrInvalidPID)
	}
	return r.addLocked(pids, state, cmdline)
}

func (r *Registry) addLocked(pids []int, state State, cmdline string) (Job, error) {
	if state != Foreground && state != Background {
		return Job{}, ErrInitState
	}
	for _, pid := range pids {
		if pid < 1 {
			return Job{}, fmt.Errorf("%w: %d", ErrInvalidPID, pid)
		}
		if r.indexOfPIDLocked(pid) >= 0 {
			return Job{}, fmt.Errorf("%w: %d already registered", ErrInvalidPID, pid)
		}
	}

	i := r.freeSlotLocked()
	if i < 0 {
		r.log.Warn("job table full", "pid", pids[0], "capacity", len(r.slots))
		return Job{}, ErrTooManyJobs
	}
	if state == Foreground {
		r.demoteForegroundLocked()
	}

	r.slots[i] = Job{
		PID:     pids[0],
		JID:     r.allocJIDLocked(),
		State:   state,
		Cmdline: truncate(cmdline, r.maxLine),
		Members: slices.Clone(pids),
	}
	r.changed.Broadcast()
	r.log.Debug("job added", "jid", r.slots[i].JID, "pid", pids[0], "state", state.String())
	return r.slots[i].clone(), nil
}

// Remove deletes the job whose group leader is pid.
func (r *Registry) Remove(pid int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOfPIDLocked(pid)
	if i < 0 {
		return false
	}
	r.deleteLocked(i)
	return true
}

// ReapMember records that pid has exited. The job owning pid is deleted once
// its last member is gone; the returned bool reports that deletion.
func (r *Registry) ReapMember(pid int) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.reapMemberLocked(pid)
}

func (r *Registry) reapMemberLocked(pid int) (Job, bool) {
	if pid < 1 {
		return Job{}, false
	}
	for i := range r.slots {
		job := &r.slots[i]
		if !job.occupied() {
			continue
		}
		k := slices.Index(job.Members, pid)
		if k < 0 {
			continue
		}
		job.Members = slices.Delete(job.Members, k, k+1)
		if len(job.Members) > 0 {
			return job.clone(), false
		}
		gone := job.clone()
		r.deleteLocked(i)
		return gone, true
	}
	return Job{}, false
}

// stopMemberLocked marks the job owning pid as stopped. The bool reports
// whether the state changed, so a pipeline is announced once.
func (r *Registry) stopMemberLocked(pid int) (Job, bool) {
	if pid < 1 {
		return Job{}, false
	}
	for i := range r.slots {
		job := &r.slots[i]
		if !job.occupied() || !slices.Contains(job.Members, pid) {
			continue
		}
		if job.State == Stopped {
			return job.clone(), false
		}
		job.State = Stopped
		r.changed.Broadcast()
		return job.clone(), true
	}
	return Job{}, false
}

func (r *Registry) deleteLocked(i int) {
	r.log.Debug("job removed", "jid", r.slots[i].JID, "pid", r.slots[i].PID)
	r.slots[i].clear()
	r.nextJID = r.maxJIDLocked() + 1
	r.changed.Broadcast()
}

// ByPID looks a job up by its group leader pid.
func (r *Registry) ByPID(pid int) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOfPIDLocked(pid)
	if i < 0 {
		return Job{}, false
	}
	return r.slots[i].clone(), true
}

// ByJID looks a job up by job id.
func (r *Registry) ByJID(jid int) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if jid < 1 {
		return Job{}, false
	}
	for _, job := range r.slots {
		if job.occupied() && job.JID == jid {
			return job.clone(), true
		}
	}
	return Job{}, false
}

// JobID maps a pid to its job id, or 0.
func (r *Registry) JobID(pid int) int {
	job, ok := r.ByPID(pid)
	if !ok {
		return 0
	}
	return job.JID
}

// ForegroundPID returns the pid of the foreground job, or 0 if there is none.
func (r *Registry) ForegroundPID() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.foregroundPIDLocked()
}

// Foreground returns the foreground job, if any.
func (r *Registry) Foreground() (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, job := range r.slots {
		if job.occupied() && job.State == Foreground {
			return job.clone(), true
		}
	}
	return Job{}, false
}

func (r *Registry) foregroundPIDLocked() int {
	for _, job := range r.slots {
		if job.occupied() && job.State == Foreground {
			return job.PID
		}
	}
	return 0
}

// SetState changes the state of the job led by pid. Moving a job to the
// foreground sends the current foreground job, if any, to the background.
func (r *Registry) SetState(pid int, state State) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOfPIDLocked(pid)
	if i < 0 || state == Undefined {
		return Job{}, false
	}
	if state == Foreground && r.slots[i].State != Foreground {
		r.demoteForegroundLocked()
	}
	r.slots[i].State = state
	r.changed.Broadcast()
	return r.slots[i].clone(), true
}

// WaitForeground blocks until pid is no longer the foreground job, whether
// it was deleted, stopped or superseded.
func (r *Registry) WaitForeground(pid int) {
	if pid < 1 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.foregroundPIDLocked() == pid {
		r.changed.Wait()
	}
}

// Snapshot returns copies of the occupied slots in slot order.
func (r *Registry) Snapshot() []Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Job
	for _, job := range r.slots {
		if job.occupied() {
			out = append(out, job.clone())
		}
	}
	return out
}

// List returns one formatted line per job in slot order.
func (r *Registry) List() []string {
	snap := r.Snapshot()
	lines := make([]string, 0, len(snap))
	for _, job := range snap {
		lines = append(lines, job.String())
	}
	return lines
}

func (r *Registry) demoteForegroundLocked() {
	for i := range r.slots {
		if r.slots[i].occupied() && r.slots[i].State == Foreground {
			r.slots[i].State = Background
			r.log.Debug("foreground job superseded", "jid", r.slots[i].JID, "pid", r.slots[i].PID)
		}
	}
}

func (r *Registry) indexOfPIDLocked(pid int) int {
	if pid < 1 {
		return -1
	}
	for i, job := range r.slots {
		if job.PID == pid {
			return i
		}
	}
	return -1
}

func (r *Registry) freeSlotLocked() int {
	for i, job := range r.slots {
		if !job.occupied() {
			return i
		}
	}
	return -1
}

func (r *Registry) maxJIDLocked() int {
	highest := 0
	for _, job := range r.slots {
		if job.occupied() && job.JID > highest {
			highest = job.JID
		}
	}
	return highest
}

func (r *Registry) jidInUseLocked(jid int) bool {
	for _, job := range r.slots {
		if job.occupied() && job.JID == jid {
			return true
		}
	}
	return false
}

// allocJIDLocked hands out the next job id, wrapping to 1 past capacity and
// skipping ids that are still live. A free slot must exist.
func (r *Registry) allocJIDLocked() int {
	jid := r.nextJID
	for n := len(r.slots); n > 0; n-- {
		if jid < 1 || jid > len(r.slots) {
			jid = 1
		}
		if !r.jidInUseLocked(jid) {
			break
		}
		jid++
	}
	r.nextJID = jid + 1
	return jid
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return strings.Clone(s)
	}
	i := n
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return strings.Clone(s[:i])
}
