package subagent

import (
	"sync"
	"time"
)

// Process is the handle a Launcher hands back for a spawned child. It
// generalizes "a local os/exec child" and "a container-attached process"
// behind one interface.
type Process interface {
	// Stdout/Stderr are read once, fully, by the manager's ingest
	// goroutines; closing them unblocks any pending reads.
	Stdout() <-chan []byte
	Stderr() <-chan []byte
	// Signal requests termination: graceful (SIGTERM-equivalent) or
	// immediate (SIGKILL-equivalent).
	Signal(force bool) error
	// Wait blocks until the process has exited and returns its result.
	// It must be safe to call concurrently with Signal, and must only
	// resolve once the stdout/stderr channels have been closed.
	Wait() (exitCode int, exitSignal *int, err error)
}

// JobRecord is the internal, mutable record for one spawned job. External
// callers never see *JobRecord directly — they see defensive copies
// produced by the Manager's reader operations.
type JobRecord struct {
	mu sync.RWMutex

	id     string
	status JobStatus

	startedAt  time.Time
	finishedAt *time.Time
	exitCode   *int
	exitSignal *int

	cancelRequested bool
	turnCompleted   bool

	process Process

	stdoutTail *TailBuffer
	stderrTail *TailBuffer

	events           []NormalizedEvent
	lastAgentMessage string

	spawnMetadata SpawnMetadata

	done       chan struct{}
	doneClosed bool
}

func newJobRecord(id string, meta SpawnMetadata, proc Process, startedAt time.Time) *JobRecord {
	return &JobRecord{
		id:            id,
		status:        StatusRunning,
		startedAt:     startedAt,
		process:       proc,
		stdoutTail:    NewTailBuffer(),
		stderrTail:    NewTailBuffer(),
		spawnMetadata: meta,
		done:          make(chan struct{}),
	}
}

// appendEventLocked appends a normalized event, stamping its timestamp at
// ingestion time, and updates lastAgentMessage/turnCompleted so readers
// don't have to rescan the whole event log. Must be called with mu held
// for write.
func (r *JobRecord) appendEventLocked(ev NormalizedEvent, now time.Time) {
	ev.Timestamp = now
	r.events = append(r.events, ev)

	if ev.Type == EventMessage {
		if mc, ok := ev.Content.(MessageContent); ok {
			r.lastAgentMessage = mc.Text
		}
	}
	if ev.Type == EventProgress {
		if tc, ok := ev.Content.(TurnCompletedContent); ok && tc.Kind == "turn.completed" {
			r.turnCompleted = true
		}
	}
}

// fireDoneLocked closes the completion signal exactly once. Must be called
// with mu held for write.
func (r *JobRecord) fireDoneLocked() {
	if !r.doneClosed {
		r.doneClosed = true
		close(r.done)
	}
}

// statusSnapshot holds the terminal fields; snapshotStatus fills it in
// with one cheap, lock-protected read.
type statusSnapshot struct {
	status     JobStatus
	startedAt  time.Time
	finishedAt *time.Time
	exitCode   *int
	exitSignal *int
}

func (r *JobRecord) snapshotStatus() statusSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return statusSnapshot{
		status:     r.status,
		startedAt:  r.startedAt,
		finishedAt: r.finishedAt,
		exitCode:   r.exitCode,
		exitSignal: r.exitSignal,
	}
}

// registry is the process-lifetime map from jobId to *JobRecord. Entries
// are never removed, so a jobId always resolves even long after the job
// has finished.
type registry struct {
	mu      sync.RWMutex
	byID    map[string]*JobRecord
	running int
}

func newRegistry() *registry {
	return &registry{byID: make(map[string]*JobRecord)}
}

func (reg *registry) get(id string) (*JobRecord, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.byID[id]
	return r, ok
}

func (reg *registry) runningCount() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.running
}

// reserveSlot atomically checks the concurrency cap and, if under it,
// reserves a running slot before any child process I/O starts. This keeps
// the running count at or under cap under concurrent spawns: the check
// and the increment happen under one lock acquisition, with no I/O in
// between.
func (reg *registry) reserveSlot(cap int) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.running >= cap {
		return false
	}
	reg.running++
	return true
}

// releaseSlot undoes a reserveSlot that did not end in a successful
// insert (e.g. the child failed to start).
func (reg *registry) releaseSlot() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.running > 0 {
		reg.running--
	}
}

// insert adds a new record for a slot already reserved via reserveSlot.
func (reg *registry) insert(rec *JobRecord) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.byID[rec.id] = rec
}

func (reg *registry) decRunning() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.running > 0 {
		reg.running--
	}
}

// all returns a snapshot slice of every record ever inserted (used by the
// stale-job monitor; it is purely observational, not on the hot
// tool-call path, so an O(n) scan is acceptable).
func (reg *registry) all() []*JobRecord {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]*JobRecord, 0, len(reg.byID))
	for _, r := range reg.byID {
		out = append(out, r)
	}
	return out
}
