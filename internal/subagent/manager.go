package subagent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors surfaced as raised errors rather than structured refusals.
var (
	errTooManyConcurrentJobs = errors.New("too many concurrent jobs")
	errUnknownJob            = errors.New("unknown jobId")
)

const (
	defaultConcurrencyCap = 32
	defaultMaxEvents      = 200
	hardMaxEvents         = 2000
	waitAnyHardCap        = 5 * time.Minute
	interruptWaitHardCap  = 60 * time.Second
)

// AuditLog is the write-only sink of terminal-state transitions. It is
// never consulted by a read path — losing it loses history, not
// correctness.
type AuditLog interface {
	RecordTermination(ctx context.Context, rec TerminationRecord) error
}

// TerminationRecord is one row appended to the audit log at termination.
type TerminationRecord struct {
	JobID      string
	Status     JobStatus
	StartedAt  time.Time
	FinishedAt time.Time
	ExitCode   *int
	ExitSignal *int
	Model      string
	Sandbox    string
	PromptDigest string
}

// Metrics is the narrow slice of internal/metrics the manager needs,
// kept as an interface here so job.go/manager.go do not import the
// concrete Prometheus collectors directly.
type Metrics interface {
	RecordSpawn(sandbox string)
	SetRunning(n int)
	ObserveJobDuration(status string, seconds float64)
	RecordTailTruncation(stream string)
	RecordStreamParseError()
}

// noopMetrics satisfies Metrics when the caller does not wire one in
// (e.g. unit tests constructing a Manager directly).
type noopMetrics struct{}

func (noopMetrics) RecordSpawn(string)                      {}
func (noopMetrics) SetRunning(int)                          {}
func (noopMetrics) ObserveJobDuration(string, float64)       {}
func (noopMetrics) RecordTailTruncation(string)              {}
func (noopMetrics) RecordStreamParseError()                  {}

// ManagerOptions configures a Manager. Zero-value fields fall back to
// package defaults.
type ManagerOptions struct {
	Launcher Launcher
	Binary   string // the agent binary, e.g. "codex"

	// DefaultSandboxEnvVar/ConcurrencyCapEnvVar name the environment
	// variables consulted fresh on every spawn, so an operator can change
	// them without restarting the server.
	DefaultSandboxEnvVar  string
	ConcurrencyCapEnvVar  string

	AuditLog AuditLog
	Metrics  Metrics
	Logger   *slog.Logger
}

// Manager is the Subagent Job Manager: it owns the registry, builds
// argv, launches children, ingests their JSONL stdout, and classifies
// termination.
type Manager struct {
	reg      *registry
	launcher Launcher
	binary   string

	defaultSandboxEnvVar string
	concurrencyCapEnvVar string

	auditLog AuditLog
	metrics  Metrics
	log      *slog.Logger
}

// NewManager constructs a Manager. A zero-value Launcher defaults to
// LocalLauncher; a zero-value Binary defaults to "codex".
func NewManager(opts ManagerOptions) *Manager {
	launcher := opts.Launcher
	if launcher == nil {
		launcher = LocalLauncher{}
	}
	binary := opts.Binary
	if binary == "" {
		binary = "codex"
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		reg:                  newRegistry(),
		launcher:             launcher,
		binary:               binary,
		defaultSandboxEnvVar: opts.DefaultSandboxEnvVar,
		concurrencyCapEnvVar: opts.ConcurrencyCapEnvVar,
		auditLog:             opts.AuditLog,
		metrics:              metrics,
		log:                  logger,
	}
}

func (m *Manager) concurrencyCap() int {
	if m.concurrencyCapEnvVar == "" {
		return defaultConcurrencyCap
	}
	raw := os.Getenv(m.concurrencyCapEnvVar)
	if raw == "" {
		return defaultConcurrencyCap
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultConcurrencyCap
	}
	return n
}

func (m *Manager) environmentDefaultSandbox() (SandboxPolicy, bool) {
	if m.defaultSandboxEnvVar == "" {
		return "", false
	}
	raw := os.Getenv(m.defaultSandboxEnvVar)
	switch SandboxPolicy(raw) {
	case SandboxReadOnly, SandboxWorkspaceWrite, SandboxDangerFullAccess:
		return SandboxPolicy(raw), true
	default:
		return "", false
	}
}

// SpawnResult is the immediate return of a successful spawn.
type SpawnResult struct {
	JobID     string    `json:"jobId"`
	Status    JobStatus `json:"status"`
	StartedAt time.Time `json:"startedAt"`
}

// resolveEffective implements sandbox-precedence: caller-supplied ->
// environment default -> "workspace-write", except fullAuto-with-nothing-else
// leaves sandbox unset.
func (m *Manager) resolveEffective(req RequestOptions) EffectiveOptions {
	eff := EffectiveOptions{
		Model:            req.Model,
		ReasoningEffort:  req.ReasoningEffort,
		WorkingDirectory: req.WorkingDirectory,
		ContainerImage:   req.ContainerImage,
	}

	sandbox := req.Sandbox
	explicit := sandbox != ""
	if !explicit {
		if envSandbox, ok := m.environmentDefaultSandbox(); ok {
			sandbox = envSandbox
		}
	}

	switch {
	case sandbox != "":
		eff.Sandbox = sandbox
		eff.UseFullAuto = false
	case req.FullAuto:
		eff.Sandbox = ""
		eff.UseFullAuto = true
	default:
		eff.Sandbox = SandboxWorkspaceWrite
		eff.UseFullAuto = false
	}

	return eff
}

// overlayEffective applies interrupt overrides onto a captured
// EffectiveOptions: an override field replaces the inherited one; an
// explicit override sandbox suppresses fullAuto exactly like a fresh
// spawn's explicit sandbox would.
func overlayEffective(base EffectiveOptions, overrides RequestOptions) EffectiveOptions {
	out := base
	if overrides.Model != "" {
		out.Model = overrides.Model
	}
	if overrides.ReasoningEffort != "" {
		out.ReasoningEffort = overrides.ReasoningEffort
	}
	if overrides.WorkingDirectory != "" {
		out.WorkingDirectory = overrides.WorkingDirectory
	}
	if overrides.ContainerImage != "" {
		out.ContainerImage = overrides.ContainerImage
	}
	if overrides.Sandbox != "" {
		out.Sandbox = overrides.Sandbox
		out.UseFullAuto = false
	} else if overrides.FullAuto {
		out.Sandbox = ""
		out.UseFullAuto = true
	}
	return out
}

// buildArgs constructs the argument vector: "exec --json" followed by
// flag pairs in a fixed order, then the prompt as the last positional.
func buildArgs(prompt string, eff EffectiveOptions) []string {
	args := []string{"exec", "--json"}
	if eff.Model != "" {
		args = append(args, "--model", eff.Model)
	}
	if eff.ReasoningEffort != "" {
		args = append(args, "-c", fmt.Sprintf("model_reasoning_effort=%q", string(eff.ReasoningEffort)))
	}
	if eff.Sandbox != "" {
		args = append(args, "--sandbox", string(eff.Sandbox))
	}
	if eff.UseFullAuto {
		args = append(args, "--full-auto")
	}
	if eff.WorkingDirectory != "" {
		args = append(args, "-C", eff.WorkingDirectory)
	}
	args = append(args, "--skip-git-repo-check")
	args = append(args, prompt)
	return args
}

// SpawnFromRequest resolves caller-supplied RequestOptions into
// EffectiveOptions and spawns a job.
func (m *Manager) SpawnFromRequest(ctx context.Context, prompt string, req RequestOptions) (SpawnResult, error) {
	eff := m.resolveEffective(req)
	return m.spawn(ctx, prompt, eff, req, req.Label)
}

// SpawnFromEffective spawns a job from an already-resolved
// EffectiveOptions, used by the interrupt coordinator to inherit it
// verbatim.
func (m *Manager) SpawnFromEffective(ctx context.Context, prompt string, eff EffectiveOptions, label string) (SpawnResult, error) {
	return m.spawn(ctx, prompt, eff, RequestOptions{}, label)
}

func (m *Manager) spawn(ctx context.Context, prompt string, eff EffectiveOptions, requested RequestOptions, label string) (SpawnResult, error) {
	cap := m.concurrencyCap()
	if !m.reg.reserveSlot(cap) {
		return SpawnResult{}, errTooManyConcurrentJobs
	}

	args := buildArgs(prompt, eff)
	spec := ProcessSpec{
		Binary:         m.binary,
		Args:           args,
		WorkingDir:     eff.WorkingDirectory,
		Env:            os.Environ(),
		ContainerImage: eff.ContainerImage,
	}

	proc, err := m.launcher.Launch(ctx, spec)
	if err != nil {
		m.reg.releaseSlot()
		return SpawnResult{}, fmt.Errorf("launch: %w", err)
	}

	id := uuid.NewString()
	startedAt := time.Now()
	meta := SpawnMetadata{
		Requested: requested,
		Effective: eff,
		Label:     label,
		Command:   m.binary,
		Args:      args,
	}
	rec := newJobRecord(id, meta, proc, startedAt)

	rec.mu.Lock()
	rec.appendEventLocked(progressEvent(SpawnedContent{
		Kind:             "spawned",
		Command:          m.binary,
		Args:             args,
		EffectiveSandbox: string(eff.Sandbox),
		Label:            label,
	}), startedAt)
	rec.mu.Unlock()

	m.reg.insert(rec)
	m.metrics.RecordSpawn(string(eff.Sandbox))
	m.metrics.SetRunning(m.reg.runningCount())

	go m.runIngest(rec)

	return SpawnResult{JobID: id, Status: StatusRunning, StartedAt: startedAt}, nil
}

// runIngest drains a job's stdout/stderr concurrently until both close,
// then waits for the child's exit and classifies termination. It is the
// only writer of a job's event vector besides spawn's initial "spawned"
// event, so it is the sole place responsible for keeping that vector
// append-only and the terminal transition exactly-once.
func (m *Manager) runIngest(rec *JobRecord) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		m.drainStdout(rec)
	}()
	go func() {
		defer wg.Done()
		m.drainStderr(rec)
	}()
	wg.Wait()

	exitCode, exitSignal, err := rec.process.Wait()
	if err != nil {
		m.handleSpawnError(rec, err)
		return
	}
	m.handleTermination(rec, exitCode, exitSignal)
}

func (m *Manager) drainStdout(rec *JobRecord) {
	framer := &LineFramer{}
	for chunk := range rec.process.Stdout() {
		rec.mu.Lock()
		truncated := rec.stdoutTail.Len()+len(chunk) > rec.stdoutTail.Cap
		rec.stdoutTail.Append(string(chunk))
		rec.mu.Unlock()
		if truncated {
			m.metrics.RecordTailTruncation("stdout")
		}

		for _, line := range framer.Feed(string(chunk)) {
			m.ingestLine(rec, line)
		}
	}
}

func (m *Manager) drainStderr(rec *JobRecord) {
	for chunk := range rec.process.Stderr() {
		rec.mu.Lock()
		truncated := rec.stderrTail.Len()+len(chunk) > rec.stderrTail.Cap
		rec.stderrTail.Append(string(chunk))
		rec.mu.Unlock()
		if truncated {
			m.metrics.RecordTailTruncation("stderr")
		}
	}
}

// ingestLine parses one JSONL stdout line, normalizes it, and appends the
// result (or a parse-error event) to the job's event vector.
func (m *Manager) ingestLine(rec *JobRecord, line string) {
	var raw map[string]any
	dec := json.NewDecoder(strings.NewReader(line))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		m.metrics.RecordStreamParseError()
		rec.mu.Lock()
		rec.appendEventLocked(errorEvent(ParseErrorContent{
			Message: "Failed to parse codex JSONL event",
			Line:    line,
			Error:   err.Error(),
		}), time.Now())
		rec.mu.Unlock()
		return
	}

	ev, ok := Normalize(raw)
	if !ok {
		return
	}
	rec.mu.Lock()
	rec.appendEventLocked(ev, time.Now())
	rec.mu.Unlock()
}

// handleTermination assigns the final exit state, classifies the
// terminal status, appends the closing event, and signals completion.
func (m *Manager) handleTermination(rec *JobRecord, exitCode int, exitSignal *int) {
	now := time.Now()

	rec.mu.Lock()
	rec.exitCode = &exitCode
	rec.exitSignal = exitSignal
	rec.finishedAt = &now

	status := classifyTermination(rec.cancelRequested, rec.turnCompleted, exitCode)
	rec.status = status

	rec.appendEventLocked(NormalizedEvent{
		Type: EventFinal,
		Content: FinalContent{
			JobID:       rec.id,
			Status:      status,
			ExitCode:    rec.exitCode,
			ExitSignal:  rec.exitSignal,
			LastMessage: rec.lastAgentMessage,
		},
	}, now)
	rec.fireDoneLocked()

	startedAt := rec.startedAt
	meta := rec.spawnMetadata
	rec.mu.Unlock()

	m.reg.decRunning()
	m.metrics.SetRunning(m.reg.runningCount())
	m.metrics.ObserveJobDuration(string(status), now.Sub(startedAt).Seconds())

	m.recordAudit(rec.id, status, startedAt, now, rec.exitCode, rec.exitSignal, meta)
}

// handleSpawnError handles a launch error observed before any exit --
// the child never produced output to classify against.
func (m *Manager) handleSpawnError(rec *JobRecord, launchErr error) {
	now := time.Now()

	rec.mu.Lock()
	rec.finishedAt = &now
	status := StatusFailed
	if rec.cancelRequested {
		status = StatusCanceled
	}
	rec.status = status
	rec.appendEventLocked(errorEvent(SpawnErrorContent{
		Message: "subagent process failed",
		Error:   launchErr.Error(),
	}), now)
	rec.fireDoneLocked()

	startedAt := rec.startedAt
	meta := rec.spawnMetadata
	rec.mu.Unlock()

	m.reg.decRunning()
	m.metrics.SetRunning(m.reg.runningCount())
	m.metrics.ObserveJobDuration(string(status), now.Sub(startedAt).Seconds())

	m.recordAudit(rec.id, status, startedAt, now, nil, nil, meta)
}

func (m *Manager) recordAudit(jobID string, status JobStatus, startedAt, finishedAt time.Time, exitCode, exitSignal *int, meta SpawnMetadata) {
	if m.auditLog == nil {
		return
	}
	rec := TerminationRecord{
		JobID:      jobID,
		Status:     status,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		ExitCode:   exitCode,
		ExitSignal: exitSignal,
		Model:      meta.Effective.Model,
		Sandbox:    string(meta.Effective.Sandbox),
	}
	if n := len(meta.Args); n > 0 {
		// buildArgs always places the prompt last.
		rec.PromptDigest = DigestPrompt(meta.Args[n-1])
	}
	if err := m.auditLog.RecordTermination(context.Background(), rec); err != nil {
		m.log.Error("audit log record failed", "jobId", jobID, "error", err)
	}
}

// classifyTermination: a cancellation requested before the turn completed
// forces canceled regardless of exit code; otherwise exit 0 is done and
// anything else is failed.
func classifyTermination(cancelRequested, turnCompleted bool, exitCode int) JobStatus {
	if cancelRequested && !turnCompleted {
		return StatusCanceled
	}
	if exitCode == 0 {
		return StatusDone
	}
	return StatusFailed
}

// --- Readers ---

// StatusView is the defensive-copy payload for the status operation.
type StatusView struct {
	JobID      string     `json:"jobId"`
	Status     JobStatus  `json:"status"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	ExitCode   *int       `json:"exitCode,omitempty"`
}

func (m *Manager) Status(jobID string) (StatusView, error) {
	rec, ok := m.reg.get(jobID)
	if !ok {
		return StatusView{}, errUnknownJob
	}
	snap := rec.snapshotStatus()
	return StatusView{
		JobID:      jobID,
		Status:     snap.status,
		StartedAt:  snap.startedAt,
		FinishedAt: snap.finishedAt,
		ExitCode:   snap.exitCode,
	}, nil
}

// ResultView is the payload for the result operation's "full" view; the
// "finalMessage" view returns just FinalMessage as plain text.
type ResultView struct {
	StatusView
	FinalMessage string `json:"finalMessage"`
	StdoutTail   string `json:"stdoutTail"`
	StderrTail   string `json:"stderrTail"`
}

func (m *Manager) Result(jobID string) (ResultView, error) {
	rec, ok := m.reg.get(jobID)
	if !ok {
		return ResultView{}, errUnknownJob
	}

	rec.mu.RLock()
	defer rec.mu.RUnlock()

	status := rec.status
	finalMessage := rec.lastAgentMessage
	if finalMessage == "" && status.IsTerminal() {
		finalMessage = fallbackResultText(status, rec.exitCode)
	}

	return ResultView{
		StatusView: StatusView{
			JobID:      jobID,
			Status:     status,
			StartedAt:  rec.startedAt,
			FinishedAt: rec.finishedAt,
			ExitCode:   rec.exitCode,
		},
		FinalMessage: finalMessage,
		StdoutTail:   rec.stdoutTail.String(),
		StderrTail:   rec.stderrTail.String(),
	}, nil
}

// fallbackResultText supplies a human-readable summary when the agent
// itself never produced a final message.
func fallbackResultText(status JobStatus, exitCode *int) string {
	var b strings.Builder
	switch status {
	case StatusCanceled:
		b.WriteString("Subagent job was canceled before producing a response.\n")
		b.WriteString("No agent message was captured prior to cancellation.\n")
	case StatusFailed:
		b.WriteString("Subagent job failed before producing a response.\n")
		b.WriteString("No agent message was captured before the process terminated.\n")
	case StatusDone:
		b.WriteString("Subagent job completed, but did not emit a textual response.\n")
		b.WriteString("The job may have only performed tool calls or file edits.\n")
	default:
		return ""
	}
	if exitCode != nil {
		fmt.Fprintf(&b, "Exit code: %d\n", *exitCode)
	}
	return b.String()
}

func (m *Manager) GetSpawnMetadata(jobID string) (SpawnMetadata, error) {
	rec, ok := m.reg.get(jobID)
	if !ok {
		return SpawnMetadata{}, errUnknownJob
	}
	rec.mu.RLock()
	defer rec.mu.RUnlock()
	return rec.spawnMetadata, nil
}

// EventsPage is the cursor-paginated response of Get-Events.
type EventsPage struct {
	Events     []NormalizedEvent `json:"events"`
	NextCursor string            `json:"nextCursor"`
	Done       bool              `json:"done"`
}

// GetEvents returns a cursor-paginated slice of a job's event log.
func (m *Manager) GetEvents(jobID string, cursor int, maxEvents int) (EventsPage, error) {
	rec, ok := m.reg.get(jobID)
	if !ok {
		return EventsPage{}, errUnknownJob
	}

	if cursor < 0 {
		cursor = 0
	}
	if maxEvents < 1 {
		maxEvents = defaultMaxEvents
	}
	if maxEvents > hardMaxEvents {
		maxEvents = hardMaxEvents
	}

	rec.mu.RLock()
	defer rec.mu.RUnlock()

	total := len(rec.events)
	start := cursor
	if start > total {
		start = total
	}
	end := start + maxEvents
	if end > total {
		end = total
	}

	out := make([]NormalizedEvent, end-start)
	copy(out, rec.events[start:end])

	return EventsPage{
		Events:     out,
		NextCursor: strconv.Itoa(end),
		Done:       rec.status != StatusRunning,
	}, nil
}

// GetEventTail returns the most recent events for a job, optionally
// filtered to a set of event types.
func (m *Manager) GetEventTail(jobID string, maxEvents int, types []EventType) ([]NormalizedEvent, error) {
	rec, ok := m.reg.get(jobID)
	if !ok {
		return nil, errUnknownJob
	}
	if maxEvents <= 0 {
		return []NormalizedEvent{}, nil
	}

	rec.mu.RLock()
	defer rec.mu.RUnlock()

	var filtered []NormalizedEvent
	if len(types) == 0 {
		filtered = rec.events
	} else {
		allow := make(map[EventType]bool, len(types))
		for _, t := range types {
			allow[t] = true
		}
		for _, ev := range rec.events {
			if allow[ev.Type] {
				filtered = append(filtered, ev)
			}
		}
	}

	if len(filtered) > maxEvents {
		filtered = filtered[len(filtered)-maxEvents:]
	}
	out := make([]NormalizedEvent, len(filtered))
	copy(out, filtered)
	return out, nil
}

// Cancel requests termination of a running job, graceful or forced.
func (m *Manager) Cancel(jobID string, force bool) (bool, error) {
	rec, ok := m.reg.get(jobID)
	if !ok {
		return false, errUnknownJob
	}

	rec.mu.Lock()
	if rec.status != StatusRunning {
		rec.mu.Unlock()
		return false, nil
	}
	rec.cancelRequested = true
	proc := rec.process
	rec.mu.Unlock()

	if err := proc.Signal(force); err != nil {
		return false, fmt.Errorf("signal: %w", err)
	}
	return true, nil
}

// WaitForExit blocks until a job reaches a terminal state or waitMs
// elapses, whichever comes first.
func (m *Manager) WaitForExit(jobID string, waitMs int) (bool, error) {
	rec, ok := m.reg.get(jobID)
	if !ok {
		return false, errUnknownJob
	}

	rec.mu.RLock()
	notRunning := rec.status != StatusRunning
	done := rec.done
	rec.mu.RUnlock()

	if notRunning {
		return true, nil
	}
	if waitMs <= 0 {
		return false, nil
	}

	timer := time.NewTimer(clampDuration(waitMs, 0))
	defer timer.Stop()

	select {
	case <-done:
		return true, nil
	case <-timer.C:
		return false, nil
	}
}

// WaitAnyResult is the payload for the wait-any operation.
type WaitAnyResult struct {
	CompletedJobID *string  `json:"completedJobId"`
	TimedOut       bool     `json:"timedOut"`
	MissingJobIDs  []string `json:"missingJobIds,omitempty"`
}

// WaitAny blocks until any of the given jobs reaches a terminal state or
// the timeout elapses, whichever comes first.
func (m *Manager) WaitAny(jobIDs []string, timeoutMs int) (WaitAnyResult, error) {
	var known []*JobRecord
	var missing []string

	for _, id := range jobIDs {
		rec, ok := m.reg.get(id)
		if !ok {
			missing = append(missing, id)
			continue
		}
		known = append(known, rec)
	}

	if len(known) == 0 {
		return WaitAnyResult{CompletedJobID: nil, TimedOut: false, MissingJobIDs: missing}, nil
	}

	for _, rec := range known {
		snap := rec.snapshotStatus()
		if snap.status.IsTerminal() {
			id := idOf(rec)
			return WaitAnyResult{CompletedJobID: &id, TimedOut: false, MissingJobIDs: missing}, nil
		}
	}

	timeout := clampDuration(timeoutMs, waitAnyHardCap)

	cases := make([]chan struct{}, len(known))
	for i, rec := range known {
		rec.mu.RLock()
		cases[i] = rec.done
		rec.mu.RUnlock()
	}

	winner := make(chan int, len(known))
	for i, doneCh := range cases {
		i, doneCh := i, doneCh
		go func() {
			<-doneCh
			select {
			case winner <- i:
			default:
			}
		}()
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case i := <-winner:
		id := idOf(known[i])
		return WaitAnyResult{CompletedJobID: &id, TimedOut: false, MissingJobIDs: missing}, nil
	case <-timer.C:
		return WaitAnyResult{CompletedJobID: nil, TimedOut: true, MissingJobIDs: missing}, nil
	}
}

func idOf(rec *JobRecord) string {
	rec.mu.RLock()
	defer rec.mu.RUnlock()
	return rec.id
}

// clampDuration converts caller-specified milliseconds to a time.Duration,
// clamping negative values to zero (non-finite/non-numeric inputs are
// already rejected by the arg-validation layer upstream of the core) and
// applying hardCap as a ceiling. hardCap of zero
// means no ceiling.
func clampDuration(ms int, hardCap time.Duration) time.Duration {
	if ms < 0 {
		ms = 0
	}
	d := time.Duration(ms) * time.Millisecond
	if hardCap > 0 && d > hardCap {
		return hardCap
	}
	return d
}
