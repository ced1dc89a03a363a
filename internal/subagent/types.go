// Package subagent implements the asynchronous subagent job manager: it
// spawns the codex CLI as a child process, normalizes its JSONL event
// stream, and exposes spawn/status/result/cancel/events/wait-any/interrupt
// operations to the MCP tool surface.
package subagent

import "time"

// EventType is the fixed taxonomy a NormalizedEvent is classified into.
type EventType string

const (
	EventMessage    EventType = "message"
	EventProgress   EventType = "progress"
	EventToolCall   EventType = "tool_call"
	EventToolResult EventType = "tool_result"
	EventError      EventType = "error"
	EventFinal      EventType = "final"
)

// NormalizedEvent is an immutable, append-only entry in a job's event
// vector. Timestamp is assigned when the event is ingested by the manager,
// not when the child process claims it was produced.
type NormalizedEvent struct {
	Type      EventType `json:"type"`
	Content   any       `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// JobStatus is the lifecycle state of a subagent job.
type JobStatus string

const (
	StatusRunning  JobStatus = "running"
	StatusDone     JobStatus = "done"
	StatusFailed   JobStatus = "failed"
	StatusCanceled JobStatus = "canceled"
)

// IsTerminal reports whether status leaves no further transitions.
func (s JobStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed || s == StatusCanceled
}

// ReasoningEffort is the agent's reasoning-effort setting.
type ReasoningEffort string

const (
	ReasoningLow    ReasoningEffort = "low"
	ReasoningMedium ReasoningEffort = "medium"
	ReasoningHigh   ReasoningEffort = "high"
)

// SandboxPolicy is the agent's filesystem/network sandbox setting.
type SandboxPolicy string

const (
	SandboxReadOnly        SandboxPolicy = "read-only"
	SandboxWorkspaceWrite  SandboxPolicy = "workspace-write"
	SandboxDangerFullAccess SandboxPolicy = "danger-full-access"
)

// RequestOptions are the raw, caller-supplied options for a spawn-from-request.
type RequestOptions struct {
	Model           string
	ReasoningEffort ReasoningEffort
	Sandbox         SandboxPolicy
	FullAuto        bool
	WorkingDirectory string
	Label           string
	ContainerImage  string
}

// EffectiveOptions are the resolved settings actually applied to a child.
// Interrupt-respawn inherits this struct verbatim (modulo overrides).
type EffectiveOptions struct {
	Model            string          `json:"model,omitempty"`
	ReasoningEffort  ReasoningEffort `json:"reasoningEffort,omitempty"`
	Sandbox          SandboxPolicy   `json:"sandbox,omitempty"`
	UseFullAuto      bool            `json:"useFullAuto"`
	WorkingDirectory string          `json:"workingDirectory,omitempty"`
	// ContainerImage routes the spawn through DockerLauncher instead of
	// LocalLauncher when non-empty.
	ContainerImage string `json:"containerImage,omitempty"`
}

// SpawnMetadata bundles what the caller asked for, what was actually
// resolved, and an optional echoed label.
type SpawnMetadata struct {
	Requested RequestOptions   `json:"-"`
	Effective EffectiveOptions `json:"effective"`
	Label     string           `json:"label,omitempty"`
	Command   string           `json:"command"`
	Args      []string         `json:"args"`
}

// --- Normalized event content payloads ---
// Each is a concrete struct for one branch of the agent-output
// classification table. Readers never depend on unknown keys; unknown
// shapes fall through to a map[string]any.

type ThreadStartedContent struct {
	ThreadID string `json:"threadId"`
}

type TurnStartedContent struct {
	Kind string `json:"kind"`
}

type TurnCompletedContent struct {
	Kind  string `json:"kind"`
	Usage any    `json:"usage,omitempty"`
}

type TurnFailedContent struct {
	Kind  string `json:"kind"`
	Error any    `json:"error,omitempty"`
}

// ItemContent covers item.started/updated/completed wrappers whose nested
// item.type has no dedicated shape (unknown item types) as well as the
// "reasoning" item type, which shares the same {kind,itemType,itemId,text}
// shape as a message but is classified progress, not message.
type ItemContent struct {
	Kind     string `json:"kind"`
	ItemType string `json:"itemType,omitempty"`
	ItemID   string `json:"itemId,omitempty"`
	Text     string `json:"text,omitempty"`
	Item     any    `json:"item,omitempty"`
}

type MessageContent struct {
	Kind     string `json:"kind"`
	ItemType string `json:"itemType"`
	ItemID   string `json:"itemId"`
	Text     string `json:"text"`
}

type CommandExecutionContent struct {
	Command  string `json:"command"`
	Status   string `json:"status"`
	ExitCode *int   `json:"exitCode,omitempty"`
}

type FileChangeContent struct {
	Changes any    `json:"changes"`
	Status  string `json:"status"`
}

type MCPToolCallContent struct {
	Server    string `json:"server"`
	Tool      string `json:"tool"`
	Status    string `json:"status"`
	Arguments any    `json:"arguments,omitempty"`
	Result    any    `json:"result,omitempty"`
	Error     any    `json:"error,omitempty"`
}

type WebSearchContent struct {
	Query string `json:"query"`
}

type TodoListContent struct {
	Items any `json:"items"`
}

type ItemErrorContent struct {
	Message string `json:"message"`
}

// SpawnedContent is the synthetic first event appended at spawn time.
type SpawnedContent struct {
	Kind             string   `json:"kind"`
	Command          string   `json:"command"`
	Args             []string `json:"args"`
	EffectiveSandbox string   `json:"effectiveSandbox,omitempty"`
	Label            string   `json:"label,omitempty"`
}

// FinalContent is the terminal event appended exactly once, last.
type FinalContent struct {
	JobID       string    `json:"jobId"`
	Status      JobStatus `json:"status"`
	ExitCode    *int      `json:"exitCode,omitempty"`
	ExitSignal  *int      `json:"exitSignal,omitempty"`
	LastMessage string    `json:"lastMessage,omitempty"`
}

// ParseErrorContent is appended when a stdout line fails to parse as JSON.
type ParseErrorContent struct {
	Message string `json:"message"`
	Line    string `json:"line"`
	Error   string `json:"error"`
}

// SpawnErrorContent is appended when the child fails to start at all.
type SpawnErrorContent struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
