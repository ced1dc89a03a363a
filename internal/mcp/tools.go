package mcp

import (
	"context"
	"fmt"

	"github.com/fenwick-labs/subagentd/internal/subagent"
	"github.com/fenwick-labs/subagentd/internal/validation"
	mcp_sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerAllTools registers subagentd's full tool surface against r.
func (s *Server) registerAllTools(r *Registry) {
	Register(r, ToolDef{
		Name:        "spawn",
		Description: "Spawn a new subagent job to execute the given prompt.",
	}, s.handleSpawn)

	Register(r, ToolDef{
		Name:        "spawn-group",
		Description: "Spawn several subagent jobs in one call, each with its own prompt and optional per-job overrides layered onto shared defaults.",
	}, s.handleSpawnGroup)

	Register(r, ToolDef{
		Name:        "status",
		Description: "Get the lifecycle status of a job.",
	}, s.handleStatus)

	Register(r, ToolDef{
		Name:        "result",
		Description: "Get the result of a job: its final message, or (with view=full) the full status plus stdout/stderr tails.",
	}, s.handleResult)

	Register(r, ToolDef{
		Name:        "events",
		Description: "Page through a job's normalized event log using a cursor.",
	}, s.handleEvents)

	Register(r, ToolDef{
		Name:        "cancel",
		Description: "Request cancellation of a running job, graceful or forced.",
	}, s.handleCancel)

	Register(r, ToolDef{
		Name:        "wait-any",
		Description: "Block until any of the given jobs reaches a terminal state, or a timeout elapses.",
	}, s.handleWaitAny)

	Register(r, ToolDef{
		Name:        "interrupt",
		Description: "Gracefully cancel a running job and respawn it with a new prompt, carrying forward its prior event context.",
	}, s.handleInterrupt)

	Register(r, ToolDef{
		Name:        "ping",
		Description: "Trivial liveness probe; always returns \"pong\".",
	}, s.handlePing)
}

// --- spawn ---

type SpawnParams struct {
	Prompt           string `json:"prompt" description:"The task prompt to give the subagent."`
	Model            string `json:"model,omitempty" description:"Model override, e.g. \"gpt-5\"."`
	ReasoningEffort  string `json:"reasoningEffort,omitempty" description:"One of low, medium, high."`
	Sandbox          string `json:"sandbox,omitempty" description:"One of read-only, workspace-write, danger-full-access."`
	FullAuto         bool   `json:"fullAuto,omitempty" description:"Run with --full-auto instead of an explicit sandbox."`
	WorkingDirectory string `json:"workingDirectory,omitempty"`
	Label            string `json:"label,omitempty" description:"Caller-chosen label echoed back in spawn metadata."`
	ContainerImage   string `json:"containerImage,omitempty" description:"Run the job inside this container image instead of as a local process."`
}

func requestOptionsFromSpawnParams(p SpawnParams) subagent.RequestOptions {
	return subagent.RequestOptions{
		Model:            p.Model,
		ReasoningEffort:  subagent.ReasoningEffort(p.ReasoningEffort),
		Sandbox:          subagent.SandboxPolicy(p.Sandbox),
		FullAuto:         p.FullAuto,
		WorkingDirectory: p.WorkingDirectory,
		Label:            p.Label,
		ContainerImage:   p.ContainerImage,
	}
}

func (s *Server) handleSpawn(ctx context.Context, req *mcp_sdk.CallToolRequest, p SpawnParams) (*mcp_sdk.CallToolResult, any, error) {
	if err := validation.ValidatePrompt(p.Prompt); err != nil {
		return nil, nil, err
	}

	result, err := s.manager.SpawnFromRequest(ctx, p.Prompt, requestOptionsFromSpawnParams(p))
	if err != nil {
		return nil, nil, SanitizeError(err, "spawn")
	}
	return nil, result, nil
}

// --- spawn-group ---

type GroupJobParams struct {
	Prompt           string `json:"prompt"`
	Model            string `json:"model,omitempty"`
	ReasoningEffort  string `json:"reasoningEffort,omitempty"`
	Sandbox          string `json:"sandbox,omitempty"`
	FullAuto         bool   `json:"fullAuto,omitempty"`
	WorkingDirectory string `json:"workingDirectory,omitempty"`
	Label            string `json:"label,omitempty"`
	ContainerImage   string `json:"containerImage,omitempty"`
}

type SpawnGroupParams struct {
	Jobs               []GroupJobParams `json:"jobs" description:"One entry per job to spawn."`
	Defaults           GroupJobParams   `json:"defaults,omitempty" description:"Shared defaults layered under each job's own fields."`
	IncludeHandshake   bool             `json:"includeHandshake,omitempty"`
	HandshakeMaxEvents int              `json:"handshakeMaxEvents,omitempty" description:"Capped at 25."`
}

func requestOptionsFromGroupJobParams(p GroupJobParams) subagent.RequestOptions {
	return subagent.RequestOptions{
		Model:            p.Model,
		ReasoningEffort:  subagent.ReasoningEffort(p.ReasoningEffort),
		Sandbox:          subagent.SandboxPolicy(p.Sandbox),
		FullAuto:         p.FullAuto,
		WorkingDirectory: p.WorkingDirectory,
		Label:            p.Label,
		ContainerImage:   p.ContainerImage,
	}
}

func (s *Server) handleSpawnGroup(ctx context.Context, req *mcp_sdk.CallToolRequest, p SpawnGroupParams) (*mcp_sdk.CallToolResult, any, error) {
	if len(p.Jobs) == 0 {
		return nil, nil, fmt.Errorf("jobs must not be empty")
	}

	specs := make([]subagent.GroupJobSpec, 0, len(p.Jobs))
	for _, j := range p.Jobs {
		if err := validation.ValidatePrompt(j.Prompt); err != nil {
			return nil, nil, err
		}
		specs = append(specs, subagent.GroupJobSpec{Prompt: j.Prompt, Overrides: requestOptionsFromGroupJobParams(j)})
	}

	defaults := requestOptionsFromGroupJobParams(p.Defaults)
	result := s.manager.SpawnGroup(ctx, specs, defaults, p.IncludeHandshake, p.HandshakeMaxEvents)
	return nil, result, nil
}

// --- status ---

type JobIDParams struct {
	JobID string `json:"jobId"`
}

func (s *Server) handleStatus(ctx context.Context, req *mcp_sdk.CallToolRequest, p JobIDParams) (*mcp_sdk.CallToolResult, any, error) {
	if err := validation.ValidateJobID(p.JobID); err != nil {
		return nil, nil, err
	}
	view, err := s.manager.Status(p.JobID)
	if err != nil {
		return nil, nil, SanitizeError(err, "status")
	}
	return nil, view, nil
}

// --- result ---

type ResultParams struct {
	JobID string `json:"jobId"`
	View  string `json:"view,omitempty" description:"full or finalMessage (default finalMessage)."`
}

func (s *Server) handleResult(ctx context.Context, req *mcp_sdk.CallToolRequest, p ResultParams) (*mcp_sdk.CallToolResult, any, error) {
	if err := validation.ValidateJobID(p.JobID); err != nil {
		return nil, nil, err
	}
	view, err := s.manager.Result(p.JobID)
	if err != nil {
		return nil, nil, SanitizeError(err, "result")
	}
	if p.View == "full" {
		return nil, view, nil
	}
	return NewTextResult(view.FinalMessage), nil, nil
}

// --- events ---

type EventsParams struct {
	JobID     string `json:"jobId"`
	Cursor    int    `json:"cursor,omitempty"`
	MaxEvents int    `json:"maxEvents,omitempty" description:"Default 200, max 2000."`
}

func (s *Server) handleEvents(ctx context.Context, req *mcp_sdk.CallToolRequest, p EventsParams) (*mcp_sdk.CallToolResult, any, error) {
	if err := validation.ValidateJobID(p.JobID); err != nil {
		return nil, nil, err
	}
	if err := validation.ValidateCursor(p.Cursor); err != nil {
		return nil, nil, err
	}
	page, err := s.manager.GetEvents(p.JobID, p.Cursor, p.MaxEvents)
	if err != nil {
		return nil, nil, SanitizeError(err, "events")
	}
	return nil, page, nil
}

// --- cancel ---

type CancelParams struct {
	JobID string `json:"jobId"`
	Force bool   `json:"force,omitempty"`
}

func (s *Server) handleCancel(ctx context.Context, req *mcp_sdk.CallToolRequest, p CancelParams) (*mcp_sdk.CallToolResult, any, error) {
	if err := validation.ValidateJobID(p.JobID); err != nil {
		return nil, nil, err
	}
	success, err := s.manager.Cancel(p.JobID, p.Force)
	if err != nil {
		return nil, nil, SanitizeError(err, "cancel")
	}
	return nil, map[string]bool{"success": success}, nil
}

// --- wait-any ---

type WaitAnyParams struct {
	JobIDs    []string `json:"jobIds"`
	TimeoutMs int      `json:"timeoutMs,omitempty" description:"Default 0, max 5 minutes."`
}

func (s *Server) handleWaitAny(ctx context.Context, req *mcp_sdk.CallToolRequest, p WaitAnyParams) (*mcp_sdk.CallToolResult, any, error) {
	if len(p.JobIDs) == 0 {
		return nil, nil, fmt.Errorf("jobIds must not be empty")
	}
	for _, id := range p.JobIDs {
		if err := validation.ValidateJobID(id); err != nil {
			return nil, nil, err
		}
	}
	result, err := s.manager.WaitAny(p.JobIDs, p.TimeoutMs)
	if err != nil {
		return nil, nil, SanitizeError(err, "wait-any")
	}
	return nil, result, nil
}

// --- interrupt ---

type InterruptParams struct {
	JobID            string         `json:"jobId"`
	NewPrompt        string         `json:"newPrompt"`
	WaitMs           int            `json:"waitMs,omitempty"`
	IncludeEventTail bool           `json:"includeEventTail,omitempty"`
	TailMaxEvents    int            `json:"tailMaxEvents,omitempty"`
	Overrides        GroupJobParams `json:"overrides,omitempty"`
}

func (s *Server) handleInterrupt(ctx context.Context, req *mcp_sdk.CallToolRequest, p InterruptParams) (*mcp_sdk.CallToolResult, any, error) {
	if err := validation.ValidateJobID(p.JobID); err != nil {
		return nil, nil, err
	}
	if err := validation.ValidatePrompt(p.NewPrompt); err != nil {
		return nil, nil, err
	}

	opts := subagent.InterruptOptions{
		NewPrompt:        p.NewPrompt,
		WaitMs:           p.WaitMs,
		IncludeEventTail: p.IncludeEventTail,
		TailMaxEvents:    p.TailMaxEvents,
		Overrides:        requestOptionsFromGroupJobParams(p.Overrides),
	}

	result, err := s.manager.Interrupt(p.JobID, opts)
	if err != nil {
		return nil, nil, SanitizeError(err, "interrupt")
	}
	return nil, result, nil
}

// --- ping ---

type PingParams struct{}

func (s *Server) handlePing(ctx context.Context, req *mcp_sdk.CallToolRequest, p PingParams) (*mcp_sdk.CallToolResult, any, error) {
	return NewTextResult("pong"), nil, nil
}
