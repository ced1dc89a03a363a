package subagent

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestInterrupt_NotRunningShortCircuits(t *testing.T) {
	launcher := &fakeLauncher{}
	mgr := NewManager(ManagerOptions{Launcher: launcher, Binary: "fake-agent"})

	spawned, err := mgr.SpawnFromRequest(context.Background(), "job", RequestOptions{})
	if err != nil {
		t.Fatalf("SpawnFromRequest() error = %v", err)
	}
	if _, err := mgr.Cancel(spawned.JobID, false); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if _, err := mgr.WaitForExit(spawned.JobID, 1000); err != nil {
		t.Fatalf("WaitForExit() error = %v", err)
	}

	result, err := mgr.Interrupt(spawned.JobID, InterruptOptions{NewPrompt: "keep going"})
	if err != nil {
		t.Fatalf("Interrupt() error = %v", err)
	}
	if result.Respawned {
		t.Error("Interrupt() on an already-terminal job respawned, want Respawned=false")
	}
	if result.Reason == "" {
		t.Error("Interrupt() on an already-terminal job gave no Reason")
	}
}

func TestInterrupt_UnknownJob(t *testing.T) {
	mgr := NewManager(ManagerOptions{Launcher: &fakeLauncher{}, Binary: "fake-agent"})
	if _, err := mgr.Interrupt("not-a-real-job", InterruptOptions{NewPrompt: "x"}); err == nil {
		t.Error("Interrupt() on an unknown job returned no error")
	}
}

func TestBuildRespawnPrompt_NoTail(t *testing.T) {
	got := buildRespawnPrompt("job-123", nil, "finish the refactor")
	if !strings.Contains(got, "job-123") {
		t.Errorf("prompt missing previous job id: %q", got)
	}
	if !strings.Contains(got, "(no captured events)") {
		t.Errorf("prompt missing empty-tail marker: %q", got)
	}
	if !strings.Contains(got, "finish the refactor") {
		t.Errorf("prompt missing new instructions: %q", got)
	}
	if !strings.Contains(got, respawnReminder) {
		t.Errorf("prompt missing standing reminder: %q", got)
	}
}

func TestBuildRespawnPrompt_WithTail(t *testing.T) {
	tail := []NormalizedEvent{
		{Type: EventMessage, Timestamp: time.Unix(0, 0).UTC(), Content: MessageContent{Text: "partial progress"}},
	}
	got := buildRespawnPrompt("job-456", tail, "continue")
	if !strings.Contains(got, "partial progress") {
		t.Errorf("prompt missing summarized tail content: %q", got)
	}
}

func TestSummarizeContent(t *testing.T) {
	tests := []struct {
		name    string
		content any
		want    string
	}{
		{"message content", MessageContent{Text: "hello"}, "hello"},
		{"item content with text", ItemContent{Text: "reasoning text"}, "reasoning text"},
		{"item content without text falls back to item type", ItemContent{ItemType: "todo_list"}, "todo_list"},
		{"item error content", ItemErrorContent{Message: "broke"}, "broke"},
		{"parse error content", ParseErrorContent{Message: "bad json"}, "bad json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := summarizeContent(tt.content); got != tt.want {
				t.Errorf("summarizeContent() = %q, want %q", got, tt.want)
			}
		})
	}
}
