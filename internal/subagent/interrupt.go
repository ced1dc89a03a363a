package subagent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// InterruptOptions are the caller-supplied inputs to Interrupt.
type InterruptOptions struct {
	NewPrompt        string
	WaitMs           int
	IncludeEventTail bool
	TailMaxEvents    int
	Overrides        RequestOptions
}

// InterruptResult is the payload Interrupt returns.
type InterruptResult struct {
	PreviousJobID     string    `json:"previousJobId"`
	PreviousStatus    JobStatus `json:"previousStatus"`
	Respawned         bool      `json:"respawned"`
	NewJobID          string    `json:"newJobId,omitempty"`
	Reason            string    `json:"reason,omitempty"`
}

const (
	defaultInterruptWaitMs     = 250
	interruptWaitHardCapMs     = 60_000
	defaultTailMaxEvents       = 25
	hardTailMaxEvents          = 25
)

// Interrupt requests graceful cancellation of a running job, optionally
// waits for it to exit, and if it did not complete naturally, respawns
// with prior context folded into a new prompt.
func (m *Manager) Interrupt(jobID string, opts InterruptOptions) (InterruptResult, error) {
	status, err := m.Status(jobID)
	if err != nil {
		return InterruptResult{}, err
	}

	// Step 1.
	if status.Status != StatusRunning {
		return InterruptResult{
			PreviousJobID:  jobID,
			PreviousStatus: status.Status,
			Respawned:      false,
			Reason:         fmt.Sprintf("job is not running (status=%s)", status.Status),
		}, nil
	}

	// Step 2.
	meta, err := m.GetSpawnMetadata(jobID)
	if err != nil {
		return InterruptResult{}, err
	}

	// Step 3.
	tailMaxEvents := opts.TailMaxEvents
	if tailMaxEvents <= 0 {
		tailMaxEvents = defaultTailMaxEvents
	}
	if tailMaxEvents > hardTailMaxEvents {
		tailMaxEvents = hardTailMaxEvents
	}

	var tail []NormalizedEvent
	if opts.IncludeEventTail {
		tail, err = m.GetEventTail(jobID, tailMaxEvents, []EventType{EventMessage, EventError, EventProgress})
		if err != nil {
			return InterruptResult{}, err
		}
	}

	// Step 4.
	success, err := m.Cancel(jobID, false)
	if err != nil {
		return InterruptResult{}, err
	}
	if !success {
		current, err := m.Status(jobID)
		if err != nil {
			return InterruptResult{}, err
		}
		return InterruptResult{
			PreviousJobID:  jobID,
			PreviousStatus: current.Status,
			Respawned:      false,
			Reason:         fmt.Sprintf("job is not running (status=%s)", current.Status),
		}, nil
	}

	// Step 5.
	waitMs := opts.WaitMs
	if waitMs == 0 {
		waitMs = defaultInterruptWaitMs
	}
	if waitMs > interruptWaitHardCapMs {
		waitMs = interruptWaitHardCapMs
	}
	if waitMs > 0 {
		if _, err := m.WaitForExit(jobID, waitMs); err != nil {
			return InterruptResult{}, err
		}
	}

	// Step 6.
	current, err := m.Status(jobID)
	if err != nil {
		return InterruptResult{}, err
	}
	if current.Status == StatusDone || current.Status == StatusFailed {
		return InterruptResult{
			PreviousJobID:  jobID,
			PreviousStatus: current.Status,
			Respawned:      false,
			Reason:         "job completed naturally while waiting for cancellation",
		}, nil
	}

	// Step 7.
	newEffective := overlayEffective(meta.Effective, opts.Overrides)

	// Step 8.
	prompt := buildRespawnPrompt(jobID, tail, opts.NewPrompt)

	// Step 9.
	spawnResult, err := m.SpawnFromEffective(context.Background(), prompt, newEffective, meta.Label)
	if err != nil {
		return InterruptResult{}, err
	}

	return InterruptResult{
		PreviousJobID:  jobID,
		PreviousStatus: current.Status,
		Respawned:      true,
		NewJobID:       spawnResult.JobID,
	}, nil
}

const respawnReminder = "Before making further edits, re-read any files you intend to change: they may have been modified since your prior context was captured."

// buildRespawnPrompt assembles the fixed respawn-prompt template: a prior-
// context header, the captured event tail, an updated-instructions
// section, and a standing reminder to re-read files before editing them.
func buildRespawnPrompt(previousJobID string, tail []NormalizedEvent, newPrompt string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Prior Context (from interrupted job %s)\n", previousJobID)

	if len(tail) == 0 {
		b.WriteString("(no captured events)\n")
	} else {
		for _, ev := range tail {
			fmt.Fprintf(&b, "[%s] %s: %s\n", ev.Timestamp.Format(time.RFC3339), ev.Type, summarizeContent(ev.Content))
		}
	}

	b.WriteString("\nUpdated Instructions\n")
	b.WriteString(newPrompt)
	b.WriteString("\n\n")
	b.WriteString(respawnReminder)
	return b.String()
}

// summarizeContent renders one event's content as a short single-line
// summary for the respawn prompt's event-tail section. Content without a
// dedicated case is JSON-encoded and cut to maxSummaryBytes.
func summarizeContent(content any) string {
	switch c := content.(type) {
	case MessageContent:
		return c.Text
	case ItemContent:
		if c.Text != "" {
			return c.Text
		}
		return c.ItemType
	case TurnFailedContent:
		return fmt.Sprintf("%v", c.Error)
	case ItemErrorContent:
		return c.Message
	case ParseErrorContent:
		return c.Message
	default:
		data, err := json.Marshal(content)
		if err != nil {
			return fmt.Sprintf("%v", content)
		}
		if len(data) > maxSummaryBytes {
			data = data[:maxSummaryBytes]
		}
		return string(data)
	}
}

// maxSummaryBytes bounds one JSON-encoded event summary in the respawn
// prompt.
const maxSummaryBytes = 500
