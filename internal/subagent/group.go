package subagent

import (
	"context"
	"time"
)

// GroupJobSpec is one entry of a spawn-group request: a prompt plus
// per-job overrides layered onto the group's shared defaults.
type GroupJobSpec struct {
	Prompt    string
	Overrides RequestOptions
}

// GroupJobResult is one entry of a spawn-group response: either a
// successful spawn's identity, or the error that kept it from spawning.
// Exactly one of Error or JobID is populated.
type GroupJobResult struct {
	JobID     string            `json:"jobId,omitempty"`
	Status    JobStatus         `json:"status,omitempty"`
	StartedAt time.Time         `json:"startedAt,omitempty"`
	Label     string            `json:"label,omitempty"`
	Handshake []NormalizedEvent `json:"handshake,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// GroupResult is the full spawn-group response.
type GroupResult struct {
	Results []GroupJobResult `json:"results"`
}

// mergeDefaults layers a per-job override onto the group's shared
// defaults: a non-empty override field wins, otherwise the default shows
// through.
func mergeDefaults(defaults, override RequestOptions) RequestOptions {
	out := defaults
	if override.Model != "" {
		out.Model = override.Model
	}
	if override.ReasoningEffort != "" {
		out.ReasoningEffort = override.ReasoningEffort
	}
	if override.Sandbox != "" {
		out.Sandbox = override.Sandbox
	}
	if override.FullAuto {
		out.FullAuto = true
	}
	if override.WorkingDirectory != "" {
		out.WorkingDirectory = override.WorkingDirectory
	}
	if override.Label != "" {
		out.Label = override.Label
	}
	if override.ContainerImage != "" {
		out.ContainerImage = override.ContainerImage
	}
	return out
}

// SpawnGroup spawns every job in specs independently: one job failing to
// launch (e.g. the concurrency cap was hit partway through the batch)
// does not prevent the others from spawning or abort the whole call.
// When includeHandshake is set, each successfully spawned job's result
// carries whatever event tail has accumulated by the time SpawnGroup
// returns from that job's spawn call — spawning does not block waiting
// for output, so an early job in the batch may have a few events while a
// late one has none yet.
func (m *Manager) SpawnGroup(ctx context.Context, specs []GroupJobSpec, defaults RequestOptions, includeHandshake bool, handshakeMaxEvents int) GroupResult {
	if handshakeMaxEvents <= 0 || handshakeMaxEvents > hardTailMaxEvents {
		handshakeMaxEvents = hardTailMaxEvents
	}

	results := make([]GroupJobResult, 0, len(specs))
	for _, spec := range specs {
		req := mergeDefaults(defaults, spec.Overrides)
		spawned, err := m.SpawnFromRequest(ctx, spec.Prompt, req)
		if err != nil {
			results = append(results, GroupJobResult{Label: req.Label, Error: err.Error()})
			continue
		}

		res := GroupJobResult{
			JobID:     spawned.JobID,
			Status:    spawned.Status,
			StartedAt: spawned.StartedAt,
			Label:     req.Label,
		}
		if includeHandshake {
			if tail, err := m.GetEventTail(spawned.JobID, handshakeMaxEvents, nil); err == nil {
				res.Handshake = tail
			}
		}
		results = append(results, res)
	}

	return GroupResult{Results: results}
}
