package subagent

import (
	"context"
	"fmt"
	"testing"
)

func TestMergeDefaults(t *testing.T) {
	defaults := RequestOptions{
		Model:  "gpt-5",
		Label:  "default-label",
		Sandbox: SandboxReadOnly,
	}
	tests := []struct {
		name     string
		override RequestOptions
		want     RequestOptions
	}{
		{
			name:     "empty override inherits everything",
			override: RequestOptions{},
			want:     defaults,
		},
		{
			name:     "override model wins",
			override: RequestOptions{Model: "gpt-6"},
			want:     RequestOptions{Model: "gpt-6", Label: "default-label", Sandbox: SandboxReadOnly},
		},
		{
			name:     "override label wins",
			override: RequestOptions{Label: "job-1"},
			want:     RequestOptions{Model: "gpt-5", Label: "job-1", Sandbox: SandboxReadOnly},
		},
		{
			name:     "fullAuto override only sets, never clears",
			override: RequestOptions{FullAuto: true},
			want:     RequestOptions{Model: "gpt-5", Label: "default-label", Sandbox: SandboxReadOnly, FullAuto: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mergeDefaults(defaults, tt.override)
			if got != tt.want {
				t.Errorf("mergeDefaults() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// fakeLauncher hands back a fakeProcess per Launch call without ever
// starting a real child.
type fakeLauncher struct {
	launches int
	failAt   int // 1-indexed launch number that should fail, 0 disables
}

func (l *fakeLauncher) Launch(ctx context.Context, spec ProcessSpec) (Process, error) {
	l.launches++
	if l.failAt != 0 && l.launches == l.failAt {
		return nil, fmt.Errorf("simulated launch failure")
	}
	return &fakeProcess{
		stdout: make(chan []byte),
		stderr: make(chan []byte),
		done:   make(chan struct{}),
	}, nil
}

type fakeProcess struct {
	stdout chan []byte
	stderr chan []byte
	done   chan struct{}
}

func (p *fakeProcess) Stdout() <-chan []byte { return p.stdout }
func (p *fakeProcess) Stderr() <-chan []byte { return p.stderr }
func (p *fakeProcess) Signal(force bool) error {
	close(p.stdout)
	close(p.stderr)
	close(p.done)
	return nil
}
func (p *fakeProcess) Wait() (int, *int, error) {
	<-p.done
	return 0, nil, nil
}

func TestSpawnGroup_IndependentFailures(t *testing.T) {
	launcher := &fakeLauncher{failAt: 2}
	mgr := NewManager(ManagerOptions{Launcher: launcher, Binary: "fake-agent"})

	specs := []GroupJobSpec{
		{Prompt: "job one"},
		{Prompt: "job two"},
		{Prompt: "job three"},
	}

	result := mgr.SpawnGroup(context.Background(), specs, RequestOptions{}, false, 0)
	if len(result.Results) != 3 {
		t.Fatalf("len(Results) = %d, want 3", len(result.Results))
	}
	if result.Results[0].Error != "" {
		t.Errorf("job 1: unexpected error %q", result.Results[0].Error)
	}
	if result.Results[1].Error == "" {
		t.Error("job 2: expected a launch error, got none")
	}
	if result.Results[2].Error != "" {
		t.Errorf("job 3: unexpected error %q (one failure should not abort the batch)", result.Results[2].Error)
	}
}

func TestSpawnGroup_LabelsCarryThroughDefaults(t *testing.T) {
	launcher := &fakeLauncher{}
	mgr := NewManager(ManagerOptions{Launcher: launcher, Binary: "fake-agent"})

	specs := []GroupJobSpec{
		{Prompt: "job one", Overrides: RequestOptions{Label: "custom"}},
		{Prompt: "job two"},
	}
	defaults := RequestOptions{Label: "shared"}

	result := mgr.SpawnGroup(context.Background(), specs, defaults, false, 0)
	if result.Results[0].Label != "custom" {
		t.Errorf("job 1 Label = %q, want %q", result.Results[0].Label, "custom")
	}
	if result.Results[1].Label != "shared" {
		t.Errorf("job 2 Label = %q, want %q", result.Results[1].Label, "shared")
	}
}
