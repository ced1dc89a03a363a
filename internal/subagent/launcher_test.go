package subagent

import (
	"context"
	"errors"
	"testing"
)

type stubLauncher struct {
	called bool
	err    error
}

func (l *stubLauncher) Launch(ctx context.Context, spec ProcessSpec) (Process, error) {
	l.called = true
	if l.err != nil {
		return nil, l.err
	}
	return &fakeProcess{
		stdout: make(chan []byte),
		stderr: make(chan []byte),
		done:   make(chan struct{}),
	}, nil
}

func TestDispatchLauncher_RoutesToLocalWhenNoContainerImage(t *testing.T) {
	local := &stubLauncher{}
	docker := &stubLauncher{}
	d := DispatchLauncher{Local: local, Docker: docker}

	if _, err := d.Launch(context.Background(), ProcessSpec{Binary: "codex"}); err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	if !local.called {
		t.Error("DispatchLauncher did not route to Local for an empty ContainerImage")
	}
	if docker.called {
		t.Error("DispatchLauncher routed to Docker for an empty ContainerImage")
	}
}

func TestDispatchLauncher_RoutesToDockerWhenContainerImageSet(t *testing.T) {
	local := &stubLauncher{}
	docker := &stubLauncher{}
	d := DispatchLauncher{Local: local, Docker: docker}

	if _, err := d.Launch(context.Background(), ProcessSpec{Binary: "codex", ContainerImage: "ghcr.io/example/agent:latest"}); err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	if local.called {
		t.Error("DispatchLauncher routed to Local for a non-empty ContainerImage")
	}
	if !docker.called {
		t.Error("DispatchLauncher did not route to Docker for a non-empty ContainerImage")
	}
}

func TestDispatchLauncher_NilDockerFailsContainerSpawn(t *testing.T) {
	d := DispatchLauncher{Local: &stubLauncher{}, Docker: nil}

	_, err := d.Launch(context.Background(), ProcessSpec{Binary: "codex", ContainerImage: "ghcr.io/example/agent:latest"})
	if err == nil {
		t.Fatal("Launch() with nil Docker and a ContainerImage set returned no error")
	}
}

func TestDispatchLauncher_PropagatesBackendError(t *testing.T) {
	wantErr := errors.New("launch failed")
	d := DispatchLauncher{Local: &stubLauncher{err: wantErr}, Docker: &stubLauncher{}}

	_, err := d.Launch(context.Background(), ProcessSpec{Binary: "codex"})
	if !errors.Is(err, wantErr) {
		t.Errorf("Launch() error = %v, want %v", err, wantErr)
	}
}

func TestQuoteWindowsArg(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want string
	}{
		{"empty string", "", `""`},
		{"no special characters", "plainarg", "plainarg"},
		{"contains a space", "has space", `"has space"`},
		{"contains a quote", `has"quote`, `"has\"quote"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := quoteWindowsArg(tt.arg); got != tt.want {
				t.Errorf("quoteWindowsArg(%q) = %q, want %q", tt.arg, got, tt.want)
			}
		})
	}
}
