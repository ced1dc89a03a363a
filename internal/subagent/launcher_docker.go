package subagent

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types"
	dockercontainer "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

// DockerLauncher runs the agent binary inside a fresh, auto-removed
// container instead of as a direct host child. It is selected whenever a
// spawn's EffectiveOptions.ContainerImage is non-empty.
type DockerLauncher struct {
	cli *client.Client
}

// NewDockerLauncher connects to the local Docker daemon using the
// standard environment-derived configuration (DOCKER_HOST and friends).
func NewDockerLauncher() (*DockerLauncher, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &DockerLauncher{cli: cli}, nil
}

func (l *DockerLauncher) Launch(ctx context.Context, spec ProcessSpec) (Process, error) {
	cmd := append([]string{spec.Binary}, spec.Args...)

	containerConfig := &dockercontainer.Config{
		Image:      spec.ContainerImage,
		Cmd:        cmd,
		Env:        spec.Env,
		WorkingDir: spec.WorkingDir,
		Tty:        false,
	}
	hostConfig := &dockercontainer.HostConfig{
		AutoRemove: true,
	}

	created, err := l.cli.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("create container: %w", err)
	}

	attach, err := l.cli.ContainerAttach(ctx, created.ID, dockercontainer.AttachOptions{
		Stream: true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		return nil, fmt.Errorf("attach container: %w", err)
	}

	if err := l.cli.ContainerStart(ctx, created.ID, dockercontainer.StartOptions{}); err != nil {
		attach.Close()
		return nil, fmt.Errorf("start container: %w", err)
	}

	proc := &dockerProcess{
		cli:         l.cli,
		containerID: created.ID,
		hijacked:    attach,
		stdout:      make(chan []byte, 64),
		stderr:      make(chan []byte, 64),
	}
	go proc.pump()
	return proc, nil
}

// dockerProcess implements Process for a container-attached agent run.
type dockerProcess struct {
	cli         *client.Client
	containerID string
	hijacked    types.HijackedResponse

	stdout chan []byte
	stderr chan []byte
}

func (p *dockerProcess) Stdout() <-chan []byte { return p.stdout }
func (p *dockerProcess) Stderr() <-chan []byte { return p.stderr }

// pump demultiplexes Docker's combined stdout/stderr framing into the two
// channels, closing both once the stream ends.
func (p *dockerProcess) pump() {
	defer close(p.stdout)
	defer close(p.stderr)

	stdoutW := chanWriter{ch: p.stdout}
	stderrW := chanWriter{ch: p.stderr}
	_, _ = stdcopy.StdCopy(stdoutW, stderrW, p.hijacked.Reader)
}

// chanWriter adapts a []byte channel to io.Writer so stdcopy.StdCopy can
// demux directly into it without an intermediate buffer.
type chanWriter struct {
	ch chan []byte
}

func (w chanWriter) Write(p []byte) (int, error) {
	buf := make([]byte, len(p))
	copy(buf, p)
	w.ch <- buf
	return len(p), nil
}

func (p *dockerProcess) Signal(force bool) error {
	ctx := context.Background()
	if force {
		timeout := 0
		return p.cli.ContainerStop(ctx, p.containerID, dockercontainer.StopOptions{Timeout: &timeout})
	}
	return p.cli.ContainerStop(ctx, p.containerID, dockercontainer.StopOptions{})
}

func (p *dockerProcess) Wait() (exitCode int, exitSignal *int, err error) {
	ctx := context.Background()
	statusCh, errCh := p.cli.ContainerWait(ctx, p.containerID, dockercontainer.WaitConditionNotRunning)
	select {
	case res := <-statusCh:
		p.hijacked.Close()
		if res.Error != nil {
			return -1, nil, fmt.Errorf("container wait: %s", res.Error.Message)
		}
		return int(res.StatusCode), nil, nil
	case werr := <-errCh:
		p.hijacked.Close()
		return -1, nil, fmt.Errorf("container wait: %w", werr)
	}
}
