package exec

import (
	"context"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

type Limits struct {
	WallTime time.Duration
	MemoryB  int64
	NanoCPUs int64
}

func DefaultLimits() Limits {
	return Limits{
		WallTime: 10 * time.Second,
		MemoryB:  512 * 1024 * 1024,
		NanoCPUs: 1_000_000_000,
	}
}

// Sandbox runs commands inside locked-down containers: no network,
// read-only rootfs, tmpfs workspace, memory and CPU caps.
type Sandbox struct {
	cli    *client.Client
	image  string
	limits Limits
}

func NewSandbox(image string, limits Limits) (*Sandbox, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	return &Sandbox{cli: cli, image: image, limits: limits}, nil
}

func (s *Sandbox) hostConfig() *container.HostConfig {
	return &container.HostConfig{
		NetworkMode:    "none",
		ReadonlyRootfs: true,
		Mounts: []mount.Mount{
			{Type: mount.TypeTmpfs, Target: "/tmp"},
			{Type: mount.TypeTmpfs, Target: "/workspace"},
		},
		Resources: container.Resources{
			Memory:   s.limits.MemoryB,
			NanoCPUs: s.limits.NanoCPUs,
		},
		SecurityOpt: []string{"no-new-privileges"},
	}
}

// Process is one interactive command running in a container. Stdin writes
// go straight to the attached stream.
type Process struct {
	cli    *client.Client
	cid    string
	attach types.HijackedResponse
	cancel context.CancelFunc
}

// Start launches command under /bin/sh with stdin attached. Output chunks
// are demuxed to the callbacks; onExit fires once when the container stops.
func (s *Sandbox) Start(ctx context.Context, command string,
	onStdout, onStderr func([]byte), onExit func(code int)) (*Process, error) {

	runCtx, cancel := context.WithCancel(ctx)

	conf := &container.Config{
		Image:        s.image,
		Cmd:          []string{"/bin/sh", "-c", command},
		Tty:          false,
		OpenStdin:    true,
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
		WorkingDir:   "/workspace",
	}

	create, err := s.cli.ContainerCreate(runCtx, conf, s.hostConfig(), nil, nil, "")
	if err != nil {
		cancel()
		return nil, err
	}
	cid := create.ID

	attach, err := s.cli.ContainerAttach(runCtx, cid, types.ContainerAttachOptions{
		Stream: true, Stdin: true, Stdout: true, Stderr: true,
	})
	if err != nil {
		_ = s.cli.ContainerRemove(context.Background(), cid, types.ContainerRemoveOptions{Force: true})
		cancel()
		return nil, err
	}

	if err := s.cli.ContainerStart(runCtx, cid, types.ContainerStartOptions{}); err != nil {
		attach.Close()
		_ = s.cli.ContainerRemove(context.Background(), cid, types.ContainerRemoveOptions{Force: true})
		cancel()
		return nil, err
	}

	go func() {
		_, _ = stdcopy.StdCopy(writerFunc(onStdout), writerFunc(onStderr), attach.Reader)
	}()

	waitCh, errCh := s.cli.ContainerWait(runCtx, cid, container.WaitConditionNotRunning)
	go func() {
		defer func() {
			attach.Close()
			_ = s.cli.ContainerRemove(context.Background(), cid, types.ContainerRemoveOptions{Force: true})
			cancel()
		}()
		select {
		case w := <-waitCh:
			onExit(int(w.StatusCode))
		case <-errCh:
			onExit(-1)
		}
	}()

	return &Process{cli: s.cli, cid: cid, attach: attach, cancel: cancel}, nil
}

func (p *Process) Input(data string) error {
	_, err := p.attach.Conn.Write([]byte(data))
	return err
}

func (p *Process) Stop() {
	_ = p.cli.ContainerKill(context.Background(), p.cid, "SIGKILL")
}

// RunOnce runs command to completion under the wall-time limit and streams
// output to the callbacks.
func (s *Sandbox) RunOnce(ctx context.Context, command string,
	onStdout, onStderr func([]byte)) (exit int, timedOut bool, err error) {

	runCtx, cancel := context.WithTimeout(ctx, s.limits.WallTime)
	defer cancel()

	conf := &container.Config{
		Image:        s.image,
		Cmd:          []string{"/bin/sh", "-c", command},
		Tty:          false,
		AttachStdout: true,
		AttachStderr: true,
		WorkingDir:   "/workspace",
	}

	create, err := s.cli.ContainerCreate(runCtx, conf, s.hostConfig(), nil, nil, "")
	if err != nil {
		return 0, false, err
	}
	cid := create.ID
	defer func() {
		_ = s.cli.ContainerRemove(context.Background(), cid, types.ContainerRemoveOptions{Force: true})
	}()

	attach, err := s.cli.ContainerAttach(runCtx, cid, types.ContainerAttachOptions{
		Stream: true, Stdout: true, Stderr: true,
	})
	if err != nil {
		return 0, false, err
	}
	defer attach.Close()

	if err := s.cli.ContainerStart(runCtx, cid, types.ContainerStartOptions{}); err != nil {
		return 0, false, err
	}

	done := make(chan struct{})
	go func() {
		_, _ = stdcopy.StdCopy(writerFunc(onStdout), writerFunc(onStderr), attach.Reader)
		close(done)
	}()

	waitCh, errCh := s.cli.ContainerWait(runCtx, cid, container.WaitConditionNotRunning)
	select {
	case w := <-waitCh:
		<-done
		return int(w.StatusCode), false, nil
	case werr := <-errCh:
		if runCtx.Err() != nil {
			_ = s.cli.ContainerKill(context.Background(), cid, "SIGKILL")
			return -1, true, nil
		}
		return 0, false, werr
	}
}

type writerFunc func([]byte)

func (f writerFunc) Write(p []byte) (int, error) {
	f(p)
	return len(p), nil
}
