package sandbox

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/radiumhq/radium/internal/errtax"
)

// dockerSandbox runs each Execute call in a fresh, disposable container
// built from policy.DockerImage, replacing the teacher's CLI-shelled
// `docker run` invocations with the official SDK client.
type dockerSandbox struct {
	policy Policy
	cli    *client.Client
}

func newDockerSandbox(policy Policy) (*dockerSandbox, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, errtax.SandboxNotAvailable().WithHint("docker client: " + err.Error())
	}
	return &dockerSandbox{policy: policy, cli: cli}, nil
}

func (d *dockerSandbox) Kind() Kind { return KindDocker }

func (d *dockerSandbox) Initialize(ctx context.Context) error {
	if _, err := d.cli.Ping(ctx); err != nil {
		return errtax.SandboxNotAvailable().WithHint("docker daemon unreachable: " + err.Error())
	}
	reader, err := d.cli.ImagePull(ctx, d.policy.DockerImage, image.PullOptions{})
	if err != nil {
		return errtax.SandboxNotAvailable().WithHint("docker image pull: " + err.Error())
	}
	defer reader.Close()
	_, _ = io.Copy(io.Discard, reader)
	return nil
}

func (d *dockerSandbox) Cleanup(ctx context.Context) error {
	return d.cli.Close()
}

func (d *dockerSandbox) Execute(ctx context.Context, req ExecRequest) (ExecResult, error) {
	if len(req.Command) == 0 {
		return ExecResult{}, errEmptyCommand
	}
	timeout := req.Timeout
	if timeout == 0 {
		timeout = d.policy.DefaultTimeout
	}
	runCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	env := make([]string, 0, len(req.Env))
	for k, v := range req.Env {
		env = append(env, k+"="+v)
	}

	hostCfg := &container.HostConfig{
		NetworkMode: "none",
		Resources: container.Resources{
			NanoCPUs: int64(d.policy.DefaultCPU) * 1_000_000,
			Memory:   int64(d.policy.DefaultMemoryMB) * 1024 * 1024,
		},
	}
	if req.NetworkEnabled || d.policy.NetworkEnabled {
		hostCfg.NetworkMode = "bridge"
	}
	if req.WorkspaceDir != "" && req.WorkspaceAccess != WorkspaceNone {
		mode := "ro"
		if req.WorkspaceAccess == WorkspaceReadWrite {
			mode = "rw"
		}
		hostCfg.Binds = []string{req.WorkspaceDir + ":/workspace:" + mode}
	}

	resp, err := d.cli.ContainerCreate(runCtx, &container.Config{
		Image:        d.policy.DockerImage,
		Cmd:          req.Command,
		Env:          env,
		WorkingDir:   "/workspace",
		Tty:          false,
		AttachStdout: true,
		AttachStderr: true,
	}, hostCfg, nil, nil, "")
	if err != nil {
		return ExecResult{}, errtax.Wrap(errtax.KindSandboxNotAvailable, err, "docker container create failed")
	}
	defer d.cli.ContainerRemove(context.Background(), resp.ID, container.RemoveOptions{Force: true})

	if err := d.cli.ContainerStart(runCtx, resp.ID, container.StartOptions{}); err != nil {
		return ExecResult{}, errtax.Wrap(errtax.KindSandboxNotAvailable, err, "docker container start failed")
	}

	statusCh, errCh := d.cli.ContainerWait(runCtx, resp.ID, container.WaitConditionNotRunning)
	var exitCode int
	var timedOut bool
	select {
	case err := <-errCh:
		if runCtx.Err() != nil {
			timedOut = true
		} else if err != nil {
			return ExecResult{}, err
		}
	case status := <-statusCh:
		exitCode = int(status.StatusCode)
	case <-runCtx.Done():
		timedOut = true
	}

	logs, err := d.cli.ContainerLogs(context.Background(), resp.ID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return ExecResult{ExitCode: exitCode, TimedOut: timedOut}, nil
	}
	defer logs.Close()

	var stdout, stderr bytes.Buffer
	_, _ = stdcopy.StdCopy(&stdout, &stderr, logs)

	return ExecResult{
		Stdout:   strings.TrimRight(stdout.String(), "\n"),
		Stderr:   strings.TrimRight(stderr.String(), "\n"),
		ExitCode: exitCode,
		TimedOut: timedOut,
	}, nil
}
