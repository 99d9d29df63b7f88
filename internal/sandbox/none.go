package sandbox

import (
	"context"
	"os/exec"
	"strings"
)

// noneSandbox runs commands directly on the host with no isolation. Used
// when sandboxing is disabled or as the explicit degrade target when a
// requested backend is unavailable.
type noneSandbox struct{}

func (n *noneSandbox) Initialize(ctx context.Context) error { return nil }
func (n *noneSandbox) Cleanup(ctx context.Context) error     { return nil }
func (n *noneSandbox) Kind() Kind                            { return KindNone }

func (n *noneSandbox) Execute(ctx context.Context, req ExecRequest) (ExecResult, error) {
	if len(req.Command) == 0 {
		return ExecResult{}, errEmptyCommand
	}
	runCtx := ctx
	var cancel context.CancelFunc
	if req.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(runCtx, req.Command[0], req.Command[1:]...)
	if req.Stdin != "" {
		cmd.Stdin = strings.NewReader(req.Stdin)
	}
	for k, v := range req.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	if req.WorkspaceDir != "" {
		cmd.Dir = req.WorkspaceDir
	}
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := ExecResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if runCtx.Err() != nil {
		result.TimedOut = true
		return result, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	if err != nil {
		return result, err
	}
	return result, nil
}
