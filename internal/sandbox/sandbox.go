// Package sandbox implements §4.E: isolated command execution behind a
// single Sandbox interface, with None/Process/Docker/Namespace backends
// selected by policy.
package sandbox

import (
	"context"
	"time"

	"github.com/radiumhq/radium/internal/errtax"
)

// Kind names a sandbox backend, matching SandboxPolicy.Kind in the data
// model.
type Kind string

const (
	KindNone      Kind = "none"
	KindDocker    Kind = "docker"
	KindProcess   Kind = "process"
	KindNamespace Kind = "namespace"
)

// ExecRequest is one command to run inside a sandbox instance.
type ExecRequest struct {
	Command         []string
	Stdin           string
	Env             map[string]string
	WorkspaceDir    string
	WorkspaceAccess WorkspaceAccess
	Timeout         time.Duration
	CPULimitMillis  int
	MemLimitMB      int
	NetworkEnabled  bool
}

// WorkspaceAccess controls how much of the caller's workspace a sandbox
// instance can see.
type WorkspaceAccess string

const (
	WorkspaceNone      WorkspaceAccess = "none"
	WorkspaceReadOnly  WorkspaceAccess = "ro"
	WorkspaceReadWrite WorkspaceAccess = "rw"
)

// ExecResult is the outcome of running one ExecRequest.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// Sandbox isolates command execution. Initialize prepares backing
// resources (a container, a namespace, a microVM); Execute may be called
// more than once against the same instance; Cleanup releases resources and
// must be safe to call after a failed Initialize.
type Sandbox interface {
	Initialize(ctx context.Context) error
	Execute(ctx context.Context, req ExecRequest) (ExecResult, error)
	Cleanup(ctx context.Context) error
	Kind() Kind
}

// Policy selects and configures a sandbox instance for one tool invocation.
type Policy struct {
	Kind            Kind
	WorkspaceAccess WorkspaceAccess
	NetworkEnabled  bool
	DefaultTimeout  time.Duration
	DefaultCPU      int
	DefaultMemoryMB int
	DockerImage     string
	FirecrackerKernel string
	FirecrackerRootfs string
}

// DefaultPolicy matches the teacher's executor defaults: Docker backend,
// 30s timeout, 1 core, 512MB, read-only workspace, network disabled.
func DefaultPolicy() Policy {
	return Policy{
		Kind:            KindDocker,
		WorkspaceAccess: WorkspaceReadOnly,
		NetworkEnabled:  false,
		DefaultTimeout:  30 * time.Second,
		DefaultCPU:      1000,
		DefaultMemoryMB: 512,
		DockerImage:     "radium-sandbox:latest",
	}
}

// New constructs the Sandbox variant named by policy.Kind. A backend whose
// prerequisites are unavailable (no docker daemon, no firecracker binary)
// returns errtax.SandboxNotAvailable rather than silently degrading, so the
// caller's fallback-to-None decision is explicit and logged.
func New(policy Policy) (Sandbox, error) {
	switch policy.Kind {
	case KindNone, "":
		return &noneSandbox{}, nil
	case KindProcess:
		return newProcessSandbox(policy), nil
	case KindDocker:
		return newDockerSandbox(policy)
	case KindNamespace:
		return newNamespaceSandbox(policy)
	default:
		return nil, errtax.SandboxNotAvailable().WithHint("unknown sandbox kind: " + string(policy.Kind))
	}
}

// NewWithFallback behaves like New but falls back to the None backend
// (with the original error attached as Cause) when the requested backend's
// prerequisites are unavailable, matching §4.E's "sandbox unavailable
// degrades to None with a surfaced warning" behavior.
func NewWithFallback(policy Policy) (Sandbox, *errtax.Error) {
	sb, err := New(policy)
	if err == nil {
		return sb, nil
	}
	taxErr, ok := errtax.Of(err)
	if !ok {
		taxErr = errtax.Wrap(errtax.KindSandboxNotAvailable, err, err.Error())
	}
	return &noneSandbox{}, taxErr
}
