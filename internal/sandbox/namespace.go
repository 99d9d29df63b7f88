package sandbox

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	firecracker "github.com/firecracker-microvm/firecracker-go-sdk"
	"github.com/firecracker-microvm/firecracker-go-sdk/client/models"

	"github.com/radiumhq/radium/internal/errtax"
)

// namespaceSandbox runs each instance in its own Firecracker microVM,
// giving kernel-level isolation stronger than a container. Execute sends
// the command over the guest's vsock channel; this implementation keeps
// the lifecycle (build config, start, stop) from the teacher's microVM
// wrapper and treats the vsock RPC as a narrow command/response exchange.
type namespaceSandbox struct {
	policy    Policy
	machine   *firecracker.Machine
	vsockPath string
}

func newNamespaceSandbox(policy Policy) (*namespaceSandbox, error) {
	if _, err := exec.LookPath("firecracker"); err != nil {
		return nil, errtax.SandboxNotAvailable().WithHint("firecracker binary not found on PATH")
	}
	if policy.FirecrackerKernel == "" || policy.FirecrackerRootfs == "" {
		return nil, errtax.SandboxNotAvailable().WithHint("firecracker kernel/rootfs path not configured")
	}
	return &namespaceSandbox{policy: policy}, nil
}

func (n *namespaceSandbox) Kind() Kind { return KindNamespace }

func (n *namespaceSandbox) Initialize(ctx context.Context) error {
	workDir, err := os.MkdirTemp("", "radium-fc-")
	if err != nil {
		return errtax.Wrap(errtax.KindSandboxNotAvailable, err, "firecracker workdir setup failed")
	}
	socketPath := filepath.Join(workDir, "firecracker.sock")
	vsockPath := filepath.Join(workDir, "vsock.sock")

	cmd := firecracker.VMCommandBuilder{}.
		WithBin("firecracker").
		WithSocketPath(socketPath).
		Build(ctx)

	cfg := firecracker.Config{
		SocketPath:      socketPath,
		KernelImagePath: n.policy.FirecrackerKernel,
		KernelArgs:      "console=ttyS0 reboot=k panic=1 pci=off",
		Drives: []models.Drive{
			{
				DriveID:      firecracker.String("rootfs"),
				PathOnHost:   firecracker.String(n.policy.FirecrackerRootfs),
				IsRootDevice: firecracker.Bool(true),
				IsReadOnly:   firecracker.Bool(false),
			},
		},
		MachineCfg: models.MachineConfiguration{
			VcpuCount:  firecracker.Int64(1),
			MemSizeMib: firecracker.Int64(int64(n.policy.DefaultMemoryMB)),
			Smt:        firecracker.Bool(false),
		},
		VsockDevices: []firecracker.VsockDevice{
			{Path: vsockPath, CID: 3},
		},
	}

	machine, err := firecracker.NewMachine(ctx, cfg, firecracker.WithProcessRunner(cmd))
	if err != nil {
		return errtax.Wrap(errtax.KindSandboxNotAvailable, err, "firecracker machine construction failed")
	}
	if err := machine.Start(ctx); err != nil {
		return errtax.Wrap(errtax.KindSandboxNotAvailable, err, "firecracker machine start failed")
	}
	n.machine = machine
	n.vsockPath = vsockPath
	return nil
}

func (n *namespaceSandbox) Cleanup(ctx context.Context) error {
	if n.machine == nil {
		return nil
	}
	return n.machine.StopVMM()
}

// Execute sends the command to the guest agent over vsock and waits for a
// response, bounded by req.Timeout.
func (n *namespaceSandbox) Execute(ctx context.Context, req ExecRequest) (ExecResult, error) {
	if n.machine == nil {
		return ExecResult{}, errtax.SandboxNotAvailable().WithHint("namespace sandbox not initialized")
	}
	timeout := req.Timeout
	if timeout == 0 {
		timeout = n.policy.DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := sendGuestCommand(runCtx, n.vsockPath, req)
	if err != nil {
		if runCtx.Err() != nil {
			return ExecResult{TimedOut: true}, nil
		}
		return ExecResult{}, errtax.Wrap(errtax.KindToolTimeout, err, "guest command failed")
	}
	return resp, nil
}
