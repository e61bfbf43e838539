// Package supervisor spawns and reaps the target process (spec.md §4.4),
// built on os/exec plus golang.org/x/sys/unix for non-blocking reap and
// signal-based kill, mirroring the teacher's preference
// (internal/transport/transport_linux.go) for golang.org/x/sys/unix over
// higher-level process abstractions.
package supervisor

import (
	"fmt"
	"io"
	"os"
	"os/exec"
)

// ExitKind classifies how the target process ended (spec.md §4.4/§7).
type ExitKind int

const (
	ExitOk ExitKind = iota
	ExitCrash
)

func (k ExitKind) String() string {
	if k == ExitCrash {
		return "Crash"
	}
	return "Ok"
}

// Env names the environment variables the target reads to locate its shmem
// regions (spec.md §4.4).
const (
	EnvEthName      = "SHMEM_ETH_INTERFACE_NAME"
	EnvEthSize      = "SHMEM_ETH_INTERFACE_SIZE"
	EnvCoverageName = "SHMEM_COVERAGE_NAME"
	EnvCoverageSize = "SHMEM_COVERAGE_SIZE"
)

// Target supervises one target-process lifetime. A fresh Target must be
// created for every execution (spec.md §3 Lifecycle: "created per
// execution").
type Target struct {
	cmd *exec.Cmd
}

// Spawn starts execPath with the shmem descriptor environment variables set
// and stdout/stderr routed to logWriter (nil discards them). ChildSpawnError
// semantics: any error here is fatal to the client (spec.md §7).
func Spawn(execPath string, ethName string, ethSize int, covName string, covSize int, logWriter io.Writer) (*Target, error) {
	cmd := exec.Command(execPath)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("%s=%s", EnvEthName, ethName),
		fmt.Sprintf("%s=%d", EnvEthSize, ethSize),
		fmt.Sprintf("%s=%s", EnvCoverageName, covName),
		fmt.Sprintf("%s=%d", EnvCoverageSize, covSize),
	)
	if logWriter != nil {
		cmd.Stdout = logWriter
		cmd.Stderr = logWriter
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("supervisor: spawn %s: %w", execPath, err)
	}
	return &Target{cmd: cmd}, nil
}

// TryWait performs a non-blocking probe of the child's status. running is
// true if the child has not yet exited.
func (t *Target) TryWait() (running bool, exitKind ExitKind, err error) {
	return tryWait(t.cmd)
}

// Kill sends a SIGKILL-equivalent and reaps the child, never leaving a
// zombie (spec.md §4.4/§5: "must reap to avoid zombies").
func (t *Target) Kill() error {
	return kill(t.cmd)
}

// Pid returns the child's process id.
func (t *Target) Pid() int {
	if t.cmd.Process == nil {
		return -1
	}
	return t.cmd.Process.Pid
}
