//go:build linux

package supervisor

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// tryWait performs a non-blocking wait4 on the child's pid, classifying a
// signal-terminated exit as Crash (spec.md §4.4: "Crash if terminated by
// signal, else Ok").
func tryWait(cmd *exec.Cmd) (running bool, exitKind ExitKind, err error) {
	if cmd.Process == nil {
		return false, ExitOk, nil
	}
	var ws unix.WaitStatus
	pid, werr := unix.Wait4(cmd.Process.Pid, &ws, unix.WNOHANG, nil)
	if werr != nil {
		return false, ExitOk, werr
	}
	if pid == 0 {
		return true, ExitOk, nil
	}
	if ws.Signaled() {
		return false, ExitCrash, nil
	}
	return false, ExitOk, nil
}

// kill sends SIGKILL and blockingly reaps the child so it never becomes a
// zombie.
func kill(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Signal(syscall.SIGKILL); err != nil {
		return err
	}
	var ws unix.WaitStatus
	_, err := unix.Wait4(cmd.Process.Pid, &ws, 0, nil)
	return err
}
