//go:build linux

// Package procattr isolates the platform-specific spawn attributes that let
// the adapter terminate an agent CLI together with everything it forked.
package procattr

import (
	"os/exec"
	"syscall"
)

// Set places the child in its own process group so group signals reach the
// CLI and its descendants. Pdeathsig additionally delivers SIGTERM to the
// child if this process dies without cleaning up.
func Set(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGTERM,
	}
}
