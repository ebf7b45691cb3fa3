package procattr

import (
	"os"
	"syscall"
)

// SignalGroup signals the process group rooted at p. The negative pid asks
// the kernel to deliver to every member of the group, so shells and helpers
// spawned by the CLI receive it too. A nil process is a no-op.
func SignalGroup(p *os.Process, sig syscall.Signal) error {
	if p == nil {
		return nil
	}
	return syscall.Kill(-p.Pid, sig)
}

// KillGroup forcibly terminates the process group rooted at p.
func KillGroup(p *os.Process) error {
	return SignalGroup(p, syscall.SIGKILL)
}
