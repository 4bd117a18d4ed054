//go:build !windows

package process

import "syscall"

// sysProcAttr puts the child in its own process group so a timeout can tear
// down the tool and anything it spawned.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

func killGroup(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}
