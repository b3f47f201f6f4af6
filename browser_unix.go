//go:build !windows

package resumd

import "syscall"

// killTree signals Chrome's whole process group; renderer and GPU helpers
// otherwise outlive a crashed or hung browser.
func killTree(pid int) {
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
