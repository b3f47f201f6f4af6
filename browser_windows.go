//go:build windows

package resumd

import (
	"os/exec"
	"strconv"
)

// killTree ends Chrome and its helper processes.
func killTree(pid int) {
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run() // #nosec G204 -- pid from our launcher
}
