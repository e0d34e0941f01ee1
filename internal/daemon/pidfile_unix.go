//go:build unix

package daemon

import (
	"errors"

	"golang.org/x/sys/unix"
)

// processExists sends signal 0, which checks for the process without
// delivering anything. EPERM still means the process exists.
func processExists(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
