package daemon

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"time"
)

// Lifecycle guards a single daemon instance per data directory with a lock
// file and records its pid.
type Lifecycle struct {
	lockFile   *LockFile
	pidFile    *PIDFile
	socketPath string
}

func NewLifecycle(dataDir, socketPath string) *Lifecycle {
	return &Lifecycle{
		lockFile:   NewLockFile(filepath.Join(dataDir, "daemon.lock")),
		pidFile:    NewPIDFile(filepath.Join(dataDir, "daemon.pid")),
		socketPath: socketPath,
	}
}

// Acquire takes the instance lock and writes the pid file.
func (lm *Lifecycle) Acquire() error {
	if err := lm.lockFile.Acquire(); err != nil {
		if errors.Is(err, ErrLockHeld) {
			if pid, _ := lm.pidFile.Read(); pid > 0 {
				return fmt.Errorf("%w: pid %d", err, pid)
			}
		}
		return fmt.Errorf("failed to acquire instance lock: %w", err)
	}

	if err := lm.pidFile.Write(); err != nil {
		lm.lockFile.Release()
		return err
	}
	return nil
}

// Running reports the pid of a live daemon answering on the socket.
func (lm *Lifecycle) Running() (int, bool) {
	pid, err := lm.pidFile.Read()
	if err != nil || pid == 0 || !processExists(pid) {
		return 0, false
	}
	return pid, lm.isSocketResponsive()
}

func (lm *Lifecycle) isSocketResponsive() bool {
	conn, err := net.DialTimeout("unix", lm.socketPath, 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (lm *Lifecycle) Release() {
	if err := lm.pidFile.Remove(); err != nil {
		log.Warn("failed to remove pid file", "error", err)
	}
	if err := lm.lockFile.Release(); err != nil {
		log.Warn("failed to release lock", "error", err)
	}
}

func (lm *Lifecycle) LockFile() *LockFile {
	return lm.lockFile
}

func (lm *Lifecycle) PIDFile() *PIDFile {
	return lm.pidFile
}
