package daemon

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"
)

type SocketListener struct {
	path     string
	listener net.Listener
}

func NewSocketListener(socketPath string) *SocketListener {
	return &SocketListener{path: socketPath}
}

// Start listens on the socket path, removing a leftover socket first. The
// socket is only accessible to the owner.
func (sl *SocketListener) Start() error {
	if err := os.MkdirAll(filepath.Dir(sl.path), 0700); err != nil {
		return fmt.Errorf("failed to create socket dir: %w", err)
	}

	if err := os.Remove(sl.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove socket: %w", err)
	}

	listener, err := net.Listen("unix", sl.path)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	sl.listener = listener

	if err := os.Chmod(sl.path, 0700); err != nil {
		listener.Close()
		return fmt.Errorf("failed to chmod socket: %w", err)
	}
	return nil
}

func (sl *SocketListener) Accept() (net.Conn, error) {
	if sl.listener == nil {
		return nil, fmt.Errorf("listener not started")
	}
	return sl.listener.Accept()
}

// Close stops listening and removes the socket file.
func (sl *SocketListener) Close() error {
	if sl.listener == nil {
		return nil
	}
	err := sl.listener.Close()
	os.Remove(sl.path)
	return err
}

func (sl *SocketListener) Path() string {
	return sl.path
}

type SocketConnector struct {
	path    string
	timeout time.Duration
}

func NewSocketConnector(socketPath string) *SocketConnector {
	return &SocketConnector{path: socketPath, timeout: 2 * time.Second}
}

func (sc *SocketConnector) Connect(ctx context.Context) (net.Conn, error) {
	d := net.Dialer{Timeout: sc.timeout}
	return d.DialContext(ctx, "unix", sc.path)
}
