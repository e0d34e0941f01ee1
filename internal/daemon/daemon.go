package daemon

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/alucardeht/prosaic/internal/logger"
	"github.com/alucardeht/prosaic/internal/mcp"
	"github.com/alucardeht/prosaic/internal/tools"
)

var log = logger.ForComponent("daemon")

// Daemon serves the tool registry over a unix socket. Each connection is a
// JSON-RPC 2.0 session with Content-Length framing.
type Daemon struct {
	listener *SocketListener
	registry *tools.Registry
	server   *mcp.Server

	connMu      sync.Mutex
	connections map[*jsonrpc2.Conn]struct{}
	wg          sync.WaitGroup

	ctx          context.Context
	cancel       context.CancelFunc
	shutdown     chan struct{}
	shutdownOnce sync.Once
	startTime    time.Time
}

func NewDaemon(socketPath string, registry *tools.Registry) *Daemon {
	return &Daemon{
		listener:    NewSocketListener(socketPath),
		registry:    registry,
		server:      mcp.NewServer(registry),
		connections: make(map[*jsonrpc2.Conn]struct{}),
		shutdown:    make(chan struct{}),
	}
}

// Start listens on the socket and accepts connections in the background
// until Shutdown is called or ctx is done.
func (d *Daemon) Start(ctx context.Context) error {
	if err := d.listener.Start(); err != nil {
		return err
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.startTime = time.Now()

	d.wg.Add(1)
	go d.acceptConnections()

	go func() {
		select {
		case <-d.ctx.Done():
			d.Shutdown()
		case <-d.shutdown:
		}
	}()

	log.Info("daemon listening", "socket", d.listener.Path(), "tools", d.ToolCount())
	return nil
}

func (d *Daemon) acceptConnections() {
	defer d.wg.Done()

	for {
		netConn, err := d.listener.Accept()
		if err != nil {
			select {
			case <-d.shutdown:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Warn("accept failed", "error", err)
			continue
		}

		stream := jsonrpc2.NewBufferedStream(netConn, jsonrpc2.VSCodeObjectCodec{})
		conn := jsonrpc2.NewConn(d.ctx, stream, jsonrpc2.AsyncHandler(jsonrpc2.HandlerWithError(d.handle)))

		d.track(conn)
	}
}

// track registers conn until it disconnects. A connection accepted after
// Shutdown started is closed instead of registered.
func (d *Daemon) track(conn *jsonrpc2.Conn) bool {
	d.connMu.Lock()
	select {
	case <-d.shutdown:
		d.connMu.Unlock()
		conn.Close()
		return false
	default:
	}
	d.connections[conn] = struct{}{}
	d.connMu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		<-conn.DisconnectNotify()
		d.connMu.Lock()
		delete(d.connections, conn)
		d.connMu.Unlock()
	}()
	return true
}

// handle bridges a jsonrpc2 request to the MCP handler.
func (d *Daemon) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	mreq := &mcp.Request{
		JSONRPC: "2.0",
		Method:  req.Method,
	}
	if !req.Notif {
		mreq.ID = req.ID.String()
	}
	if req.Params != nil {
		mreq.Params = *req.Params
	}

	resp := d.server.HandleRequest(ctx, mreq)
	if resp.Error != nil {
		return nil, &jsonrpc2.Error{
			Code:    int64(resp.Error.Code),
			Message: resp.Error.Message,
		}
	}
	return resp.Result, nil
}

func (d *Daemon) Shutdown() {
	d.shutdownOnce.Do(func() {
		close(d.shutdown)

		if err := d.listener.Close(); err != nil {
			log.Warn("failed to close listener", "error", err)
		}

		d.connMu.Lock()
		for conn := range d.connections {
			conn.Close()
		}
		d.connMu.Unlock()

		if d.cancel != nil {
			d.cancel()
		}
	})
}

// Wait blocks until Shutdown has closed every connection.
func (d *Daemon) Wait() {
	<-d.shutdown
	d.wg.Wait()
	log.Info("daemon stopped", "uptime", d.Uptime().Round(time.Second))
}

func (d *Daemon) Done() <-chan struct{} {
	return d.shutdown
}

func (d *Daemon) SocketPath() string {
	return d.listener.Path()
}

func (d *Daemon) Uptime() time.Duration {
	if d.startTime.IsZero() {
		return 0
	}
	return time.Since(d.startTime)
}

func (d *Daemon) ToolCount() int {
	return len(d.registry.Names())
}
