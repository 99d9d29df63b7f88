package sandbox

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

// guestAgentPort is the vsock port the in-guest command agent listens on.
const guestAgentPort = 52

// guestRequest/guestResponse mirror the host/guest wire contract: a
// length-prefixed JSON frame over a vsock (emulated here as a Unix socket,
// the same connection Firecracker exposes on the host side).
type guestRequest struct {
	ID      uint64            `json:"id"`
	Command []string          `json:"command"`
	Stdin   string            `json:"stdin,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	Dir     string            `json:"dir,omitempty"`
}

type guestResponse struct {
	ID       uint64 `json:"id"`
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`
	ExitCode int    `json:"exit_code"`
	Error    string `json:"error,omitempty"`
}

// guestConn is a minimal host-side vsock client: one request in flight at a
// time, which is all Execute needs since sandbox calls are not pipelined.
type guestConn struct {
	socketPath string
	cid        uint32
	port       uint32

	mu        sync.Mutex
	conn      net.Conn
	reader    *bufio.Reader
	writer    *bufio.Writer
	requestID uint64
}

func newGuestConn(socketPath string, cid uint32) *guestConn {
	return &guestConn{socketPath: socketPath, cid: cid, port: guestAgentPort}
}

func (g *guestConn) ensureConnected(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.conn != nil {
		return nil
	}
	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "unix", g.socketPath)
	if err != nil {
		return fmt.Errorf("dial guest vsock: %w", err)
	}
	header := make([]byte, 8)
	binary.LittleEndian.PutUint32(header[0:4], g.cid)
	binary.LittleEndian.PutUint32(header[4:8], g.port)
	if _, err := conn.Write(header); err != nil {
		conn.Close()
		return fmt.Errorf("send vsock handshake: %w", err)
	}
	g.conn = conn
	g.reader = bufio.NewReader(conn)
	g.writer = bufio.NewWriter(conn)
	return nil
}

func (g *guestConn) send(ctx context.Context, req *guestRequest) (*guestResponse, error) {
	if err := g.ensureConnected(ctx); err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.requestID++
	req.ID = g.requestID
	data, err := json.Marshal(req)
	if err != nil {
		g.mu.Unlock()
		return nil, fmt.Errorf("marshal guest request: %w", err)
	}
	length := make([]byte, 4)
	binary.LittleEndian.PutUint32(length, uint32(len(data)))
	if _, err := g.writer.Write(length); err != nil {
		g.mu.Unlock()
		return nil, fmt.Errorf("write request length: %w", err)
	}
	if _, err := g.writer.Write(data); err != nil {
		g.mu.Unlock()
		return nil, fmt.Errorf("write request body: %w", err)
	}
	if err := g.writer.Flush(); err != nil {
		g.mu.Unlock()
		return nil, fmt.Errorf("flush request: %w", err)
	}
	reader := g.reader
	g.mu.Unlock()

	respCh := make(chan *guestResponse, 1)
	errCh := make(chan error, 1)
	go func() {
		lengthBuf := make([]byte, 4)
		if _, err := io.ReadFull(reader, lengthBuf); err != nil {
			errCh <- err
			return
		}
		respLen := binary.LittleEndian.Uint32(lengthBuf)
		if respLen > 10*1024*1024 {
			errCh <- fmt.Errorf("guest response too large: %d bytes", respLen)
			return
		}
		body := make([]byte, respLen)
		if _, err := io.ReadFull(reader, body); err != nil {
			errCh <- err
			return
		}
		var resp guestResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			errCh <- err
			return
		}
		respCh <- &resp
	}()

	select {
	case resp := <-respCh:
		return resp, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *guestConn) close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.conn == nil {
		return nil
	}
	err := g.conn.Close()
	g.conn = nil
	return err
}

// sendGuestCommand executes req inside the guest reachable over the vsock
// UDS at socketPath, translating between the sandbox package's ExecRequest
// and the wire-level guest request/response pair.
func sendGuestCommand(ctx context.Context, socketPath string, req ExecRequest) (ExecResult, error) {
	conn := newGuestConn(socketPath, 3)
	defer conn.close()

	resp, err := conn.send(ctx, &guestRequest{
		Command: req.Command,
		Stdin:   req.Stdin,
		Env:     req.Env,
		Dir:     req.WorkspaceDir,
	})
	if err != nil {
		return ExecResult{}, err
	}
	if resp.Error != "" {
		return ExecResult{}, fmt.Errorf("guest agent: %s", resp.Error)
	}
	return ExecResult{
		Stdout:   strings.TrimRight(resp.Stdout, "\n"),
		Stderr:   strings.TrimRight(resp.Stderr, "\n"),
		ExitCode: resp.ExitCode,
	}, nil
}
