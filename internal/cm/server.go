package cm

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"rdesk/internal/metrics"
	"rdesk/util"
)

// Message types on the IPC socket.  Serving processes send login and
// close; the manager sends authorize and close.
const (
	TypeLogin     = "login"
	TypeClose     = "close"
	TypeAuthorize = "authorize"
)

// Message is one JSON line on the IPC socket.
type Message struct {
	Type         string `json:"type"`
	ID           int    `json:"id"`
	PeerID       string `json:"peer_id,omitempty"`
	Name         string `json:"name,omitempty"`
	Authorized   bool   `json:"authorized,omitempty"`
	FileTransfer bool   `json:"is_file_transfer,omitempty"`
	PortForward  string `json:"port_forward,omitempty"`
}

// Server accepts IPC connections from the processes serving inbound
// sessions and feeds their clients into a Manager.
type Server struct {
	path    string
	mgr     *Manager
	logger  *util.Logger
	metrics *metrics.Collector

	ready chan struct{}
	once  sync.Once
}

// NewServer returns a server for the unix socket at path.
func NewServer(path string, mgr *Manager, logger *util.Logger, m *metrics.Collector) *Server {
	return &Server{path: path, mgr: mgr, logger: logger, metrics: m, ready: make(chan struct{})}
}

// Ready is closed once the socket is listening.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Serve accepts connections until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("cm ipc: %w", err)
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("cm ipc: remove stale socket: %w", err)
	}
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "unix", s.path)
	if err != nil {
		return fmt.Errorf("cm ipc: %w", err)
	}
	s.once.Do(func() { close(s.ready) })
	s.logger.Verbose("connection manager listening on %s", s.path)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("cm ipc accept: %w", err)
		}
		s.metrics.RelayConn()
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handle(ctx, conn)
		}()
	}
}

// handle reads messages from one serving process.  Clients it logged in
// are removed when the connection ends.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	var wmu sync.Mutex
	enc := json.NewEncoder(conn)
	send := func(msg Message) error {
		wmu.Lock()
		defer wmu.Unlock()
		return enc.Encode(msg)
	}

	owned := make(map[int]struct{})
	defer func() {
		for id := range owned {
			s.mgr.Remove(id)
		}
	}()

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		var msg Message
		if err := json.Unmarshal(sc.Bytes(), &msg); err != nil {
			s.logger.Warn("cm ipc: bad message: %v", err)
			continue
		}
		switch msg.Type {
		case TypeLogin:
			s.mgr.Add(Client{
				ID:           msg.ID,
				PeerID:       msg.PeerID,
				Name:         msg.Name,
				Authorized:   msg.Authorized,
				FileTransfer: msg.FileTransfer,
				PortForward:  msg.PortForward,
			}, send)
			owned[msg.ID] = struct{}{}
			s.logger.Info("inbound connection %d from %s (%s)", msg.ID, msg.PeerID, msg.Name)
		case TypeClose:
			s.mgr.Remove(msg.ID)
			delete(owned, msg.ID)
			s.logger.Info("inbound connection %d closed", msg.ID)
		default:
			s.logger.Debug("cm ipc: ignoring message type %q", msg.Type)
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
		s.logger.Debug("cm ipc: %v", err)
	}
}
