package frontend

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"

	"github.com/radpro/doselog/utils/log"
)

const maxLineLength = 256

// CommServer serves the command interface over TCP, one request line at a
// time per connection.
type CommServer struct {
	service *CommService

	mu     sync.Mutex
	ln     net.Listener
	conns  map[net.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

func NewCommServer(service *CommService) *CommServer {
	return &CommServer{
		service: service,
		conns:   map[net.Conn]struct{}{},
	}
}

// Serve accepts connections on ln until Shutdown is called.
func (s *CommServer) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = conn.Close()
			return nil
		}
		s.conns[conn] = struct{}{}
		s.wg.Add(1)
		s.mu.Unlock()

		go s.handle(ctx, conn)
	}
}

// ListenAndServe listens on the TCP address and serves it.
func (s *CommServer) ListenAndServe(ctx context.Context, address string) error {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	log.Info("command interface listening on %s", ln.Addr())
	return s.Serve(ctx, ln)
}

// Shutdown stops accepting, closes open connections and waits for their
// handlers to return.
func (s *CommServer) Shutdown() {
	s.mu.Lock()
	s.closed = true
	if s.ln != nil {
		_ = s.ln.Close()
	}
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *CommServer) handle(ctx context.Context, conn net.Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
		s.wg.Done()
	}()
	log.Debug("new command connection: %v", conn.RemoteAddr())

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, maxLineLength), maxLineLength)
	w := bufio.NewWriter(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := s.service.Execute(ctx, line, flushWriter{w}); err != nil {
			log.Debug("command connection %v closed: %v", conn.RemoteAddr(), err)
			return
		}
	}
	if err := scanner.Err(); err != nil {
		log.Debug("command connection %v read error: %v", conn.RemoteAddr(), err)
	}
}

// flushWriter pushes every response chunk to the connection so that a
// paged dump reaches the client while it is produced.
type flushWriter struct {
	w *bufio.Writer
}

func (f flushWriter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	if err != nil {
		return n, err
	}
	return n, f.w.Flush()
}
