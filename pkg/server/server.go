// Package server implements the fleetd TCP endpoint.
//
// Machines connect, authenticate with the shared password and report
// their hardware profile. Reported machines are persisted; live
// connections are tracked in a Registry.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"

	kmachine "github.com/vmfleet/vmfleet/pkg/domain/machine/db"
)

type Server struct {
	password string
	machines kmachine.Interface
	registry *Registry
	logger   *log.Logger

	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool
}

func New(password string, machines kmachine.Interface, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		password: password,
		machines: machines,
		registry: NewRegistry(),
		logger:   logger,
		conns:    map[net.Conn]struct{}{},
	}
}

func (s *Server) Registry() *Registry {
	return s.registry
}

// track registers conn as live until the returned function is called.
//
// Connections are tracked from accept time, before any AUTH, so that
// closeAll reaches sessions which never authenticated. When closeAll
// has already run, conn is closed on the spot.
func (s *Server) track(conn net.Conn) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		conn.Close()
	} else {
		s.conns[conn] = struct{}{}
	}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.conns, conn)
	}
}

// closeAll sends message to every live connection and closes it.
func (s *Server) closeAll(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for conn := range s.conns {
		fmt.Fprintf(conn, "%s\n", message)
		conn.Close()
		delete(s.conns, conn)
	}
}

// Serve accepts connections on lis until ctx is done.
//
// On cancellation it stops accepting, notifies every live connection,
// authenticated or not, that the server is going away, closes it and
// waits for the running sessions to finish. It returns nil on
// cancellation, or the error which broke the accept loop.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	stop := context.AfterFunc(ctx, func() {
		lis.Close()
		s.closeAll("server is shutting down")
	})
	defer stop()

	wg := sync.WaitGroup{}
	defer wg.Wait()

	for {
		conn, err := lis.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		s.logger.Printf("new connection: %s", conn.RemoteAddr())
		untrack := s.track(conn)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer untrack()
			sess := &session{
				conn:     conn,
				password: s.password,
				machines: s.machines,
				registry: s.registry,
			}
			if err := sess.run(ctx); err != nil && !errors.Is(err, net.ErrClosed) {
				s.logger.Printf("session %s: %s", conn.RemoteAddr(), err)
			}
			s.logger.Printf("connection closed: %s", conn.RemoteAddr())
		}()
	}
}
