// Package session is the fleet CLI's connection to fleetd.
//
// It speaks the line protocol: one request line out, one response line
// back.
package session

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
)

// Client is what subcommands need from a connection.
type Client interface {
	// Do sends line and returns the server's single-line reply,
	// without the trailing newline.
	Do(line string) (string, error)

	Close() error
}

type Session struct {
	conn net.Conn
	r    *bufio.Reader
}

var _ Client = &Session{}

func Dial(ctx context.Context, address string) (*Session, error) {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	return &Session{conn: conn, r: bufio.NewReader(conn)}, nil
}

func (s *Session) Do(line string) (string, error) {
	if _, err := fmt.Fprintf(s.conn, "%s\n", line); err != nil {
		return "", err
	}
	reply, err := s.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(reply, "\n"), nil
}

func (s *Session) Close() error {
	return s.conn.Close()
}
