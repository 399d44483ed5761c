package sync

import (
	"bufio"
	"errors"
	"log"
	"net"
)

// Server is the plain-TCP feed: kitchen displays and scripts that can't
// speak WebSocket connect here and read JSON lines.
type Server struct {
	Addr string
	Hub  *Hub

	ln net.Listener
}

func NewServer(addr string, hub *Hub) *Server {
	return &Server{Addr: addr, Hub: hub}
}

func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	log.Printf("[tcp-sync] listening on %s", s.Addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			continue
		}

		s.Hub.Add(conn)
		s.Hub.Welcome(conn)
		log.Printf("[tcp-sync] device connected: %s", conn.RemoteAddr())

		go func(c net.Conn) {
			defer func() {
				s.Hub.Remove(c)
				log.Printf("[tcp-sync] device disconnected: %s", c.RemoteAddr())
			}()

			// Keep the connection alive; consume anything the client sends.
			sc := bufio.NewScanner(c)
			for sc.Scan() {
			}
		}(conn)
	}
}

func (s *Server) Close() error {
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}
