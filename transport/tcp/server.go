package tcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/Vulcanostrol/ringgzprotocol/internal/protocol"
	"github.com/Vulcanostrol/ringgzprotocol/internal/usecase"
)

type hub interface {
	NewClient(conn usecase.Conn) *usecase.Client
	Handle(ctx context.Context, client *usecase.Client, packet *protocol.Packet) error
	ReportMalformed(client *usecase.Client)
	Disconnect(client *usecase.Client)
}

type Server struct {
	logger *slog.Logger
	hub    hub
}

func New(logger *slog.Logger, hub hub) *Server {
	return &Server{
		logger: logger,
		hub:    hub,
	}
}

// Start - accepts connections until the context is canceled. Each
// connection gets its own read loop plus a writer goroutine.
func (that *Server) Start(ctx context.Context, port string) error {
	log := that.logger.With("method", "Start")

	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", port, err)
	}

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	log.Info("TCP server listening", "port", port)

	for {
		raw, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Error("failed to accept connection", "error", err)
			continue
		}

		go that.serve(ctx, raw)
	}
}

// serve runs one connection: decode each line, hand it to the hub, and
// tear everything down when the peer goes away. Handler errors are
// protocol-level outcomes (declines, violations) already answered by
// the hub, so they are logged and the loop keeps reading.
func (that *Server) serve(ctx context.Context, raw net.Conn) {
	conn := newConn(raw)
	log := that.logger.With("method", "serve", "remote", conn.remoteAddr())

	go conn.writeLoop()

	client := that.hub.NewClient(conn)

	defer func() {
		_ = conn.Close()
		that.hub.Disconnect(client)
		log.Info("connection closed")
	}()

	log.Info("connection accepted")

	scanner := bufio.NewScanner(raw)
	for scanner.Scan() {
		packet, err := protocol.Decode(scanner.Text())
		if err != nil {
			log.Info("malformed packet", "error", err)
			that.hub.ReportMalformed(client)
			continue
		}

		if err = that.hub.Handle(ctx, client, packet); err != nil {
			log.Info("packet rejected", "type", packet.Type, "error", err)
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Error("read loop ended", "error", err)
	}
}
