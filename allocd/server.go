package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/mdlayher/vsock"

	"github.com/cloudx-io/openallocation/allocapi"
	"github.com/cloudx-io/openallocation/config"
)

// AllocationServer accepts one JSON request per connection and answers it
// on the same connection.
type AllocationServer struct {
	cfg        config.ServerConfig
	allocator  *Allocator
	keyManager *KeyManager
	logger     *slog.Logger
}

// NewAllocationServer wires a server from configuration. The signing key is
// generated here and lives for the life of the process.
func NewAllocationServer(cfg *config.Config, logger *slog.Logger) (*AllocationServer, error) {
	keyManager, err := NewKeyManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize key manager: %w", err)
	}
	logger.Info("key manager initialized", "key_id", keyManager.KeyID)

	return &AllocationServer{
		cfg: cfg.Server,
		allocator: &Allocator{
			Defaults: cfg.Allocation,
			Aliases:  cfg.ColumnAliases(),
			Signer:   keyManager,
			Logger:   logger,
		},
		keyManager: keyManager,
		logger:     logger,
	}, nil
}

// Listen opens the configured tcp or vsock listener.
func (s *AllocationServer) Listen() (net.Listener, error) {
	switch s.cfg.Network {
	case "vsock":
		listener, err := vsock.Listen(s.cfg.VsockPort, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create vsock listener: %w", err)
		}
		s.logger.Info("allocation server listening", "network", "vsock", "port", s.cfg.VsockPort)
		return listener, nil
	default:
		listener, err := net.Listen("tcp", s.cfg.Listen)
		if err != nil {
			return nil, fmt.Errorf("failed to create tcp listener: %w", err)
		}
		s.logger.Info("allocation server listening", "network", "tcp", "addr", listener.Addr().String())
		return listener, nil
	}
}

// Start listens and serves until ctx is cancelled.
func (s *AllocationServer) Start(ctx context.Context) error {
	listener, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections from listener until ctx is cancelled. At most
// MaxWorkers connections are handled at once; extra connections are closed
// immediately.
func (s *AllocationServer) Serve(ctx context.Context, listener net.Listener) error {
	stop := context.AfterFunc(ctx, func() {
		if err := listener.Close(); err != nil {
			s.logger.Error("failed to close listener", "error", err)
		}
	})
	defer stop()

	semaphore := make(chan struct{}, s.cfg.MaxWorkers)
	s.logger.Info("worker pool initialized", "max_workers", s.cfg.MaxWorkers)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.logger.Info("allocation server stopped")
				return nil
			}
			s.logger.Error("failed to accept connection", "error", err)
			continue
		}

		// Acquire worker slot - immediate rejection if pool full
		select {
		case semaphore <- struct{}{}:
			go func(c net.Conn) {
				defer func() { <-semaphore }() // Release worker slot
				s.handleConnection(c)
			}(conn)
		default:
			s.logger.Info("no workers available, rejecting connection (pool full)")
			if err := conn.Close(); err != nil {
				s.logger.Error("failed to close rejected connection", "error", err)
			}
		}
	}
}

func (s *AllocationServer) handleConnection(conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic recovered in handleConnection", "panic", r)
		}
		if err := conn.Close(); err != nil {
			s.logger.Error("failed to close connection", "error", err)
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

	var raw json.RawMessage
	if err := json.NewDecoder(conn).Decode(&raw); err != nil {
		s.logger.Error("failed to read request", "error", err)
		return
	}

	response, requestType := s.dispatch(raw)

	if err := json.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Error("failed to encode response", "type", requestType, "error", err)
		return
	}
	s.logger.Debug("sent response", "type", requestType)
}

// dispatch routes a raw request on its "type" field.
func (s *AllocationServer) dispatch(raw []byte) (any, string) {
	var baseReq struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &baseReq); err != nil {
		return errorResponse("Failed to decode request: %v", err), ""
	}

	s.logger.Info("received request", "type", baseReq.Type)

	switch baseReq.Type {
	case allocapi.TypePing:
		return map[string]any{
			"type":      allocapi.TypePong,
			"message":   "allocation server is healthy",
			"timestamp": time.Now().Unix(),
		}, baseReq.Type

	case allocapi.TypeKeyRequest:
		keyResp, err := HandleKeyRequest(s.keyManager)
		if err != nil {
			s.logger.Error("key request failed", "error", err)
			return errorResponse("Key request failed: %v", err), baseReq.Type
		}
		return keyResp, baseReq.Type

	case allocapi.TypeAllocationRequest:
		var req allocapi.AllocationRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			s.logger.Error("failed to decode allocation request", "error", err)
			return errorResponse("Failed to decode allocation request: %v", err), baseReq.Type
		}
		return s.allocator.ProcessAllocation(req), baseReq.Type

	default:
		return errorResponse("Unknown request type: %s", baseReq.Type), baseReq.Type
	}
}

func errorResponse(format string, args ...any) allocapi.ErrorResponse {
	return allocapi.ErrorResponse{
		Type:    allocapi.TypeError,
		Success: false,
		Message: fmt.Sprintf(format, args...),
	}
}
