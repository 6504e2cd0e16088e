package programmer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"google.golang.org/grpc"

	api "github.com/oshokin/roadrunner/internal/api/grpc/programmer"
	"github.com/oshokin/roadrunner/internal/domain/chip"
	"github.com/oshokin/roadrunner/internal/logger"
	"github.com/oshokin/roadrunner/internal/metrics"
)

var (
	// ErrBind indicates the server could not acquire its listening address.
	ErrBind = errors.New("bind transport")
	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("server already started")
)

// Server owns the parameter store and serves it over gRPC.
// A Server is started at most once.
type Server struct {
	// address is the configured bind address.
	address chip.Address
	// dispatcher executes requests against the store.
	dispatcher *Dispatcher
	// grpcServer serves the chip programmer service.
	grpcServer *grpc.Server
	// ready is closed once Start has bound the listener or failed to.
	ready chan struct{}
	// served is closed when Start returns.
	served chan struct{}

	// mu protects the fields below.
	mu      sync.Mutex
	started bool
	addr    net.Addr
}

// NewServer parses address ("host:port", host may be "*") and creates the store.
// A nil collector disables metrics.
func NewServer(address string, collector metrics.Collector) (*Server, error) {
	parsed, err := chip.ParseAddress(address)
	if err != nil {
		return nil, err
	}

	return NewServerWithAddress(parsed, collector), nil
}

// NewServerWithAddress creates a server for an already split address.
func NewServerWithAddress(address chip.Address, collector metrics.Collector) *Server {
	s := &Server{
		address:    address,
		dispatcher: NewDispatcher(chip.NewStore(address), collector),
		grpcServer: grpc.NewServer(),
		ready:      make(chan struct{}),
		served:     make(chan struct{}),
	}

	api.RegisterChipProgrammerServer(s.grpcServer, api.NewServer(s.dispatcher))

	return s
}

// Start binds the listener and serves until Stop is called or ctx is cancelled.
// A bind failure is returned wrapped in ErrBind.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}

	s.started = true
	s.mu.Unlock()

	defer close(s.served)

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", s.address.ListenAddress())
	if err != nil {
		// Release the gRPC server so a later Stop returns immediately.
		s.grpcServer.Stop()
		close(s.ready)

		return fmt.Errorf("%w: %s: %w", ErrBind, s.address, err)
	}

	s.mu.Lock()
	s.addr = lis.Addr()
	s.mu.Unlock()

	close(s.ready)

	logger.InfoKV(ctx, "Chip programmer listening", "address", s.address.String(), "listen_address", lis.Addr().String())

	stopped := make(chan struct{})
	defer close(stopped)

	go func() {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Shutting down chip programmer")
			s.grpcServer.GracefulStop()
		case <-stopped:
		}
	}()

	// Serve closes lis on return.
	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	logger.Info(ctx, "Chip programmer stopped")

	return nil
}

// Stop stops serving, releases the listener and waits for Start to return.
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()

	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	if started {
		<-s.served
	}
}

// Ready is closed once Start has bound the listener or failed to.
// Addr is nil after a failed bind.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound listener address, or nil before Start binds.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addr
}

// Dispatcher returns the request dispatcher backing the server.
func (s *Server) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// Snapshot describes the store for the status endpoint.
type Snapshot struct {
	// Address is the configured bind address.
	Address string `json:"address"`
	// Keys is the store index.
	Keys []string `json:"keys"`
}

// Snapshot returns the current store index.
func (s *Server) Snapshot() Snapshot {
	return Snapshot{
		Address: s.address.String(),
		Keys:    s.dispatcher.Keys(),
	}
}
