// Package gateway runs the gRPC front end of the interpretation service and
// its supporting processes: the observability HTTP server and the session
// expiry sweeper.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"

	"github.com/intentgate-dev/intentgate/internal/interpreter"
	"github.com/intentgate-dev/intentgate/pkg/conversation"
	"github.com/intentgate-dev/intentgate/pkg/observability"
	pb "github.com/intentgate-dev/intentgate/proto"
)

// Config carries the runtime settings for a Gateway.
type Config struct {
	GRPCPort       int
	HTTPPort       int
	RequestTimeout time.Duration
	SweepSchedule  string
	Version        string
}

// Gateway ties the gRPC server, observability server, and sweeper together
// with one start/stop lifecycle.
type Gateway struct {
	cfg     Config
	server  *grpc.Server
	obs     *observability.Server
	sweeper *conversation.Sweeper
	store   conversation.Store

	listener net.Listener
	started  bool
}

// New assembles a Gateway. The store is only used for health reporting and
// the expiry sweep; the interpreter owns the request path.
func New(cfg Config, interp *interpreter.Interpreter, store conversation.Store) *Gateway {
	if cfg.GRPCPort == 0 {
		cfg.GRPCPort = 50051
	}
	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = 8080
	}

	g := &Gateway{
		cfg:     cfg,
		server:  grpc.NewServer(),
		sweeper: conversation.NewSweeper(store, cfg.SweepSchedule),
		store:   store,
	}

	checker := observability.NewHealthChecker(cfg.Version)
	checker.RegisterCheck(observability.RedisCheck(g.checkStore))
	g.obs = observability.NewServer(cfg.HTTPPort, checker)

	pb.RegisterIntelligenceServiceServer(g.server, NewServer(interp, cfg.RequestTimeout))
	return g
}

// checkStore is the health probe for the conversation store. A successful
// ping also refreshes the active-sessions gauge, since the stats scan is
// already off the request path here.
func (g *Gateway) checkStore(ctx context.Context) error {
	if err := g.store.Ping(ctx); err != nil {
		return err
	}
	if stats, err := g.store.Stats(ctx); err == nil {
		observability.SetActiveSessions(stats.ActiveSessions)
	}
	return nil
}

// Start begins serving. It returns once the gRPC listener is bound; serving
// continues in background goroutines until Stop is called.
func (g *Gateway) Start(ctx context.Context) error {
	if g.started {
		return errors.New("gateway already started")
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", g.cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", g.cfg.GRPCPort, err)
	}
	g.listener = lis

	observability.InitMetrics()

	go func() {
		log.Printf("[Gateway] gRPC server listening on %s", lis.Addr())
		if err := g.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Printf("[Gateway] gRPC server error: %v", err)
		}
	}()

	go func() {
		log.Printf("[Gateway] observability server listening on :%d", g.cfg.HTTPPort)
		if err := g.obs.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[Gateway] observability server error: %v", err)
		}
	}()

	if err := g.sweeper.Start(); err != nil {
		log.Printf("[Gateway] sweeper not started: %v", err)
	}

	g.started = true
	return nil
}

// Stop drains in-flight requests and shuts everything down.
func (g *Gateway) Stop(ctx context.Context) error {
	if !g.started {
		return nil
	}
	g.started = false

	g.sweeper.Stop()

	done := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		g.server.Stop()
	}

	if err := g.obs.Shutdown(ctx); err != nil {
		log.Printf("[Gateway] observability shutdown error: %v", err)
	}
	return nil
}
