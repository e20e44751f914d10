package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/docgate/docgate/docgated/core"
	"github.com/docgate/docgate/internals/timeouts"
)

type Server struct {
	Base       *core.BaseServer
	limiter    *subjectLimiter
	httpServer *http.Server

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

func New() *Server {
	return NewWithBase(core.New())
}

func NewWithBase(base *core.BaseServer) *Server {
	limits := base.Config.Limits
	return &Server{
		Base:       base,
		limiter:    newSubjectLimiter(limits.CallsPerSecond, limits.Burst),
		shutdownCh: make(chan struct{}),
	}
}

// Run listens on the configured address and serves until ctx is cancelled
// or a shutdown is requested.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.Base.Env.LISTEN_ADDR)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpServer := &http.Server{
		Handler:     s.Router(),
		BaseContext: func(net.Listener) context.Context { return runCtx },
	}
	s.httpServer = httpServer

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		s.Base.Logger.Info("Server listening", slog.String("addr", listener.Addr().String()), slog.String("version", s.Base.Config.Version))
		err := httpServer.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-s.shutdownCh:
		}
		// Open streams hang off runCtx, so cancel it before waiting on them.
		cancel()
		shutdownCtx, stop := context.WithTimeout(context.Background(), timeouts.SecondShort)
		defer stop()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.Base.Logger.Error("shutdown failed", slog.String("error", err.Error()))
		}
		return nil
	})
	if s.Base.Config.RBAC.Watch {
		g.Go(func() error {
			return s.Base.Gate.Watch(gctx)
		})
	}

	return g.Wait()
}

// Shutdown asks a running Serve to stop. It is safe to call more than once.
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdownCh)
	})
}
