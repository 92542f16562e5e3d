// Package server wires the HTTP stack: routing, middleware, TLS modes,
// and lifecycle management.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/netutil"

	"github.com/MahdiBaghbani/ocmgate/internal/api"
	"github.com/MahdiBaghbani/ocmgate/internal/cache"
	"github.com/MahdiBaghbani/ocmgate/internal/config"
	"github.com/MahdiBaghbani/ocmgate/internal/identity"
	"github.com/MahdiBaghbani/ocmgate/internal/ocm/notifications"
	ocmshares "github.com/MahdiBaghbani/ocmgate/internal/ocm/shares"
	"github.com/MahdiBaghbani/ocmgate/internal/wellknown"
)

var (
	ErrMissingDeps    = errors.New("server deps incomplete")
	ErrInvalidTLSMode = errors.New("invalid TLS mode")
)

// Deps carries the handlers and services the router mounts.
type Deps struct {
	WellKnown     *wellknown.Handler
	Shares        *ocmshares.Handler
	Notifications *notifications.Handler
	LocalShares   *api.SharesHandler
	Auth          *identity.UserAuth
	Users         identity.PartyRepo

	// RateCounter backs the federation rate limit; nil disables it.
	RateCounter cache.Counter
}

func (d *Deps) validate() error {
	switch {
	case d.WellKnown == nil:
		return fmt.Errorf("%w: WellKnown", ErrMissingDeps)
	case d.Shares == nil:
		return fmt.Errorf("%w: Shares", ErrMissingDeps)
	case d.Notifications == nil:
		return fmt.Errorf("%w: Notifications", ErrMissingDeps)
	case d.LocalShares == nil:
		return fmt.Errorf("%w: LocalShares", ErrMissingDeps)
	case d.Auth == nil:
		return fmt.Errorf("%w: Auth", ErrMissingDeps)
	case d.Users == nil:
		return fmt.Errorf("%w: Users", ErrMissingDeps)
	}
	return nil
}

// Server wraps the HTTP server and its dependencies.
type Server struct {
	cfg     *config.Config
	deps    Deps
	logger  *slog.Logger
	proxies *TrustedProxies

	httpServer      *http.Server
	challengeServer *http.Server
}

// New creates a server. Deps must be fully populated.
func New(cfg *config.Config, logger *slog.Logger, deps Deps) (*Server, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		deps:    deps,
		logger:  logger,
		proxies: NewTrustedProxies(cfg.Server.TrustedProxies),
	}

	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.setupRoutes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start runs the server until it is shut down or fails.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting server",
		"addr", s.cfg.ListenAddr,
		"public_origin", s.cfg.PublicOrigin,
		"tls_mode", s.cfg.TLS.Mode,
	)

	switch s.cfg.TLS.Mode {
	case "off":
		ln, err := s.listen(s.cfg.ListenAddr)
		if err != nil {
			return err
		}
		return s.httpServer.Serve(ln)

	case "static", "selfsigned":
		tlsManager := NewTLSManager(&s.cfg.TLS, s.logger)
		tlsConfig, err := tlsManager.GetTLSConfig(hostnameOf(s.cfg.PublicAuthority()))
		if err != nil {
			return fmt.Errorf("failed to configure TLS: %w", err)
		}
		ln, err := s.listen(s.cfg.ListenAddr)
		if err != nil {
			return err
		}
		return s.httpServer.Serve(tls.NewListener(ln, tlsConfig))

	case "acme":
		return s.startACME(ctx)

	default:
		return fmt.Errorf("%w: %s", ErrInvalidTLSMode, s.cfg.TLS.Mode)
	}
}

// startACME obtains a certificate via HTTP-01 and serves TLS with it. The
// challenge listener must be up before the ACME client runs, since the CA
// validates against it during Init.
func (s *Server) startACME(ctx context.Context) error {
	manager := NewACMEManager(&s.cfg.TLS.ACME, s.logger)

	httpPort := s.cfg.TLS.HTTPPort
	if httpPort == 0 {
		httpPort = 80
	}
	s.challengeServer = &http.Server{
		Addr:        fmt.Sprintf(":%d", httpPort),
		Handler:     manager.ChallengeHandler(),
		ReadTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.challengeServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("ACME challenge listener failed", "error", err)
		}
	}()

	if err := manager.Init(ctx); err != nil {
		return fmt.Errorf("ACME initialization failed: %w", err)
	}

	ln, err := s.listen(s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(tls.NewListener(ln, manager.GetTLSConfig()))
}

// listen opens the main listener, capped at Server.MaxConns concurrent
// connections when configured.
func (s *Server) listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if s.cfg.Server.MaxConns > 0 {
		ln = netutil.LimitListener(ln, s.cfg.Server.MaxConns)
	}
	return ln, nil
}

// Shutdown gracefully stops the server and the ACME challenge listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	err := s.httpServer.Shutdown(ctx)
	if s.challengeServer != nil {
		if cerr := s.challengeServer.Shutdown(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Handler exposes the assembled router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// hostnameOf strips the port from a host[:port] authority.
func hostnameOf(authority string) string {
	host, _, err := net.SplitHostPort(authority)
	if err != nil {
		return authority
	}
	return host
}
