// Package mcpserver runs an MCP server that fronts the agent service.
package mcpserver

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/gab-cat/cold-start-sub000/internal/agentclient"
	"github.com/gab-cat/cold-start-sub000/internal/logger"
	"github.com/gab-cat/cold-start-sub000/internal/mcptools"
)

type toolRegisterer interface {
	RegisterTools(s *server.MCPServer) error
}

// Run starts the MCP server and blocks until shutdown or error.
func Run() error {
	// stdout carries the stdio protocol, so logs always go to stderr.
	log := logger.NewWithWriter("mcp-server", os.Stderr)
	zlog.Logger = log

	cfg, err := loadConfig()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	api := agentclient.New(cfg.ServiceURL,
		agentclient.WithHTTPTimeout(cfg.RequestTimeout),
		agentclient.WithLogger(log),
	)
	s, err := NewServer(cfg.ServerName, cfg.ServerVersion, api)
	if err != nil {
		return err
	}

	if cfg.useStdio(os.Stdin) {
		log.Info().Str("service_url", cfg.ServiceURL).Msg("Starting MCP server (stdio transport)")
		return server.ServeStdio(s)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return serveHTTP(ctx, cfg, s, log)
}

// NewServer builds an MCP server with every agent tool registered.
func NewServer(name, version string, api mcptools.AgentAPI) (*server.MCPServer, error) {
	s := server.NewMCPServer(name, version, server.WithToolCapabilities(true))
	for _, h := range []toolRegisterer{
		mcptools.NewChatHandler(api),
		mcptools.NewTrackingHandler(api),
	} {
		if err := h.RegisterTools(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func serveHTTP(ctx context.Context, cfg *config, s *server.MCPServer, log zerolog.Logger) error {
	streamSrv := server.NewStreamableHTTPServer(s,
		server.WithEndpointPath("/mcp"),
		server.WithHeartbeatInterval(30*time.Second),
	)
	// No WriteTimeout: streamed responses stay open.
	srv := &http.Server{
		Addr:        cfg.HTTPAddr,
		Handler:     streamSrv,
		ReadTimeout: cfg.HTTPReadTimeout,
		IdleTimeout: cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("service_url", cfg.ServiceURL).Msg("Starting MCP server (streamable HTTP)")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server error")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down MCP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	if err := streamSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("MCP server shutdown error")
	}
	<-errCh
	return nil
}
