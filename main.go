// Command arcade starts the mini-game arcade server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Settings come from ARCADE_* environment variables (optionally loaded from
// a .env file) and can be overridden with flags.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"disorder.dev/shandler"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/arcade/api"
	"github.com/wricardo/mcp-training/arcade/game/catalog"
	"github.com/wricardo/mcp-training/arcade/game/engine"
	"github.com/wricardo/mcp-training/arcade/game/service"
	"github.com/wricardo/mcp-training/arcade/game/session"
	"github.com/wricardo/mcp-training/arcade/transport/mcp"
	"github.com/wricardo/mcp-training/arcade/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Arcade Server"
)

// Config holds the server settings
type Config struct {
	Host        string        `env:"ARCADE_HOST" envDefault:"localhost"`
	Port        int           `env:"ARCADE_PORT" envDefault:"8080"`
	CatalogDir  string        `env:"ARCADE_CATALOG_DIR"`
	StoreURL    string        `env:"ARCADE_STORE_URL"`
	Seed        int64         `env:"ARCADE_SEED"`
	SessionTTL  time.Duration `env:"ARCADE_SESSION_TTL" envDefault:"24h"`
	LogLevel    string        `env:"ARCADE_LOG_LEVEL" envDefault:"info"`
	CORSOrigins []string      `env:"ARCADE_CORS_ORIGINS" envSeparator:","`
	Debug       bool          `env:"ARCADE_DEBUG"`

	NgrokEnabled   bool   `env:"NGROK_ENABLED"`
	NgrokAuthToken string `env:"NGROK_AUTHTOKEN"`
	NgrokDomain    string `env:"NGROK_DOMAIN"`

	ShowVersion bool
}

// Addr returns host:port
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// loadConfig reads the environment and then applies command-line flags.
// It returns the remaining positional arguments.
func loadConfig(args []string, output io.Writer) (*Config, []string, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.NgrokAuthToken == "" {
		// Also support underscore version
		cfg.NgrokAuthToken = os.Getenv("NGROK_AUTH_TOKEN")
	}

	fs := flag.NewFlagSet("arcade", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cfg.Host, "host", cfg.Host, "HTTP server host")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	fs.StringVar(&cfg.CatalogDir, "catalog-dir", cfg.CatalogDir, "Directory containing catalog JSON files (optional)")
	fs.StringVar(&cfg.StoreURL, "store-url", cfg.StoreURL, "Base URL of a remote game store used for catalog lookups (optional)")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed for dealing cards (0 seeds from the clock)")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "Remove games idle for longer than this (0 disables)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: trace, debug, info, warn, error")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug logging")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&cfg.NgrokEnabled, "ngrok", cfg.NgrokEnabled, "Enable ngrok tunnel")
	fs.StringVar(&cfg.NgrokAuthToken, "ngrok-auth", cfg.NgrokAuthToken, "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	fs.StringVar(&cfg.NgrokDomain, "ngrok-domain", cfg.NgrokDomain, "Custom ngrok domain (optional)")
	fs.Func("cors-origins", "Comma separated list of allowed CORS/WebSocket origins (default any)", func(v string) error {
		cfg.CORSOrigins = splitList(v)
		return nil
	})
	fs.Usage = func() { usage(fs) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	return cfg, fs.Args(), nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func usage(fs *flag.FlagSet) {
	w := fs.Output()
	fmt.Fprintf(w, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
	fmt.Fprintf(w, "%s v%s\n\n", AppName, Version)
	fmt.Fprintf(w, "Available modes:\n")
	fmt.Fprintf(w, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
	fmt.Fprintf(w, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
	fmt.Fprintf(w, "  mcp-stdio        Alias for stdio-mcp\n")
	fmt.Fprintf(w, "  mcp              Alias for stdio-mcp\n")
	fmt.Fprintf(w, "\nOptions:\n")
	fs.PrintDefaults()
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  %s                    # Run HTTP server on default port 8080\n", os.Args[0])
	fmt.Fprintf(w, "  %s -port 9090         # Run HTTP server on port 9090\n", os.Args[0])
	fmt.Fprintf(w, "  %s stdio-mcp          # Run MCP stdio server\n", os.Args[0])
}

// parseLogLevel maps a level name onto a slog level. trace is below debug.
func parseLogLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return shandler.LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// newLogger builds the process logger. Debug mode uses the text handler
// with source locations; otherwise records are JSON.
func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	level, err := parseLogLevel(cfg.LogLevel)
	if cfg.Debug && level > slog.LevelDebug {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Debug {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level, AddSource: true})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler)
	if err != nil {
		logger.Warn("falling back to info logging", "error", err)
	}
	return logger
}

// main loads configuration, initializes services, and starts the selected mode.
func main() {
	// Load .env file if it exists (ignore error if not found)
	envErr := godotenv.Load()

	cfg, args, err := loadConfig(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	if cfg.ShowVersion {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	// Logs go to stderr so stdio MCP keeps stdout to itself
	slog.SetDefault(newLogger(cfg, os.Stderr))
	if envErr == nil {
		slog.Info("loaded environment variables from .env file")
	} else if !os.IsNotExist(envErr) {
		slog.Warn("error loading .env file", "error", envErr)
	}

	// Determine mode from command
	mode := "server" // default
	if len(args) > 0 {
		mode = args[0]
	}

	slog.Info("starting", "app", AppName, "version", Version, "mode", mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gameService, sessions, err := initializeServices(cfg)
	if err != nil {
		slog.Error("failed to initialize services", "error", err)
		os.Exit(1)
	}
	go sessionCleanupRoutine(ctx, sessions, cfg.SessionTTL)

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		// Run MCP stdio server with internal HTTP server
		runStdioMCPWithInternalServer(ctx, cfg, gameService)

	case "server", "http":
		// Run HTTP server with API, WebSocket, and MCP endpoint
		runHTTPServer(ctx, cfg, gameService)

	default:
		slog.Error("unknown mode, use 'server' (default) or 'stdio-mcp'", "mode", mode)
		os.Exit(2)
	}
}

// initializeServices wires the engine, session store, catalog and game service
func initializeServices(cfg *Config) (service.GameService, *session.Manager, error) {
	rng := engine.NewTimeSeededRandom()
	if cfg.Seed != 0 {
		rng = engine.NewRandom(cfg.Seed)
	}
	eng := engine.NewEngine(rng)

	var remote catalog.Source
	if cfg.StoreURL != "" {
		remote = catalog.NewStoreClient(cfg.StoreURL)
	}
	games, err := catalog.NewManager(cfg.CatalogDir, remote)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create catalog manager: %w", err)
	}

	sessions := session.NewManager(eng)
	gameService := service.NewGameService(sessions, eng, games, service.WithLogger(slog.Default()))
	return gameService, sessions, nil
}

// newAPIServer builds the API server with the WebSocket hub and /mcp endpoint
func newAPIServer(ctx context.Context, cfg *Config, gameService service.GameService, baseURL string) *api.Server {
	hub := websocket.NewHub(cfg.CORSOrigins...)
	go hub.Run(ctx)

	var opts []api.Option
	if len(cfg.CORSOrigins) > 0 {
		opts = append(opts, api.WithAllowedOrigins(cfg.CORSOrigins...))
	}
	apiServer := api.NewServer(gameService, hub, opts...)

	mcpClient := mcp.NewClient(baseURL, Version)
	apiServer.Handle("/mcp", mcpClient.HTTPHandler())
	return apiServer
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled, it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, cfg *Config, gameService service.GameService) {
	addr := cfg.Addr()
	handler := newAPIServer(ctx, cfg, gameService, "http://"+addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		slog.Info("HTTP server listening",
			"addr", addr,
			"api", fmt.Sprintf("http://%s/api", addr),
			"websocket", fmt.Sprintf("ws://%s/ws?game=<game_id>", addr),
			"mcp", fmt.Sprintf("http://%s/mcp", addr))

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	if cfg.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, cfg, handler)
		}()
	}

	<-ctx.Done()
	slog.Info("shutting down")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	wg.Wait()
	slog.Info("server stopped")
}

// runNgrokTunnel serves handler through an ngrok tunnel until ctx is done
func runNgrokTunnel(ctx context.Context, cfg *Config, handler http.Handler) {
	if cfg.NgrokAuthToken == "" {
		slog.Warn("ngrok enabled but no auth token provided (use -ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	slog.Info("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if cfg.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.NgrokDomain))
		slog.Info("using custom ngrok domain", "domain", cfg.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.NgrokAuthToken))
	if err != nil {
		slog.Error("failed to start ngrok tunnel", "error", err)
		return
	}
	defer func() {
		if err := tun.Close(); err != nil {
			slog.Warn("failed to close ngrok tunnel", "error", err)
		}
	}()

	ngrokURL := tun.URL()
	slog.Info("ngrok tunnel established",
		"url", ngrokURL,
		"api", ngrokURL+"/api",
		"mcp", ngrokURL+"/mcp")

	go func() {
		<-ctx.Done()
		tun.Close()
	}()

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		slog.Error("ngrok server error", "error", err)
	}
	slog.Info("ngrok tunnel closed")
}

// sessionCleanupRoutine periodically removes games that have not been
// touched within ttl. A non-positive ttl disables it.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	ticker := time.NewTicker(min(ttl, time.Hour))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				slog.Info("cleaned up expired games", "removed", removed, "remaining", manager.Count())
			}
		}
	}
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at the configured address; if unavailable, it
// starts an internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, cfg *Config, gameService service.GameService) {
	externalURL := "http://" + cfg.Addr()
	baseURL := externalURL
	slog.Info("checking for external API server", "url", externalURL)

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		slog.Info("external API server found, using it for MCP", "url", externalURL)
	} else {
		if err == nil {
			resp.Body.Close()
		}
		slog.Info("no external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			slog.Error("failed to get available port", "error", err)
			os.Exit(1)
		}
		baseURL = "http://" + listener.Addr().String()

		httpServer := &http.Server{
			Handler: newAPIServer(ctx, cfg, gameService, baseURL),
		}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				slog.Error("internal HTTP server error", "error", err)
			}
		}()
		defer httpServer.Close()

		slog.Info("internal HTTP server started for MCP stdio", "url", baseURL)
	}

	mcpClient := mcp.NewClient(baseURL, Version)
	slog.Info("MCP stdio server ready", "api", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		slog.Error("MCP stdio server error", "error", err)
		os.Exit(1)
	}
}
