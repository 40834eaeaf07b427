// Command pagemend serves the page editing API over HTTP and,
// optionally, MCP over stdio.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/ferrostack/pagemend/editor"
	"github.com/ferrostack/pagemend/invalidate"
	"github.com/ferrostack/pagemend/proposal"
	"github.com/ferrostack/pagemend/treestore"
)

func main() {
	port := env("PORT", "8096")
	configPath := env("CONFIG", "")
	logLevel := env("LOG_LEVEL", "info")
	mcpTransport := env("MCP_TRANSPORT", "")

	// Logging.
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Config: file when given, env fallbacks otherwise.
	var cfg *editor.Config
	if configPath != "" {
		c, err := editor.LoadConfigFile(configPath)
		if err != nil {
			slog.Error("load config", "path", configPath, "error", err)
			os.Exit(1)
		}
		cfg = c
	} else {
		cfg = &editor.Config{
			DBPath: env("DB_PATH", "db/pagemend.db"),
			Proposal: proposal.Config{
				URL:    env("PROPOSAL_URL", ""),
				APIKey: env("PROPOSAL_API_KEY", ""),
			},
			Cache: editor.CacheConfig{
				RedisAddr:  env("REDIS_ADDR", ""),
				KeyPrefix:  env("CACHE_KEY_PREFIX", ""),
				WebhookURL: env("CACHE_WEBHOOK_URL", ""),
			},
		}
	}

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Page store.
	store, err := treestore.Open(cfg.DBPath)
	if err != nil {
		slog.Error("open store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Service options.
	opts := []editor.Option{}
	if cfg.Proposal.URL != "" {
		opts = append(opts, editor.WithProposer(proposal.New(cfg.Proposal, logger)))
	}
	if inv := buildInvalidator(cfg.Cache); inv != nil {
		opts = append(opts, editor.WithInvalidator(inv))
	}
	if len(cfg.AllowedWidgets) > 0 {
		opts = append(opts, editor.WithAllowedWidgets(cfg.AllowedWidgets))
	}
	if cfg.MaxTextLen > 0 {
		opts = append(opts, editor.WithMaxTextLen(cfg.MaxTextLen))
	}

	svc := editor.New(store, logger, opts...)

	// MCP over stdio replaces the HTTP server entirely.
	if mcpTransport == "stdio" {
		srv := mcp.NewServer(&mcp.Implementation{
			Name:    "pagemend",
			Version: "1.0.0",
		}, nil)
		svc.RegisterMCP(srv)
		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			slog.Error("mcp stdio", "error", err)
			os.Exit(1)
		}
		return
	}

	// Router.
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	svc.RegisterHTTP(r)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func buildInvalidator(cfg editor.CacheConfig) invalidate.Invalidator {
	var targets invalidate.Multi
	if cfg.RedisAddr != "" {
		targets = append(targets, invalidate.NewRedis(cfg.RedisAddr, cfg.KeyPrefix))
	}
	if cfg.WebhookURL != "" {
		targets = append(targets, invalidate.NewWebhook(cfg.WebhookURL))
	}
	switch len(targets) {
	case 0:
		return nil
	case 1:
		return targets[0]
	default:
		return targets
	}
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
