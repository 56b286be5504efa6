// ABOUTME: Entry point for the MCP demo server.
// ABOUTME: Wires config, stores, the tool registry, and the HTTP layer together.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/zack-dev-cm/mcp-server/internal/auth"
	"github.com/zack-dev-cm/mcp-server/internal/config"
	"github.com/zack-dev-cm/mcp-server/internal/registry"
	"github.com/zack-dev-cm/mcp-server/internal/server"
	"github.com/zack-dev-cm/mcp-server/internal/session"
	"github.com/zack-dev-cm/mcp-server/internal/store"
	"github.com/zack-dev-cm/mcp-server/internal/tools"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `

  _ __ ___   ___ _ __        ___  ___ _ ____   _____ _ __
 | '_ ' _ \ / __| '_ \ _____/ __|/ _ \ '__\ \ / / _ \ '__|
 | | | | | | (__| |_) |_____\__ \  __/ |   \ V /  __/ |
 |_| |_| |_|\___| .__/      |___/\___|_|    \_/ \___|_|
                |_|
`

// getConfigPath returns the path to the server config file.
// Priority: MCP_CONFIG env var > XDG_CONFIG_HOME/mcp-server/config.yaml > ~/.config/mcp-server/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("MCP_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "mcp-server", "config.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: mcp-server <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve    Start the MCP server")
		fmt.Println("  init     Create a new config file interactively")
		fmt.Println("  health   Check server health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Snippets:  %s\n", cfg.Database.SnippetPath)
	green.Print("    ▶ ")
	fmt.Printf("UserData:  %s\n", cfg.Database.UserDataPath)
	fmt.Println()

	logger.Info("starting mcp-server",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
	)

	snippets, err := store.NewSQLiteStore(cfg.Database.SnippetPath, cfg.Auth.MasterKey)
	if err != nil {
		return fmt.Errorf("opening snippet store: %w", err)
	}
	defer snippets.Close()

	userData, err := store.NewSQLiteStore(cfg.Database.UserDataPath, cfg.Auth.MasterKey)
	if err != nil {
		return fmt.Errorf("opening user data store: %w", err)
	}
	defer userData.Close()

	manifest, err := registry.LoadManifest(cfg.Tools.ManifestPath)
	if err != nil {
		return fmt.Errorf("loading tool manifest: %w", err)
	}

	catalog := registry.NewCatalog()
	catalog.SeedBuiltins(time.Now())
	manifest.Apply(catalog)

	reg := registry.New(logger)
	err = tools.RegisterAll(reg, tools.Deps{
		Catalog:        catalog,
		Snippets:       snippets,
		OpenAIKey:      cfg.Tools.OpenAIKey,
		O4MiniEndpoint: cfg.Tools.O4MiniEndpoint,
		Logger:         logger,
	}, manifest)
	if err != nil {
		return fmt.Errorf("registering tools: %w", err)
	}
	logger.Info("tools registered", "count", reg.Count())

	srv, err := server.New(server.Config{
		Logger:            logger,
		Registry:          reg,
		Catalog:           catalog,
		Sessions:          session.NewStore(),
		Snippets:          snippets,
		UserData:          userData,
		Secret:            cfg.Auth.MCPSecret,
		Verifier:          auth.NewJWTVerifier([]byte(cfg.Auth.MCPSecret)),
		HeartbeatInterval: cfg.Stream.HeartbeatInterval,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	// Handler-level attrs first (from WithAttrs), then record attrs
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("mcp-server configuration setup")
	fmt.Println("==============================")
	fmt.Println()

	defaultConfigPath := getConfigPath()
	outputFile := prompt(reader, "Config file path", defaultConfigPath)

	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Println("\n--- Server Configuration ---")
	httpAddr := prompt(reader, "HTTP address", ":8000")

	fmt.Println("\n--- Auth Configuration ---")
	secret := prompt(reader, "MCP shared secret", "dev-secret")
	masterKey := prompt(reader, "Master encryption key", "default")

	fmt.Println("\n--- Database Configuration ---")
	snippetPath := prompt(reader, "Snippet database path", "snippets.sqlite3")
	userDataPath := prompt(reader, "User data database path", "user_data.db")

	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json/color)", "color")

	var cfg strings.Builder
	cfg.WriteString("# mcp-server configuration\n")
	cfg.WriteString("# Generated by mcp-server init\n\n")
	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: %q\n\n", httpAddr))
	cfg.WriteString("auth:\n")
	cfg.WriteString(fmt.Sprintf("  mcp_secret: %q\n", secret))
	cfg.WriteString(fmt.Sprintf("  master_key: %q\n\n", masterKey))
	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  snippet_path: %q\n", snippetPath))
	cfg.WriteString(fmt.Sprintf("  userdata_path: %q\n\n", userDataPath))
	cfg.WriteString("stream:\n")
	cfg.WriteString("  heartbeat_interval: \"15s\"\n\n")
	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: %q\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: %q\n", logFormat))

	if err := os.MkdirAll(filepath.Dir(outputFile), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("\nWrote %s\n", outputFile)
	return nil
}

func prompt(reader *bufio.Reader, label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		return def
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	addr := cfg.Server.HTTPAddr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	url := fmt.Sprintf("http://%s/health", addr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}
