package main

import (
	"context"
	"errors"
	"fmt"
	gonet "net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vanguard/agent/internal/config"
	"github.com/vanguard/agent/internal/handler"
	agentnet "github.com/vanguard/agent/internal/net"
	"github.com/vanguard/agent/internal/net/packet"
	"github.com/vanguard/agent/internal/planset"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             Vanguard  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        RTS agent · command planner        \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1magent:\033[0m %s\n\n", name)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main agent logic ──────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfg, err := config.Load(config.Path("config/vanguard.toml"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Agent.Name)

	// 3. Load planners
	printSection("planners")
	plans, err := planset.Load(cfg.Plan, log)
	if err != nil {
		return fmt.Errorf("load planners: %w", err)
	}
	defer plans.Close()
	printStat("builtin", plans.Counts.Builtin)
	printStat("yaml plans", plans.Counts.YAML)
	printStat("lua plans", plans.Counts.Lua)
	if _, err := plans.Catalog.Lookup(cfg.Agent.Planner); err != nil {
		return fmt.Errorf("default planner: %w", err)
	}
	printOK(fmt.Sprintf("default planner %q", cfg.Agent.Planner))
	fmt.Println()

	// 4. Register packet handlers
	pktReg := packet.NewRegistry(log)
	handler.RegisterAll(pktReg, &handler.Deps{
		Config:   cfg,
		Log:      log,
		Planners: plans.Catalog,
	})

	// 5. Create network server
	opts := agentnet.Options{
		MaxFrameSize: cfg.Network.MaxFrameSize,
		Timeouts: agentnet.Timeouts{
			Read:  cfg.Network.ReadTimeout,
			Write: cfg.Network.WriteTimeout,
		},
		InQueueSize:  cfg.Network.InQueueSize,
		OutQueueSize: cfg.Network.OutQueueSize,
	}
	if cfg.RateLimit.Enabled {
		opts.MaxPacketsPerSec = cfg.RateLimit.PacketsPerSecond
	}
	netServer := agentnet.NewServer(pktReg, opts, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var httpServer *http.Server
	var addr string
	switch cfg.Network.Transport {
	case "websocket":
		ln, err := gonet.Listen("tcp", cfg.Network.BindAddress)
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		mux := http.NewServeMux()
		mux.Handle(cfg.Network.WSPath, netServer.WSHandler(ctx))
		httpServer = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("http server stopped", zap.Error(err))
			}
		}()
		addr = "ws://" + ln.Addr().String() + cfg.Network.WSPath
	default:
		if err := netServer.Listen(cfg.Network.Transport, cfg.Network.BindAddress); err != nil {
			return fmt.Errorf("net server: %w", err)
		}
		go netServer.AcceptLoop(ctx)
		addr = cfg.Network.Transport + "://" + netServer.Addr().String()
	}

	printSection("ready")
	printReady(fmt.Sprintf("listening on %s", addr))
	fmt.Println()

	// 6. Wait for shutdown
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-shutdownCh
	log.Info("shutdown signal received", zap.String("signal", sig.String()),
		zap.Int("active_sessions", netServer.Active()))

	cancel()
	if httpServer != nil {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if err := httpServer.Shutdown(sctx); err != nil {
			log.Warn("http shutdown", zap.Error(err))
		}
	}
	netServer.Shutdown()
	log.Info("agent stopped")
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
