package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kapu/trend-script-go/internal/app"
	"github.com/kapu/trend-script-go/internal/config"
	"github.com/kapu/trend-script-go/internal/util"
)

var (
	logLevel    string
	output      string
	showScripts bool
)

var rootCmd = &cobra.Command{
	Use:   "scriptgen",
	Short: "Generate short-video scripts for TikTok, Reels and Shorts from trending posts",
	Long: `scriptgen turns a collected trend into platform-specific short-video scripts.

Commands:
  generate   Generate scripts for one trend
  batch      Run supervised generation over the top trends in the store
  score      Score a stored script for viral potential

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "json", "Output format (json, text)")
	rootCmd.PersistentFlags().BoolVar(&showScripts, "show-scripts", false, "Include script text in text output")
}

func textOutput() bool {
	return output == "text"
}

// runtime is what every generating command needs.
type runtime struct {
	cfg       *config.Config
	logger    *zap.Logger
	container *app.Container
}

func (r *runtime) Close() {
	r.container.Close()
	_ = r.logger.Sync()
}

func setup(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	buildCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	container, err := app.Build(buildCtx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to assemble pipeline: %w", err)
	}

	return &runtime{cfg: cfg, logger: logger, container: container}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func writeText(w io.Writer, text string) error {
	_, err := fmt.Fprintln(w, text)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
