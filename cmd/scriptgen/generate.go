package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kapu/trend-script-go/internal/adapter"
	"github.com/kapu/trend-script-go/internal/app"
	"github.com/kapu/trend-script-go/internal/domain"
	"github.com/kapu/trend-script-go/internal/service/metrics"
	"github.com/kapu/trend-script-go/internal/service/orchestrator"
)

var (
	genTrendID     string
	genTrendFile   string
	genPlatforms   []string
	genSupervised  bool
	genDuration    int
	genTone        string
	genLanguage    string
	genNoHook      bool
	genNoCTA       bool
	genRetryFailed bool
	genRefresh     bool
	genNotes       string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate scripts for one trend",
	Long: `Generate scripts for one trend, read from the trend store (--trend-id)
or from a JSON file (--trend-file). Prints the result, a per-platform
comparison and the metrics summary as JSON.`,
	Example: `  scriptgen generate --trend-file trend.json --supervised
  scriptgen generate --trend-id abc123 --platforms tiktok,shorts --duration 30
  scriptgen generate --trend-id abc123 --refresh --instructions "Mention the subreddit"`,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genTrendID, "trend-id", "", "Trend id to load from the trend store")
	f.StringVar(&genTrendFile, "trend-file", "", "Path to a trend JSON file")
	f.StringSliceVar(&genPlatforms, "platforms", nil, "Platforms to generate for (default: PIPELINE_PLATFORMS)")
	f.BoolVar(&genSupervised, "supervised", false, "Validate each script and retry with feedback")
	f.IntVar(&genDuration, "duration", 0, "Target duration in seconds (default: PIPELINE_DEFAULT_DURATION)")
	f.StringVar(&genTone, "tone", "", "Tone: educational, entertaining, dramatic, casual, professional")
	f.StringVar(&genLanguage, "language", "", "Language: en, ko, ja, es")
	f.BoolVar(&genNoHook, "no-hook", false, "Do not write a separate hook")
	f.BoolVar(&genNoCTA, "no-cta", false, "Do not write a call to action")
	f.BoolVar(&genRetryFailed, "retry-failed", false, "Run one extra round for retryable failures")
	f.BoolVar(&genRefresh, "refresh", false, "Drop cached results for the trend before generating")
	f.StringVar(&genNotes, "instructions", "", "Extra instructions passed to every platform writer")
	generateCmd.MarkFlagsMutuallyExclusive("trend-id", "trend-file")
	generateCmd.MarkFlagsOneRequired("trend-id", "trend-file")

	rootCmd.AddCommand(generateCmd)
}

type generateOutput struct {
	Result  *domain.MultiPlatformResult    `json:"result"`
	Cached  bool                           `json:"cached"`
	Summary orchestrator.ComparisonSummary `json:"summary"`
	Metrics metrics.Summary                `json:"metrics"`
}

func runGenerate(cmd *cobra.Command, args []string) error {
	platforms, err := parsePlatformFlag(genPlatforms)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	if platforms == nil {
		platforms = rt.container.DefaultPlatforms()
	}
	pipeline := rt.container.Pipeline()

	var trend *domain.TrendData
	if genTrendFile != "" {
		trend, err = readTrendFile(genTrendFile)
	} else {
		trend, err = pipeline.LoadTrend(ctx, genTrendID)
	}
	if err != nil {
		return err
	}

	opts := applyOptionFlags(cmd, rt.container.DefaultOptions())

	resp, err := pipeline.Generate(ctx, app.Request{
		Trend:       trend,
		Platforms:   platforms,
		Supervised:  genSupervised,
		Options:     opts,
		RetryFailed: genRetryFailed,
		Refresh:     genRefresh,
	})
	if err != nil {
		return err
	}

	rt.logger.Info("Generation complete",
		zap.String("trend_id", trend.ID),
		zap.Bool("cached", resp.Cached),
		zap.Int("success", resp.Result.Metadata.SuccessCount),
		zap.Int("failed", resp.Result.Metadata.FailureCount),
	)

	summary := rt.container.Orchestrator.GetComparisonSummary(resp.Result)
	if textOutput() {
		return writeText(cmd.OutOrStdout(), adapter.NewResponseFormatter(showScripts).FormatResult(resp.Result, summary))
	}
	return writeJSON(cmd.OutOrStdout(), generateOutput{
		Result:  resp.Result,
		Cached:  resp.Cached,
		Summary: summary,
		Metrics: rt.container.Metrics.GetSummary(nil),
	})
}

func applyOptionFlags(cmd *cobra.Command, opts domain.GenerationOptions) domain.GenerationOptions {
	if genDuration > 0 {
		opts.TargetDurationSeconds = genDuration
	}
	if genTone != "" {
		opts.Tone = domain.Tone(strings.ToLower(genTone))
	}
	if genLanguage != "" {
		opts.Language = domain.Language(strings.ToLower(genLanguage))
	}
	if cmd.Flags().Changed("no-hook") {
		opts.IncludeHook = !genNoHook
	}
	if cmd.Flags().Changed("no-cta") {
		opts.IncludeCTA = !genNoCTA
	}
	if notes := strings.TrimSpace(genNotes); notes != "" {
		opts.AdditionalInstructions = notes
	}
	return opts.Normalized()
}

func parsePlatformFlag(raw []string) ([]domain.Platform, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	platforms, err := domain.ParsePlatforms(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --platforms: %w", err)
	}
	return platforms, nil
}

func readTrendFile(path string) (*domain.TrendData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trend file: %w", err)
	}
	return decodeTrend(data)
}

func decodeTrend(data []byte) (*domain.TrendData, error) {
	var t domain.TrendData
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("invalid trend JSON: %w", err)
	}
	if t.ID == "" || t.Title == "" {
		return nil, fmt.Errorf("trend file needs at least id and title")
	}
	return &t, nil
}
