package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kapu/trend-script-go/internal/adapter"
	"github.com/kapu/trend-script-go/internal/app"
	"github.com/kapu/trend-script-go/internal/service/metrics"
	"github.com/kapu/trend-script-go/internal/util"
)

var (
	batchLimit       int
	batchMinNES      float64
	batchPlatforms   []string
	batchMetricsAddr string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run supervised generation over the top trends in the store",
	Example: `  scriptgen batch --limit 10 --min-nes 60
  scriptgen batch --limit 50 --metrics-addr :9090`,
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.IntVar(&batchLimit, "limit", 10, "Number of trends to process")
	f.Float64Var(&batchMinNES, "min-nes", 0, "Minimum normalized engagement score")
	f.StringSliceVar(&batchPlatforms, "platforms", nil, "Platforms to generate for (default: PIPELINE_PLATFORMS)")
	f.StringVar(&batchMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running (default: METRICS_ADDR)")

	rootCmd.AddCommand(batchCmd)
}

type batchItemOutput struct {
	TrendID  string `json:"trend_id"`
	Cached   bool   `json:"cached,omitempty"`
	Success  int    `json:"success"`
	Failed   int    `json:"failed"`
	Error    string `json:"error,omitempty"`
	Best     string `json:"best_platform,omitempty"`
	Decision string `json:"recommendation,omitempty"`
}

type batchOutput struct {
	Items   []batchItemOutput         `json:"items"`
	Metrics metrics.Summary           `json:"metrics"`
	Circuit util.CircuitBreakerStatus `json:"circuit"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	platforms, err := parsePlatformFlag(batchPlatforms)
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

	addr := batchMetricsAddr
	if addr == "" {
		addr = rt.cfg.Metrics.Addr
	}
	if addr != "" {
		stop := serveMetrics(rt, addr)
		defer stop()
	}

	items, err := rt.container.Pipeline().RunBatch(ctx, app.BatchRequest{
		Limit:     batchLimit,
		MinNES:    batchMinNES,
		Platforms: platforms,
		Options:   rt.container.DefaultOptions(),
	})
	if err != nil && len(items) == 0 {
		return err
	}
	if err != nil {
		rt.logger.Warn("Batch stopped early", zap.Error(err))
	}

	circuit := rt.container.Models.GetCircuitStatus()
	if circuit.State != util.CircuitStateClosed {
		rt.logger.Warn("Model circuit not closed after batch",
			zap.String("state", circuit.State.String()),
			zap.Int("failure_count", circuit.FailureCount),
		)
	}

	if textOutput() {
		formatter := adapter.NewResponseFormatter(showScripts)
		w := cmd.OutOrStdout()
		for _, item := range items {
			text := formatter.FormatError(fmt.Sprintf("trend %s: %v", item.TrendID, item.Err))
			if item.Result != nil {
				text = formatter.FormatResult(item.Result, rt.container.Orchestrator.GetComparisonSummary(item.Result))
			}
			if err := writeText(w, text+"\n"); err != nil {
				return err
			}
		}
		return nil
	}

	out := batchOutput{Items: make([]batchItemOutput, 0, len(items))}
	for _, item := range items {
		o := batchItemOutput{TrendID: item.TrendID, Cached: item.Cached}
		if item.Err != nil {
			o.Error = item.Err.Error()
		}
		if item.Result != nil {
			o.Success = item.Result.Metadata.SuccessCount
			o.Failed = item.Result.Metadata.FailureCount
			summary := rt.container.Orchestrator.GetComparisonSummary(item.Result)
			o.Best = summary.BestPlatform.String()
			o.Decision = summary.Recommendation
		}
		out.Items = append(out.Items, o)
	}
	out.Metrics = rt.container.Metrics.GetSummary(nil)
	out.Circuit = circuit

	return writeJSON(cmd.OutOrStdout(), out)
}

func serveMetrics(rt *runtime, addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(rt.container.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.logger.Error("Metrics server failed", zap.String("addr", addr), zap.Error(err))
		}
	}()
	rt.logger.Info("Serving metrics", zap.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
