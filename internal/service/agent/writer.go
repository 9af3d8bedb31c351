package agent

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/trend-script-go/internal/domain"
	"github.com/kapu/trend-script-go/internal/platform"
	"github.com/kapu/trend-script-go/internal/prompt"
	"github.com/kapu/trend-script-go/internal/script"
	"github.com/kapu/trend-script-go/internal/service/ai"
	"github.com/kapu/trend-script-go/internal/util"
	"github.com/kapu/trend-script-go/pkg/errors"
)

const maxTitleRunes = 80

// scriptWriter is the prompt, call and parse sequence every agent shares.
type scriptWriter struct {
	platform  domain.Platform
	profile   *platform.Profile
	catalog   *platform.Catalog
	generator TextGenerator
	prompts   *prompt.PromptBuilder
	logger    *zap.Logger
	now       func() time.Time
}

func newScriptWriter(p domain.Platform, deps Deps) (*scriptWriter, error) {
	if deps.Catalog == nil {
		return nil, errors.NewConfigurationError("platform catalog is required", "agent", nil)
	}
	profile := deps.Catalog.Profile(p)
	if profile == nil {
		return nil, errors.NewConfigurationError("no profile for platform "+p.String(), "agent", nil)
	}

	prompts := deps.Prompts
	if prompts == nil {
		prompts = prompt.NewPromptBuilder()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}

	return &scriptWriter{
		platform:  p,
		profile:   profile,
		catalog:   deps.Catalog,
		generator: deps.Generator,
		prompts:   prompts,
		logger:    logger.With(zap.String("platform", p.String())),
		now:       now,
	}, nil
}

func (w *scriptWriter) write(ctx context.Context, trend *domain.TrendData, opts domain.GenerationOptions) (*domain.PlatformScript, error) {
	if trend == nil {
		return nil, errors.NewValidationError("trend is required", "trend", nil)
	}
	if w.generator == nil {
		return nil, errors.NewConfigurationError("no text generator configured", "agent", nil)
	}

	opts = opts.Normalized()
	rules := w.catalog.Rules(w.platform, opts)
	text := w.prompts.BuildScript(prompt.NewScriptPromptData(trend, w.profile, rules, opts))

	w.logger.Debug("Generating script",
		zap.String("trend_id", trend.ID),
		zap.Int("target_seconds", opts.TargetDurationSeconds),
		zap.Bool("has_feedback", opts.AdditionalInstructions != ""),
	)

	res, err := w.generator.GenerateText(ctx, text, ai.PresetCreative, &ai.GenerateOptions{JSONMode: true})
	if err != nil {
		var genErr *errors.GenerationError
		if stderrors.As(err, &genErr) {
			genErr.ForPlatform(w.platform.String())
		}
		return nil, err
	}

	parsed, err := script.Parse(res.Text)
	if err != nil {
		w.logger.Warn("Unparseable model output",
			zap.String("trend_id", trend.ID),
			zap.String("preview", util.TruncateString(res.Text, 200)),
		)
		return nil, errors.NewGenerationError("model output could not be parsed", errors.KindParseFailed, true, err).
			ForPlatform(w.platform.String())
	}

	sections := domain.ScriptSections{Body: domain.NewSection(parsed.Body)}
	if opts.IncludeHook && strings.TrimSpace(parsed.Hook) != "" {
		sections.Hook = domain.NewSection(parsed.Hook)
	}
	if opts.IncludeCTA && strings.TrimSpace(parsed.CTA) != "" {
		sections.CTA = domain.NewSection(parsed.CTA)
	}

	title := strings.TrimSpace(parsed.Title)
	if title == "" {
		title = util.TruncateString(trend.Title, maxTitleRunes)
	}

	metadata := domain.ScriptMetadata{
		GeneratedAt:  w.now(),
		TrendID:      trend.ID,
		Category:     trend.Category,
		AgentVersion: w.profile.AgentVersion,
		Provider:     res.Provider,
		Model:        res.Model,
		InputTokens:  res.InputTokens,
		OutputTokens: res.OutputTokens,
	}

	s := domain.NewPlatformScript(w.platform, title, sections, parsed.Hashtags, mergeNotes(w.profile.Optimizations, parsed.Optimizations), metadata)

	w.logger.Info("Script generated",
		zap.String("trend_id", trend.ID),
		zap.String("format", string(parsed.Format)),
		zap.Int("duration_seconds", s.EstimatedDurationSeconds),
		zap.Int("hashtags", len(s.Hashtags)),
		zap.Bool("used_fallback", res.UsedFallback),
	)
	return s, nil
}

// mergeNotes keeps profile notes first and drops duplicates.
func mergeNotes(profile, model []string) []string {
	seen := make(map[string]struct{}, len(profile)+len(model))
	out := make([]string, 0, len(profile)+len(model))
	for _, list := range [][]string{profile, model} {
		for _, note := range list {
			note = strings.TrimSpace(note)
			key := util.Normalize(note)
			if note == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, note)
		}
	}
	return out
}
