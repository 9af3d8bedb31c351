package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/trend-script-go/internal/domain"
	"github.com/kapu/trend-script-go/internal/platform"
	"github.com/kapu/trend-script-go/internal/prompt"
	"github.com/kapu/trend-script-go/internal/service/ai"
)

// PlatformAgent drafts one script for one platform.
type PlatformAgent interface {
	Platform() domain.Platform
	Generate(ctx context.Context, trend *domain.TrendData, opts domain.GenerationOptions) (*domain.PlatformScript, error)
}

// TextGenerator is the slice of ai.ModelManager the agents need.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, preset ai.ModelPreset, opts *ai.GenerateOptions) (*ai.GenerateResult, error)
}

// Deps are shared by every agent.
type Deps struct {
	Generator TextGenerator
	Catalog   *platform.Catalog
	Prompts   *prompt.PromptBuilder
	Logger    *zap.Logger
	Clock     func() time.Time
}

type TikTokAgent struct {
	writer *scriptWriter
}

func NewTikTokAgent(deps Deps) (*TikTokAgent, error) {
	w, err := newScriptWriter(domain.PlatformTikTok, deps)
	if err != nil {
		return nil, err
	}
	return &TikTokAgent{writer: w}, nil
}

func (a *TikTokAgent) Platform() domain.Platform { return domain.PlatformTikTok }

func (a *TikTokAgent) Generate(ctx context.Context, trend *domain.TrendData, opts domain.GenerationOptions) (*domain.PlatformScript, error) {
	return a.writer.write(ctx, trend, opts)
}

type ReelsAgent struct {
	writer *scriptWriter
}

func NewReelsAgent(deps Deps) (*ReelsAgent, error) {
	w, err := newScriptWriter(domain.PlatformReels, deps)
	if err != nil {
		return nil, err
	}
	return &ReelsAgent{writer: w}, nil
}

func (a *ReelsAgent) Platform() domain.Platform { return domain.PlatformReels }

func (a *ReelsAgent) Generate(ctx context.Context, trend *domain.TrendData, opts domain.GenerationOptions) (*domain.PlatformScript, error) {
	return a.writer.write(ctx, trend, opts)
}

type ShortsAgent struct {
	writer *scriptWriter
}

func NewShortsAgent(deps Deps) (*ShortsAgent, error) {
	w, err := newScriptWriter(domain.PlatformShorts, deps)
	if err != nil {
		return nil, err
	}
	return &ShortsAgent{writer: w}, nil
}

func (a *ShortsAgent) Platform() domain.Platform { return domain.PlatformShorts }

func (a *ShortsAgent) Generate(ctx context.Context, trend *domain.TrendData, opts domain.GenerationOptions) (*domain.PlatformScript, error) {
	return a.writer.write(ctx, trend, opts)
}

// NewAgents builds one agent per supported platform.
func NewAgents(deps Deps) (map[domain.Platform]PlatformAgent, error) {
	tiktok, err := NewTikTokAgent(deps)
	if err != nil {
		return nil, fmt.Errorf("tiktok agent: %w", err)
	}
	reels, err := NewReelsAgent(deps)
	if err != nil {
		return nil, fmt.Errorf("reels agent: %w", err)
	}
	shorts, err := NewShortsAgent(deps)
	if err != nil {
		return nil, fmt.Errorf("shorts agent: %w", err)
	}

	return map[domain.Platform]PlatformAgent{
		domain.PlatformTikTok: tiktok,
		domain.PlatformReels:  reels,
		domain.PlatformShorts: shorts,
	}, nil
}
