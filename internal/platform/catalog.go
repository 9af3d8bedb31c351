package platform

import (
	_ "embed"
	"fmt"
	"math"
	"sync"

	"github.com/kapu/trend-script-go/internal/domain"
	"github.com/kapu/trend-script-go/internal/util"
	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var defaultProfiles []byte

type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

type DurationBand struct {
	Min   int `yaml:"min"`
	Max   int `yaml:"max"`
	Ideal int `yaml:"ideal"`
}

func (d DurationBand) Contains(seconds int) bool {
	return seconds >= d.Min && seconds <= d.Max
}

// Profile captures one platform's conventions.
type Profile struct {
	Platform              domain.Platform `yaml:"-"`
	DisplayName           string          `yaml:"display_name"`
	AgentVersion          string          `yaml:"agent_version"`
	Duration              DurationBand    `yaml:"duration"`
	Hashtags              Range           `yaml:"hashtags"`
	CompletionThreshold   int             `yaml:"completion_threshold"`
	OptimizationThreshold int             `yaml:"optimization_threshold"`
	Optimizations         []string        `yaml:"optimizations"`
}

type validationDefaults struct {
	DurationTolerance float64 `yaml:"duration_tolerance"`
	MinHookWords      int     `yaml:"min_hook_words"`
	MinBodyWords      int     `yaml:"min_body_words"`
}

type catalogFile struct {
	Validation validationDefaults  `yaml:"validation"`
	Platforms  map[string]*Profile `yaml:"platforms"`
}

// Catalog is the read-only table of platform profiles. It also serves as the
// rules lookup for the supervisor.
type Catalog struct {
	profiles   map[domain.Platform]*Profile
	validation validationDefaults
}

var (
	defaultCatalogOnce sync.Once
	defaultCatalog     *Catalog
	defaultCatalogErr  error
)

// DefaultCatalog parses the embedded profile table once.
func DefaultCatalog() (*Catalog, error) {
	defaultCatalogOnce.Do(func() {
		defaultCatalog, defaultCatalogErr = LoadCatalog(defaultProfiles)
	})
	return defaultCatalog, defaultCatalogErr
}

func LoadCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse platform profiles: %w", err)
	}

	catalog := &Catalog{
		profiles:   make(map[domain.Platform]*Profile, len(file.Platforms)),
		validation: file.Validation,
	}

	for name, profile := range file.Platforms {
		platform, err := domain.ParsePlatform(name)
		if err != nil {
			return nil, fmt.Errorf("platform profiles: %w", err)
		}
		if profile == nil {
			return nil, fmt.Errorf("platform profiles: %s has no settings", name)
		}
		if profile.Duration.Min <= 0 || profile.Duration.Max < profile.Duration.Min {
			return nil, fmt.Errorf("platform profiles: %s has invalid duration band", name)
		}
		if profile.Duration.Ideal < profile.Duration.Min || profile.Duration.Ideal > profile.Duration.Max {
			return nil, fmt.Errorf("platform profiles: %s ideal duration outside band", name)
		}
		if profile.Hashtags.Max < profile.Hashtags.Min {
			return nil, fmt.Errorf("platform profiles: %s has invalid hashtag range", name)
		}
		profile.Platform = platform
		catalog.profiles[platform] = profile
	}

	for _, p := range domain.AllPlatforms {
		if _, ok := catalog.profiles[p]; !ok {
			return nil, fmt.Errorf("platform profiles: missing %s", p)
		}
	}

	return catalog, nil
}

// Profile returns the profile for a platform, or nil when unknown.
func (c *Catalog) Profile(platform domain.Platform) *Profile {
	if c == nil {
		return nil
	}
	return c.profiles[platform]
}

// Rules derives the rule set for one request: the requested duration is clamped
// into the platform band and widened by the configured tolerance on each side.
func (c *Catalog) Rules(platform domain.Platform, opts domain.GenerationOptions) domain.ValidationRuleSet {
	profile := c.Profile(platform)
	if profile == nil {
		return domain.ValidationRuleSet{
			Platform:           platform,
			MinDuration:        1,
			MaxDuration:        math.MaxInt32,
			MaxHashtags:        math.MaxInt32,
			RequireHook:        opts.IncludeHook,
			RequireCTA:         opts.IncludeCTA,
			MinHookWords:       c.validation.MinHookWords,
			MinBodyWords:       c.validation.MinBodyWords,
			RequireCompleteEnd: true,
		}
	}

	target := opts.TargetDurationSeconds
	if target <= 0 {
		target = profile.Duration.Ideal
	}
	target = util.Clamp(target, profile.Duration.Min, profile.Duration.Max)

	tolerance := c.validation.DurationTolerance
	minDuration := int(math.Round(float64(target) * (1 - tolerance)))
	maxDuration := int(math.Round(float64(target) * (1 + tolerance)))

	return domain.ValidationRuleSet{
		Platform:           platform,
		MinDuration:        max(profile.Duration.Min, minDuration),
		MaxDuration:        min(profile.Duration.Max, maxDuration),
		MinHashtags:        profile.Hashtags.Min,
		MaxHashtags:        profile.Hashtags.Max,
		RequireHook:        opts.IncludeHook,
		RequireCTA:         opts.IncludeCTA,
		MinHookWords:       c.validation.MinHookWords,
		MinBodyWords:       c.validation.MinBodyWords,
		RequireCompleteEnd: true,
	}
}
