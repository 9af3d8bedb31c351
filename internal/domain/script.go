package domain

import (
	"math"
	"strings"
	"time"
)

// WordsPerSecond is the speaking rate used to estimate section duration.
const WordsPerSecond = 2.5

type SectionName string

const (
	SectionHook SectionName = "hook"
	SectionBody SectionName = "body"
	SectionCTA  SectionName = "cta"
)

// ScriptSection holds one narrative block. WordCount and EstimatedSeconds are
// derived from Content; build sections with NewSection so they stay in sync.
type ScriptSection struct {
	Content          string `json:"content"`
	WordCount        int    `json:"word_count"`
	EstimatedSeconds int    `json:"estimated_seconds"`
}

func NewSection(content string) *ScriptSection {
	content = strings.TrimSpace(content)
	words := CountWords(content)
	return &ScriptSection{
		Content:          content,
		WordCount:        words,
		EstimatedSeconds: EstimateSeconds(words),
	}
}

func CountWords(text string) int {
	return len(strings.Fields(text))
}

func EstimateSeconds(words int) int {
	return int(math.Round(float64(words) / WordsPerSecond))
}

func (s *ScriptSection) IsEmpty() bool {
	return s == nil || strings.TrimSpace(s.Content) == ""
}

type ScriptSections struct {
	Hook *ScriptSection `json:"hook,omitempty"`
	Body *ScriptSection `json:"body"`
	CTA  *ScriptSection `json:"cta,omitempty"`
}

type ScriptMetadata struct {
	GeneratedAt  time.Time `json:"generated_at"`
	TrendID      string    `json:"trend_id"`
	Category     string    `json:"category"`
	AgentVersion string    `json:"agent_version"`
	Provider     string    `json:"provider,omitempty"`
	Model        string    `json:"model,omitempty"`
	InputTokens  int64     `json:"input_tokens,omitempty"`
	OutputTokens int64     `json:"output_tokens,omitempty"`
}

// PlatformScript is one generated script for a single platform. A new value is
// produced for every generation attempt.
type PlatformScript struct {
	Platform                 Platform       `json:"platform"`
	Title                    string         `json:"title"`
	Sections                 ScriptSections `json:"sections"`
	Hashtags                 []string       `json:"hashtags"`
	EstimatedDurationSeconds int            `json:"estimated_duration_seconds"`
	Optimizations            []string       `json:"optimizations"`
	Warnings                 []string       `json:"warnings,omitempty"`
	Metadata                 ScriptMetadata `json:"metadata"`
}

// NewPlatformScript assembles a script and computes its total duration.
func NewPlatformScript(platform Platform, title string, sections ScriptSections, hashtags, optimizations []string, metadata ScriptMetadata) *PlatformScript {
	s := &PlatformScript{
		Platform:      platform,
		Title:         strings.TrimSpace(title),
		Sections:      sections,
		Hashtags:      append([]string(nil), hashtags...),
		Optimizations: append([]string(nil), optimizations...),
		Metadata:      metadata,
	}
	if s.Sections.Body == nil {
		s.Sections.Body = NewSection("")
	}
	s.EstimatedDurationSeconds = s.sumDuration()
	return s
}

func (s *PlatformScript) sumDuration() int {
	total := 0
	for _, section := range []*ScriptSection{s.Sections.Hook, s.Sections.Body, s.Sections.CTA} {
		if section != nil {
			total += section.EstimatedSeconds
		}
	}
	return total
}

// Section returns the named section, or nil when it is absent.
func (s *PlatformScript) Section(name SectionName) *ScriptSection {
	if s == nil {
		return nil
	}
	switch name {
	case SectionHook:
		return s.Sections.Hook
	case SectionBody:
		return s.Sections.Body
	case SectionCTA:
		return s.Sections.CTA
	default:
		return nil
	}
}

// WithSection returns a copy of the script with one section replaced and the
// duration recomputed. The receiver is left untouched.
func (s *PlatformScript) WithSection(name SectionName, content string) *PlatformScript {
	next := s.Clone()
	var section *ScriptSection
	if strings.TrimSpace(content) != "" || name == SectionBody {
		section = NewSection(content)
	}
	switch name {
	case SectionHook:
		next.Sections.Hook = section
	case SectionBody:
		next.Sections.Body = section
	case SectionCTA:
		next.Sections.CTA = section
	}
	next.EstimatedDurationSeconds = next.sumDuration()
	return next
}

// Clone makes a deep copy so callers never share mutable state.
func (s *PlatformScript) Clone() *PlatformScript {
	if s == nil {
		return nil
	}
	next := *s
	next.Sections = ScriptSections{
		Hook: cloneSection(s.Sections.Hook),
		Body: cloneSection(s.Sections.Body),
		CTA:  cloneSection(s.Sections.CTA),
	}
	next.Hashtags = append([]string(nil), s.Hashtags...)
	next.Optimizations = append([]string(nil), s.Optimizations...)
	next.Warnings = append([]string(nil), s.Warnings...)
	return &next
}

func cloneSection(s *ScriptSection) *ScriptSection {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// FullText joins hook, body and CTA in reading order.
func (s *PlatformScript) FullText() string {
	if s == nil {
		return ""
	}
	parts := make([]string, 0, 3)
	for _, section := range []*ScriptSection{s.Sections.Hook, s.Sections.Body, s.Sections.CTA} {
		if !section.IsEmpty() {
			parts = append(parts, section.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

// HasWarnings reports whether the script was accepted with validation caveats.
func (s *PlatformScript) HasWarnings() bool {
	return s != nil && len(s.Warnings) > 0
}
