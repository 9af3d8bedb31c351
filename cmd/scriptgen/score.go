package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kapu/trend-script-go/internal/adapter"
	"github.com/kapu/trend-script-go/internal/domain"
	"github.com/kapu/trend-script-go/internal/platform"
	"github.com/kapu/trend-script-go/internal/service/scorer"
)

var scoreFile string

var scoreCmd = &cobra.Command{
	Use:     "score",
	Short:   "Score a stored script for viral potential",
	Example: `  scriptgen score --file tiktok_script.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(scoreFile)
		if err != nil {
			return fmt.Errorf("failed to read script file: %w", err)
		}
		s, err := decodeScript(data)
		if err != nil {
			return err
		}

		catalog, err := platform.DefaultCatalog()
		if err != nil {
			return fmt.Errorf("failed to load platform catalog: %w", err)
		}
		score := scorer.New(catalog).Score(s)
		if textOutput() {
			return writeText(cmd.OutOrStdout(), adapter.NewResponseFormatter(false).FormatScore(score))
		}
		return writeJSON(cmd.OutOrStdout(), score)
	},
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreFile, "file", "f", "", "Path to a script JSON file")
	_ = scoreCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(scoreCmd)
}

// decodeScript accepts a stored script and recomputes derived section fields.
func decodeScript(data []byte) (*domain.PlatformScript, error) {
	var s domain.PlatformScript
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("invalid script JSON: %w", err)
	}
	if !s.Platform.IsValid() {
		p, err := domain.ParsePlatform(string(s.Platform))
		if err != nil {
			return nil, err
		}
		s.Platform = p
	}

	sections := domain.ScriptSections{Body: rebuild(s.Sections.Body)}
	if s.Sections.Hook != nil {
		sections.Hook = rebuild(s.Sections.Hook)
	}
	if s.Sections.CTA != nil {
		sections.CTA = rebuild(s.Sections.CTA)
	}
	out := domain.NewPlatformScript(s.Platform, s.Title, sections, s.Hashtags, s.Optimizations, s.Metadata)
	out.Warnings = s.Warnings
	return out, nil
}

func rebuild(section *domain.ScriptSection) *domain.ScriptSection {
	if section == nil {
		return nil
	}
	return domain.NewSection(section.Content)
}
