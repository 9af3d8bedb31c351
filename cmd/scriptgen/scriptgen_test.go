package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/kapu/trend-script-go/internal/domain"
)

func TestScoreCommand(t *testing.T) {
	script := map[string]any{
		"platform": "tiktok",
		"title":    "Octopus facts",
		"sections": map[string]any{
			"hook": map[string]any{"content": "Did you know octopuses have three hearts?"},
			"body": map[string]any{"content": "Each heart has a job. Two pump blood to the gills and one feeds the body. Which heart would you keep?"},
			"cta":  map[string]any{"content": "Follow for more ocean facts!"},
		},
		"hashtags": []string{"#ocean", "#facts", "#science"},
	}
	data, err := json.Marshal(script)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "script.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"score", "--file", path})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("score failed: %v", err)
	}

	var score domain.AlgorithmScore
	if err := json.Unmarshal(out.Bytes(), &score); err != nil {
		t.Fatalf("output is not a score: %v\n%s", err, out.String())
	}
	if score.Platform != domain.PlatformTikTok || score.OverallScore <= 0 || len(score.Breakdown) != 5 {
		t.Fatalf("unexpected score: %+v", score)
	}
}

func TestDecodeScriptRecomputesDerivedFields(t *testing.T) {
	raw := `{"platform":"youtube","title":"t","sections":{"body":{"content":"one two three four","word_count":999}},"warnings":["too short"]}`
	s, err := decodeScript([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Platform != domain.PlatformShorts {
		t.Fatalf("platform = %s", s.Platform)
	}
	if s.Sections.Body.WordCount != 4 || s.EstimatedDurationSeconds != s.Sections.Body.EstimatedSeconds {
		t.Fatalf("derived fields not recomputed: %+v", s.Sections.Body)
	}
	if len(s.Warnings) != 1 {
		t.Fatalf("warnings dropped: %v", s.Warnings)
	}
}

func TestDecodeTrendRequiresIDAndTitle(t *testing.T) {
	if _, err := decodeTrend([]byte(`{"id":"x"}`)); err == nil {
		t.Fatal("expected error for missing title")
	}
	tr, err := decodeTrend([]byte(`{"id":"x","title":"Hello","subreddit":"aww","nes":42.5}`))
	if err != nil || tr.Source() != "r/aww" || tr.NES != 42.5 {
		t.Fatalf("trend = %+v err = %v", tr, err)
	}
}

func TestParsePlatformFlag(t *testing.T) {
	got, err := parsePlatformFlag(nil)
	if err != nil || got != nil {
		t.Fatalf("empty flag should defer to config: %v %v", got, err)
	}
	got, err = parsePlatformFlag([]string{"ig", "reels", "yt"})
	if err != nil || len(got) != 2 || got[0] != domain.PlatformReels || got[1] != domain.PlatformShorts {
		t.Fatalf("parsed = %v %v", got, err)
	}
	if _, err := parsePlatformFlag([]string{"vine"}); err == nil {
		t.Fatal("expected error for unknown platform")
	}
}

func TestApplyOptionFlagsCarriesInstructions(t *testing.T) {
	genTone, genNotes = "Dramatic", "  Mention the subreddit.  "
	t.Cleanup(func() { genTone, genNotes = "", "" })

	opts := applyOptionFlags(generateCmd, domain.DefaultGenerationOptions())
	if opts.Tone != domain.ToneDramatic || opts.AdditionalInstructions != "Mention the subreddit." {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if !opts.IncludeHook || !opts.IncludeCTA {
		t.Fatalf("unchanged toggles must keep their defaults: %+v", opts)
	}
}
