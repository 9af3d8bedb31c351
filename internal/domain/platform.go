package domain

import (
	"fmt"
	"strings"
)

type Platform string

const (
	PlatformTikTok Platform = "tiktok"
	PlatformReels  Platform = "reels"
	PlatformShorts Platform = "shorts"
)

// AllPlatforms lists every supported platform in display order.
var AllPlatforms = []Platform{PlatformTikTok, PlatformReels, PlatformShorts}

func (p Platform) String() string {
	return string(p)
}

func (p Platform) IsValid() bool {
	switch p {
	case PlatformTikTok, PlatformReels, PlatformShorts:
		return true
	default:
		return false
	}
}

func (p Platform) DisplayName() string {
	switch p {
	case PlatformTikTok:
		return "TikTok"
	case PlatformReels:
		return "Instagram Reels"
	case PlatformShorts:
		return "YouTube Shorts"
	default:
		return string(p)
	}
}

// ParsePlatform accepts the canonical names plus a few common spellings.
func ParsePlatform(raw string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "tiktok", "tik_tok", "tik-tok":
		return PlatformTikTok, nil
	case "reels", "instagram", "instagram_reels", "ig":
		return PlatformReels, nil
	case "shorts", "youtube", "youtube_shorts", "yt":
		return PlatformShorts, nil
	default:
		return "", fmt.Errorf("unknown platform %q", raw)
	}
}

// ParsePlatforms parses a list and drops duplicates, keeping first-seen order.
func ParsePlatforms(raw []string) ([]Platform, error) {
	result := make([]Platform, 0, len(raw))
	for _, r := range raw {
		p, err := ParsePlatform(r)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return UniquePlatforms(result), nil
}

func UniquePlatforms(platforms []Platform) []Platform {
	seen := make(map[Platform]struct{}, len(platforms))
	result := make([]Platform, 0, len(platforms))
	for _, p := range platforms {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		result = append(result, p)
	}
	return result
}
