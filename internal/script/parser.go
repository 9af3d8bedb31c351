// Package script turns free-text model output into typed script sections.
//
// Accepted grammar, tried in order:
//
//  1. JSON: an object (optionally inside a ``` or ```json fence) with the keys
//     title, hook, body (or script), cta, hashtags, optimizations.
//  2. Markers: a section starts on a line whose first token is a known section
//     name followed by a colon ("HOOK:", "**CTA:**", "## Body:", "HOOK (0-3s):"),
//     or a line that is a bracketed section name with an optional timing
//     annotation ("[HOOK]", "[BODY - 3s to 40s]"). Text on the marker line after
//     the marker belongs to the section. A section runs until the next marker.
//     Repeated markers append to the same section.
//  3. Plain: no markers at all, the whole text is the body.
//
// Known section names: TITLE, HOOK, BODY, SCRIPT, CTA, CALL TO ACTION,
// HASHTAGS, TAGS, OPTIMIZATIONS, NOTES.
//
// Inline cues such as [TEXT: "..."] or [CUT TO: b-roll] are not section
// names and stay inside the section text. A bracketed cue that starts with a
// section name and a colon ([CTA: "Follow"]) is also left as text; only the
// bare or dash-annotated bracket form opens a section. A model that emits a
// bare "[HOOK]" line inside its body will still split there.
package script

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrEmptyBody is returned when no body text could be recovered.
var ErrEmptyBody = errors.New("script output has no body")

type Format string

const (
	FormatJSON    Format = "json"
	FormatMarkers Format = "markers"
	FormatPlain   Format = "plain"
)

// Parsed is the typed result of Parse.
type Parsed struct {
	Format        Format
	Title         string
	Hook          string
	Body          string
	CTA           string
	Hashtags      []string
	Optimizations []string
}

type sectionKey int

const (
	keyNone sectionKey = iota
	keyTitle
	keyHook
	keyBody
	keyCTA
	keyHashtags
	keyNotes
)

const sectionNames = `TITLE|HOOK|BODY|SCRIPT|CTA|CALL TO ACTION|HASHTAGS|TAGS|OPTIMIZATIONS|NOTES`

var (
	colonMarker   = regexp.MustCompile(`(?i)^\s*(?:#{1,6}\s*)?(?:\*\*)?(` + sectionNames + `)(?:\s*\([^)]*\))?(?:\*\*)?\s*:(?:\*\*)?\s*(.*)$`)
	bracketMarker = regexp.MustCompile(`(?i)^\s*\[(` + sectionNames + `)(?:\s*[-–]\s*[^\]]*)?\]\s*(.*)$`)
	headerMarker  = regexp.MustCompile(`(?i)^\s*#{1,6}\s*(` + sectionNames + `)\s*$`)

	hashtagPattern  = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	tagWordPattern  = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	bulletPrefix    = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)
	hashtagOnlyLine = regexp.MustCompile(`^\s*(?:#[\p{L}\p{N}_]+[\s,]*)+$`)
)

// Parse extracts sections from raw model output.
func Parse(raw string) (*Parsed, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, ErrEmptyBody
	}

	if parsed, ok := parseJSON(text); ok {
		return finish(parsed)
	}

	if parsed, ok := parseMarkers(text); ok {
		return finish(parsed)
	}

	return finish(parsePlain(text))
}

func finish(p *Parsed) (*Parsed, error) {
	p.Title = strings.TrimSpace(unquote(p.Title))
	p.Hook = strings.TrimSpace(unquote(p.Hook))
	p.Body = strings.TrimSpace(unquote(p.Body))
	p.CTA = strings.TrimSpace(unquote(p.CTA))
	p.Hashtags = normalizeHashtags(p.Hashtags)
	if p.Body == "" {
		return nil, ErrEmptyBody
	}
	return p, nil
}

type jsonPayload struct {
	Title         string          `json:"title"`
	Hook          string          `json:"hook"`
	Body          string          `json:"body"`
	Script        string          `json:"script"`
	CTA           string          `json:"cta"`
	Hashtags      json.RawMessage `json:"hashtags"`
	Optimizations []string        `json:"optimizations"`
}

func parseJSON(text string) (*Parsed, bool) {
	cleaned := stripFence(text)
	if !strings.HasPrefix(cleaned, "{") {
		return nil, false
	}

	var payload jsonPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, false
	}

	body := payload.Body
	if body == "" {
		body = payload.Script
	}

	return &Parsed{
		Format:        FormatJSON,
		Title:         payload.Title,
		Hook:          payload.Hook,
		Body:          body,
		CTA:           payload.CTA,
		Hashtags:      decodeHashtags(payload.Hashtags),
		Optimizations: cleanLines(payload.Optimizations),
	}, true
}

// decodeHashtags accepts either ["#a", "b"] or "#a #b".
func decodeHashtags(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var joined string
	if err := json.Unmarshal(raw, &joined); err == nil {
		return splitTags(joined)
	}
	return nil
}

func stripFence(text string) string {
	cleaned := text
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
	}
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

func parseMarkers(text string) (*Parsed, bool) {
	buckets := make(map[sectionKey][]string)
	current := keyNone
	found := false

	for _, line := range strings.Split(text, "\n") {
		if key, rest, ok := matchMarker(line); ok {
			found = true
			current = key
			if strings.TrimSpace(rest) != "" {
				buckets[current] = append(buckets[current], rest)
			}
			continue
		}
		buckets[current] = append(buckets[current], line)
	}

	if !found {
		return nil, false
	}

	body := joinBlock(buckets[keyBody])
	if strings.TrimSpace(body) == "" {
		body = joinBlock(buckets[keyNone])
	}

	hook, hookTags := stripHashtagLines(joinBlock(buckets[keyHook]))
	body, bodyTags := stripHashtagLines(body)
	cta, ctaTags := stripHashtagLines(joinBlock(buckets[keyCTA]))

	hashtags := splitTags(strings.Join(buckets[keyHashtags], " "))
	if len(hashtags) == 0 {
		hashtags = append(append(append(hashtags, hookTags...), bodyTags...), ctaTags...)
	}

	return &Parsed{
		Format:        FormatMarkers,
		Title:         firstLine(joinBlock(buckets[keyTitle])),
		Hook:          hook,
		Body:          body,
		CTA:           cta,
		Hashtags:      hashtags,
		Optimizations: cleanLines(buckets[keyNotes]),
	}, true
}

func parsePlain(text string) *Parsed {
	body, tags := stripHashtagLines(text)
	return &Parsed{
		Format:   FormatPlain,
		Body:     body,
		Hashtags: tags,
	}
}

func matchMarker(line string) (sectionKey, string, bool) {
	for _, re := range []*regexp.Regexp{bracketMarker, colonMarker} {
		if m := re.FindStringSubmatch(line); m != nil {
			return keyFor(m[1]), m[2], true
		}
	}
	if m := headerMarker.FindStringSubmatch(line); m != nil {
		return keyFor(m[1]), "", true
	}
	return keyNone, "", false
}

func keyFor(name string) sectionKey {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "TITLE":
		return keyTitle
	case "HOOK":
		return keyHook
	case "BODY", "SCRIPT":
		return keyBody
	case "CTA", "CALL TO ACTION":
		return keyCTA
	case "HASHTAGS", "TAGS":
		return keyHashtags
	case "OPTIMIZATIONS", "NOTES":
		return keyNotes
	default:
		return keyNone
	}
}

// stripHashtagLines removes lines made only of hashtags and returns them as tags.
func stripHashtagLines(text string) (string, []string) {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	var tags []string
	for _, line := range lines {
		if hashtagOnlyLine.MatchString(line) {
			tags = append(tags, hashtagPattern.FindAllString(line, -1)...)
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n")), tags
}

func splitTags(text string) []string {
	if strings.Contains(text, "#") {
		return hashtagPattern.FindAllString(text, -1)
	}
	return tagWordPattern.FindAllString(text, -1)
}

// normalizeHashtags prefixes '#' and drops empties. Order is kept and
// duplicates are not removed.
func normalizeHashtags(tags []string) []string {
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(strings.Trim(tag, ",;"))
		tag = strings.TrimLeft(tag, "#")
		if tag == "" {
			continue
		}
		result = append(result, "#"+tag)
	}
	return result
}

func joinBlock(lines []string) string {
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}

func cleanLines(lines []string) []string {
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if line != "" {
			result = append(result, line)
		}
	}
	return result
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
