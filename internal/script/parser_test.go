package script

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseMarkers(t *testing.T) {
	raw := `TITLE: The 3-second rule nobody follows
**HOOK:** Did you know most people quit in 3 seconds?
BODY:
Here is what the study found.
[TEXT: "3 seconds"] That is all you get.
CTA: Follow for part 2.
HASHTAGS: #productivity #focus, #habits
NOTES:
- Keep captions large
- Loop the last line`

	parsed, err := Parse(raw)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if parsed.Format != FormatMarkers {
		t.Fatalf("expected marker format, got %s", parsed.Format)
	}
	if parsed.Title != "The 3-second rule nobody follows" {
		t.Fatalf("unexpected title: %q", parsed.Title)
	}
	if parsed.Hook != "Did you know most people quit in 3 seconds?" {
		t.Fatalf("unexpected hook: %q", parsed.Hook)
	}
	wantBody := "Here is what the study found.\n[TEXT: \"3 seconds\"] That is all you get."
	if parsed.Body != wantBody {
		t.Fatalf("expected inline cue to stay in body, got %q", parsed.Body)
	}
	if parsed.CTA != "Follow for part 2." {
		t.Fatalf("unexpected cta: %q", parsed.CTA)
	}
	if !reflect.DeepEqual(parsed.Hashtags, []string{"#productivity", "#focus", "#habits"}) {
		t.Fatalf("unexpected hashtags: %v", parsed.Hashtags)
	}
	if !reflect.DeepEqual(parsed.Optimizations, []string{"Keep captions large", "Loop the last line"}) {
		t.Fatalf("unexpected notes: %v", parsed.Optimizations)
	}
}

func TestParseBracketHeaders(t *testing.T) {
	raw := `[HOOK - 0s to 3s]
Stop scrolling.
[BODY]
This one trick changes everything. [CTA: "tap follow"] appears on screen.
[CTA]
Comment your answer below.
#lifehacks #diy`

	parsed, err := Parse(raw)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if parsed.Hook != "Stop scrolling." {
		t.Fatalf("unexpected hook: %q", parsed.Hook)
	}
	if parsed.Body != `This one trick changes everything. [CTA: "tap follow"] appears on screen.` {
		t.Fatalf("expected colon cue to stay inline, got %q", parsed.Body)
	}
	if parsed.CTA != "Comment your answer below." {
		t.Fatalf("unexpected cta: %q", parsed.CTA)
	}
	if !reflect.DeepEqual(parsed.Hashtags, []string{"#lifehacks", "#diy"}) {
		t.Fatalf("expected trailing hashtag line to be lifted, got %v", parsed.Hashtags)
	}
}

func TestParseJSONPayload(t *testing.T) {
	raw := "```json\n{\"title\":\"Why cats knock things over\",\"hook\":\"Your cat is testing you.\",\"script\":\"Cats swat objects to learn.\",\"cta\":\"Share with a cat owner.\",\"hashtags\":\"#cats #pets\",\"optimizations\":[\"Use a close-up\"]}\n```"

	parsed, err := Parse(raw)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if parsed.Format != FormatJSON {
		t.Fatalf("expected json format, got %s", parsed.Format)
	}
	if parsed.Body != "Cats swat objects to learn." {
		t.Fatalf("expected script key to fill body, got %q", parsed.Body)
	}
	if !reflect.DeepEqual(parsed.Hashtags, []string{"#cats", "#pets"}) {
		t.Fatalf("unexpected hashtags: %v", parsed.Hashtags)
	}
}

func TestParsePlainFallsBackToBody(t *testing.T) {
	parsed, err := Parse("Just one paragraph of narration.\n#one #two")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if parsed.Format != FormatPlain {
		t.Fatalf("expected plain format, got %s", parsed.Format)
	}
	if parsed.Body != "Just one paragraph of narration." {
		t.Fatalf("unexpected body: %q", parsed.Body)
	}
	if len(parsed.Hashtags) != 2 {
		t.Fatalf("expected 2 hashtags, got %v", parsed.Hashtags)
	}
}

func TestParseMarkersWithoutBodyUsesPreamble(t *testing.T) {
	raw := "The story starts here and keeps going.\nHOOK: Wait for it."
	parsed, err := Parse(raw)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if parsed.Body != "The story starts here and keeps going." {
		t.Fatalf("expected preamble as body, got %q", parsed.Body)
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := Parse("   "); !errors.Is(err, ErrEmptyBody) {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}
	if _, err := Parse("HOOK: only a hook"); !errors.Is(err, ErrEmptyBody) {
		t.Fatalf("expected ErrEmptyBody for hook-only output, got %v", err)
	}
}
