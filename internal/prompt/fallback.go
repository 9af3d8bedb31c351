package prompt

import (
	"fmt"
	"strings"
)

// FallbackScriptPrompt renders the script prompt without the template engine.
func FallbackScriptPrompt(data ScriptPromptData) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You write short-form video scripts for %s.\n\n", data.PlatformName)
	fmt.Fprintf(&b, "Trend to cover: %q from %s", data.TrendTitle, data.Source)
	if data.Category != "" {
		fmt.Fprintf(&b, " (%s)", data.Category)
	}
	b.WriteString(".\n\n")

	fmt.Fprintf(&b, "Runtime %d-%d seconds, about %d words. Tone: %s. Language: %s.\n",
		data.MinSeconds, data.MaxSeconds, data.TargetWords, data.Tone, data.LanguageName)
	if data.IncludeHook {
		b.WriteString("Start with a 5-15 word hook.\n")
	}
	if data.IncludeCTA {
		b.WriteString("End with a clear call to action.\n")
	}
	fmt.Fprintf(&b, "Use %d-%d hashtags. End every section on a complete sentence.\n", data.HashtagMin, data.HashtagMax)

	if data.AdditionalInstructions != "" {
		b.WriteString("\n")
		b.WriteString(data.AdditionalInstructions)
		b.WriteString("\n")
	}

	b.WriteString("\nRespond with JSON only: {\"title\", \"hook\", \"body\", \"cta\", \"hashtags\", \"optimizations\"}.")
	return b.String()
}
