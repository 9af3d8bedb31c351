package scorer

import "regexp"

// Rule tables. Every pattern is case-insensitive and compiled once.
var (
	strongHookPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\?\s*$`),
		regexp.MustCompile(`^\s*\d`),
		regexp.MustCompile(`^\s*\[[^\]]+\]`),
		regexp.MustCompile(`(?i)^\s*(stop|wait|pov|nobody|never|imagine|what if|did you know|here'?s why|this is why|the truth about|you won'?t believe|i tried|watch)\b`),
		regexp.MustCompile(`(?i)\b(secret|mistake|nobody tells you|shocking|hack|actually)\b`),
	}

	weakHookPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*(hi|hey|hello|what'?s up|welcome|good (morning|evening))\b`),
		regexp.MustCompile(`(?i)^\s*(so|today|in this video|let me tell you|i want to talk)\b`),
	}

	patternInterruptPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\[(cut|zoom|b-?roll|text|transition|pause|sfx|sound|visual|scene|jump cut)[^\]]*\]`),
		regexp.MustCompile(`(?i)\b(but here'?s the (thing|catch|twist)|plot twist|wait for it|but then|here'?s where it gets)\b`),
	}

	ctaCommandPattern = regexp.MustCompile(`(?i)\b(comment|follow|share|save|like|subscribe|tag|duet|stitch|tell me|drop|let me know|try)\b`)
	debatePattern     = regexp.MustCompile(`(?i)\b(unpopular opinion|hot take|agree or disagree|am i wrong|change my mind|controversial|which side|team \w+ or team)\b`)
	challengePattern  = regexp.MustCompile(`(?i)\b(i challenge you|bet you can'?t|try this|your turn|can you|challenge)\b`)

	openEndedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\.\.\.|…)\s*$`),
		regexp.MustCompile(`(?i)\b(to be continued|part 2|part two|stay tuned|wait until|find out|you'?ll see)\b`),
	}
	callbackPattern = regexp.MustCompile(`(?i)\b(remember|like i said|back to|that'?s why|full circle|as i said|go back|rewatch|watch again|from the start)\b`)
)

// echoStopWords are too common to count as a lexical callback to the hook.
var echoStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "but": {}, "you": {}, "your": {}, "this": {},
	"that": {}, "what": {}, "why": {}, "how": {}, "did": {}, "is": {}, "are": {}, "it": {},
	"i": {}, "we": {}, "so": {}, "to": {}, "of": {}, "in": {},
}

func countMatches(patterns []*regexp.Regexp, text string) int {
	n := 0
	for _, re := range patterns {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}

func countAllMatches(patterns []*regexp.Regexp, text string) int {
	n := 0
	for _, re := range patterns {
		n += len(re.FindAllStringIndex(text, -1))
	}
	return n
}
