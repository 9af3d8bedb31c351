package ai

import (
	"context"
	stderrors "errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/openai/openai-go/v3"

	"github.com/kapu/trend-script-go/pkg/errors"
)

// errContentBlocked is returned by providers when the response was withheld by
// a safety filter.
var errContentBlocked = stderrors.New("response blocked by content filter")

var (
	geminiCodeRegex = regexp.MustCompile(`"code":\s*(\d{3})`)
	genaiCodeRegex  = regexp.MustCompile(`^Error (\d{3})\b`)
	leadingCode     = regexp.MustCompile(`^(\d{3})\s`)
	anyServerCode   = regexp.MustCompile(`\b(5\d{2})\b`)
)

// statusCode extracts an HTTP status from a provider error, or 0.
func statusCode(err error) int {
	var apiErr *openai.Error
	if stderrors.As(err, &apiErr) {
		return apiErr.StatusCode
	}

	msg := err.Error()
	for _, re := range []*regexp.Regexp{geminiCodeRegex, genaiCodeRegex, leadingCode} {
		if m := re.FindStringSubmatch(msg); len(m) > 1 {
			if code, convErr := strconv.Atoi(m[1]); convErr == nil {
				return code
			}
		}
	}
	if m := anyServerCode.FindStringSubmatch(msg); len(m) > 1 {
		code, _ := strconv.Atoi(m[1])
		return code
	}
	return 0
}

func isRateLimit(err error, code int) bool {
	if code == 429 {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Rate limit") || strings.Contains(msg, "RESOURCE_EXHAUSTED") || strings.Contains(msg, "quota")
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "ETIMEDOUT")
}

// classify maps a raw provider error onto the pipeline's error types.
func classify(provider string, err error) error {
	if err == nil {
		return nil
	}

	var typed *errors.GenerationError
	if stderrors.As(err, &typed) {
		return err
	}
	if errors.IsConfiguration(err) {
		return err
	}

	if stderrors.Is(err, errContentBlocked) {
		return errors.NewGenerationError(provider+" blocked the response", errors.KindContentFiltered, false, err)
	}
	if stderrors.Is(err, context.Canceled) {
		return errors.NewGenerationError(provider+" call canceled", errors.KindUnavailable, true, err)
	}
	if isTimeout(err) {
		return errors.NewGenerationError(provider+" call timed out", errors.KindUnavailable, true, err)
	}

	code := statusCode(err)
	switch {
	case code == 401 || code == 403:
		return errors.NewConfigurationError(provider+" rejected the credentials", strings.ToLower(provider), err)
	case isRateLimit(err, code):
		return errors.NewGenerationError(provider+" rate limited", errors.KindRateLimited, true, err)
	case code >= 500 && code < 600:
		return errors.NewGenerationError(provider+" unavailable", errors.KindUnavailable, true, err)
	case code == 400 && strings.Contains(strings.ToLower(err.Error()), "safety"):
		return errors.NewGenerationError(provider+" blocked the prompt", errors.KindContentFiltered, false, err)
	default:
		return errors.NewGenerationError(provider+" call failed", errors.KindUnavailable, true, err)
	}
}

// isServiceFailure reports whether the error should count against the breaker.
func isServiceFailure(err error) bool {
	var genErr *errors.GenerationError
	if !stderrors.As(err, &genErr) {
		return false
	}
	return genErr.Kind == errors.KindUnavailable || genErr.Kind == errors.KindRateLimited
}
