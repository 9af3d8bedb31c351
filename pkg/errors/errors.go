package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes
const (
	CodeConfiguration = "CONFIGURATION_ERROR"
	CodeGeneration    = "GENERATION_ERROR"
	CodeValidation    = "VALIDATION_ERROR"
	CodeCache         = "CACHE_ERROR"
	CodeService       = "SERVICE_ERROR"
	CodeUnexpected    = "UNEXPECTED_ERROR"
)

// GenerationKind classifies why a generation call failed.
type GenerationKind string

const (
	KindRateLimited     GenerationKind = "rate_limited"
	KindUnavailable     GenerationKind = "unavailable"
	KindContentFiltered GenerationKind = "content_filtered"
	KindEmptyResponse   GenerationKind = "empty_response"
	KindParseFailed     GenerationKind = "parse_failed"
)

type PipelineError struct {
	Message string
	Code    string
	Context map[string]any
	Cause   error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// ConfigurationError means the generation capability is unusable as configured
// (missing or rejected credentials, no client). It is never retried.
type ConfigurationError struct {
	*PipelineError
	Component string
}

func NewConfigurationError(message, component string, cause error) *ConfigurationError {
	return &ConfigurationError{
		PipelineError: &PipelineError{
			Message: message,
			Code:    CodeConfiguration,
			Context: map[string]any{
				"component": component,
			},
			Cause: cause,
		},
		Component: component,
	}
}

// GenerationError is returned by a platform agent when the model call fails.
type GenerationError struct {
	*PipelineError
	Kind      GenerationKind
	Retryable bool
	Platform  string
}

func NewGenerationError(message string, kind GenerationKind, retryable bool, cause error) *GenerationError {
	return &GenerationError{
		PipelineError: &PipelineError{
			Message: message,
			Code:    CodeGeneration,
			Context: map[string]any{
				"kind":      string(kind),
				"retryable": retryable,
			},
			Cause: cause,
		},
		Kind:      kind,
		Retryable: retryable,
	}
}

// ForPlatform tags the error with the platform that produced it.
func (e *GenerationError) ForPlatform(platform string) *GenerationError {
	e.Platform = platform
	e.Context["platform"] = platform
	return e
}

type ValidationError struct {
	*PipelineError
	Field string
	Value any
}

func NewValidationError(message, field string, value any) *ValidationError {
	return &ValidationError{
		PipelineError: &PipelineError{
			Message: message,
			Code:    CodeValidation,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type CacheError struct {
	*PipelineError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		PipelineError: &PipelineError{
			Message: message,
			Code:    CodeCache,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

type ServiceError struct {
	*PipelineError
	Service   string
	Operation string
}

func NewServiceError(message, service, operation string, cause error) *ServiceError {
	return &ServiceError{
		PipelineError: &PipelineError{
			Message: message,
			Code:    CodeService,
			Context: map[string]any{
				"service":   service,
				"operation": operation,
			},
			Cause: cause,
		},
		Service:   service,
		Operation: operation,
	}
}

// UnexpectedError wraps a panic or an unclassified failure caught at a task boundary.
type UnexpectedError struct {
	*PipelineError
	Recovered any
}

func NewUnexpectedError(message string, recovered any, cause error) *UnexpectedError {
	return &UnexpectedError{
		PipelineError: &PipelineError{
			Message: message,
			Code:    CodeUnexpected,
			Cause:   cause,
		},
		Recovered: recovered,
	}
}

// IsRetryable reports whether a failed platform task may be re-run.
// Configuration errors, invalid input and non-retryable generation errors are
// final; anything unclassified is treated as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var cfgErr *ConfigurationError
	if stderrors.As(err, &cfgErr) {
		return false
	}

	var valErr *ValidationError
	if stderrors.As(err, &valErr) {
		return false
	}

	var genErr *GenerationError
	if stderrors.As(err, &genErr) {
		return genErr.Retryable
	}

	return true
}

// IsConfiguration reports whether err is (or wraps) a ConfigurationError.
func IsConfiguration(err error) bool {
	var cfgErr *ConfigurationError
	return stderrors.As(err, &cfgErr)
}

// Kind returns a short machine-readable classification used for metrics.
func Kind(err error) string {
	if err == nil {
		return ""
	}

	var cfgErr *ConfigurationError
	if stderrors.As(err, &cfgErr) {
		return "configuration"
	}

	var genErr *GenerationError
	if stderrors.As(err, &genErr) {
		return string(genErr.Kind)
	}

	var valErr *ValidationError
	if stderrors.As(err, &valErr) {
		return "invalid_input"
	}

	var unexpected *UnexpectedError
	if stderrors.As(err, &unexpected) {
		return "unexpected"
	}

	return "unknown"
}
