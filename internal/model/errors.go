package model

import (
	"errors"
)

// Input errors, reported synchronously at upload time with no state mutation.
var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrFileTooLarge      = errors.New("file exceeds maximum size")
	ErrTooManyPages      = errors.New("document exceeds maximum page count")
)

// ErrParseFailure marks a processing failure; the previous ready document
// stays intact.
var ErrParseFailure = errors.New("document could not be parsed")

// Usage errors. Quota is per citizen session, budget is per tenant; the two
// are different failure axes and must stay distinguishable.
var (
	ErrQuotaExceeded  = errors.New("daily message quota exceeded")
	ErrBudgetExceeded = errors.New("daily cost budget exceeded")
)

// ErrGenerationUnavailable means the model call still failed after retries.
// Callers surface an apology, never this error text.
var ErrGenerationUnavailable = errors.New("answer generation unavailable")

var (
	ErrTenantNotFound  = errors.New("tenant not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrChatUnavailable = errors.New("chat not available")
)
