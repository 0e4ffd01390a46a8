package usecase

import "errors"

var (
	// ErrUpstreamUnavailable marks transport failures, timeouts and 5xx
	// answers from the match provider after retries are exhausted.
	ErrUpstreamUnavailable = errors.New("match provider is temporarily unavailable")

	// ErrRateLimited and ErrForbidden surface the provider's 429/403
	// answers so callers can distinguish throttling from blocking.
	ErrRateLimited = errors.New("match provider rate limited the request")
	ErrForbidden   = errors.New("match provider rejected the request")

	// ErrSchemaMismatch marks payloads that decode but miss required
	// identity fields.
	ErrSchemaMismatch = errors.New("match provider payload does not match the expected schema")

	// ErrRunInProgress is returned when a collection run is requested
	// while another one holds the single-run slot.
	ErrRunInProgress = errors.New("collection run already in progress")

	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrStorage      = errors.New("storage operation failed")
)
