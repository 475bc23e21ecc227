package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates no normaliser handles a MIME type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrGenerationUnavailable indicates the generation backend is not configured
	// or failed its start-up ping.
	ErrGenerationUnavailable = errors.New("generation backend unavailable")

	// ErrBackendFailure indicates a generation call failed in transport,
	// returned a non-success status, or produced no answer.
	ErrBackendFailure = errors.New("generation backend failure")

	// ErrCircuitOpen indicates the circuit breaker rejected a call without
	// reaching the backend.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrRateLimited indicates the backend rejected a call with HTTP 429.
	ErrRateLimited = errors.New("rate limited")
)

// FallbackAnswer is returned in place of a generated answer when the
// generation backend fails, times out, or is short-circuited by the breaker.
const FallbackAnswer = "Sorry, the answering service is temporarily unavailable. Please try again later."

// GenericErrorAnswer is returned when an unexpected failure escapes the
// query pipeline.
const GenericErrorAnswer = "Sorry, something went wrong while answering your question. Please try again."
