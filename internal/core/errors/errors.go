// Package errors provides centralized error definitions for the application.
// Errors are organized by pipeline stage to avoid duplication and provide
// consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Normalization errors.
var (
	// ErrMalformedRecord indicates a raw record missing a required field or
	// carrying a non-absolute URL. Recoverable: the record is dropped.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrNoItems indicates zero items survived normalization across all
	// enabled sources. Fatal for the run.
	ErrNoItems = errors.New("no items survived normalization")
)

// Clustering errors.
var (
	// ErrUnresolvedReference indicates a summarized line references a URL
	// not present in the input set. Recoverable: the line is dropped.
	ErrUnresolvedReference = errors.New("unresolved url reference")

	// ErrEmptyResponse indicates the summarization service returned no
	// parseable content.
	ErrEmptyResponse = errors.New("empty summarizer response")
)

// Assembly errors.
var (
	// ErrBudgetExceeded indicates the assembled digest overshot the word
	// budget beyond tolerance. Soft: logged, never aborts the run.
	ErrBudgetExceeded = errors.New("word budget exceeded")
)

// Service call errors.
var (
	// ErrRateLimited indicates the summarization service signalled rate
	// limiting. Retryable.
	ErrRateLimited = errors.New("rate limited")

	// ErrRetriesExhausted indicates a transient failure persisted through
	// all retry attempts.
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// Archive errors.
var (
	// ErrEntryNotFound indicates no archive entry exists for the date.
	ErrEntryNotFound = errors.New("archive entry not found")

	// ErrCommitFailed indicates the archive commit failed after the digest
	// was assembled. Fatal: a generated digest must not be silently lost.
	ErrCommitFailed = errors.New("archive commit failed")
)
