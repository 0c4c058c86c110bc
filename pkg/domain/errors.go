package domain

import (
	"errors"
	"fmt"
)

var (
	ErrFestivalNotFound     = errors.New("festival not found")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrArtistNotFound       = errors.New("artist not found")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrExternalAPIFailure   = errors.New("external API failure")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")
	ErrRecommendationFailed = errors.New("recommendation generation failed")
	ErrBatchTooLarge        = errors.New("batch exceeds collaborator limit")
	ErrCacheMiss            = errors.New("cache miss")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// GenerationError reports a recommendation run that did not complete. The
// batches that finished before the failure are counted in CompletedBatches
// and their results are still handed back to the caller.
type GenerationError struct {
	Stage            string
	CompletedBatches int
	FailedBatches    int
	Err              error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %s stage (%d batches completed, %d failed): %v",
		ErrRecommendationFailed, e.Stage, e.CompletedBatches, e.FailedBatches, e.Err)
}

func (e *GenerationError) Unwrap() []error {
	return []error{ErrRecommendationFailed, e.Err}
}
