package dataset

import "errors"

var (
	// ErrNoTrainingData means no interactions survived filtering; there is
	// nothing to learn from and the training cycle must abort.
	ErrNoTrainingData = errors.New("no training data")
	// ErrMappingIncomplete means the internal/external id bijection does not
	// cover the expected entity universe. Fatal for the cycle, never retried.
	ErrMappingIncomplete = errors.New("id mapping incomplete")
)
