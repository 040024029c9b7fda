package services

import "errors"

var (
	// ErrInput marks a request whose document or parameters cannot be used:
	// no extractable text, non-PDF content, too little text for a quiz.
	ErrInput = errors.New("invalid input")

	// ErrRetrieval marks a failed document fetch or upload.
	ErrRetrieval = errors.New("document retrieval failed")

	// ErrModelInvocation marks a failed call to the language model itself.
	ErrModelInvocation = errors.New("model invocation failed")

	// ErrNormalization marks model output that could not be coerced into
	// the expected shape.
	ErrNormalization = errors.New("model output could not be normalized")

	// ErrSessionNotFound is returned by a TokenStore for an unknown state.
	ErrSessionNotFound = errors.New("oauth session not found")

	// ErrNotAuthenticated asks the caller to run the OAuth login again.
	ErrNotAuthenticated = errors.New("user not authenticated, please login again")
)
