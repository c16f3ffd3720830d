package domain

import "errors"

// Sentinel errors forming the failure taxonomy. Call sites wrap these with
// fmt.Errorf("%w: ...") so callers can classify failures with errors.Is
// regardless of how deep the wrapping goes.
var (
	// ErrConfiguration marks missing or invalid configuration, including
	// absent credentials. Surfaced at startup and fatal.
	ErrConfiguration = errors.New("configuration error")

	// ErrEncoding marks a failed encode run: an embedding call failed or
	// returned a vector of unexpected dimensionality.
	ErrEncoding = errors.New("encoding failed")

	// ErrRetrieval marks a failed retrieval: the vector store query
	// errored, or returned zero candidates when at least one was required.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrEvaluation marks a judging failure for an evaluation case, or an
	// evaluation run that produced no successfully scored case at all.
	ErrEvaluation = errors.New("evaluation failed")

	// ErrGeneration marks a failed completion call; fatal to the chat turn
	// it belongs to and nothing else.
	ErrGeneration = errors.New("generation failed")

	// ErrTimeout marks an external call that exceeded its bounded timeout.
	ErrTimeout = errors.New("external call timed out")
)
