package classifier

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFitted is returned when predicting or serializing before Fit or Load.
	ErrNotFitted = errors.New("knn: classifier is not fitted")
	// ErrInvalidInput is returned when prediction input is neither a vector nor a matrix.
	ErrInvalidInput = errors.New("knn: input must be a vector or a matrix of numbers")
	// ErrInvalidModel is the parent of every *ValidationError.
	ErrInvalidModel = errors.New("knn: invalid model")
	// ErrInvalidK is returned for a negative k.
	ErrInvalidK = errors.New("knn: k must be positive")
	// ErrLengthMismatch is returned when features and labels differ in length.
	ErrLengthMismatch = errors.New("knn: features and labels length mismatch")
	// ErrEmptyTrainingSet is returned when Fit receives no samples.
	ErrEmptyTrainingSet = errors.New("knn: empty training set")
	// ErrNoNeighbors is returned when the index yields no neighbor for a query.
	ErrNoNeighbors = errors.New("knn: index returned no neighbors")
)

// ValidationError describes the model invariant Load found violated.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrInvalidModel, e.Field, e.Reason)
}

// Unwrap returns ErrInvalidModel.
func (e *ValidationError) Unwrap() error { return ErrInvalidModel }
