package distkmeans

import (
	"errors"
	"fmt"

	"github.com/hupe1980/distkmeans/collective"
	"github.com/hupe1980/distkmeans/dataset"
	"github.com/hupe1980/distkmeans/internal/kmeans"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = kmeans.ErrInvalidK

	// ErrInvalidRounds is returned when the round budget is below one.
	// At least one round runs so every Result carries computed assignments.
	ErrInvalidRounds = kmeans.ErrInvalidRounds

	// ErrNonFinite is returned when the coordinator's dataset holds a NaN or
	// infinite coordinate.
	ErrNonFinite = kmeans.ErrNonFinite

	// ErrInvalidWorld is returned for a nil Comm or a coordinator outside the group.
	ErrInvalidWorld = errors.New("invalid world: nil comm or coordinator out of range")

	// ErrInsufficientData is returned on every worker when the dataset has fewer points than clusters.
	ErrInsufficientData = kmeans.ErrInsufficientData

	// ErrFileOpen is returned when the input cannot be opened or read.
	ErrFileOpen = dataset.ErrFileOpen

	// ErrParse is returned when an input row is malformed.
	ErrParse = dataset.ErrParse

	// ErrAborted is returned when another worker aborted the group.
	ErrAborted = collective.ErrAborted

	// ErrAlreadyRun is returned when Run is called on a worker that already ran.
	ErrAlreadyRun = errors.New("worker already ran")
)

// InsufficientDataError reports a dataset too small for the requested k.
type InsufficientDataError = kmeans.InsufficientDataError

// ConfigMismatchError indicates a worker configured differently from the coordinator.
type ConfigMismatchError struct {
	Field       string
	Local       int64
	Coordinator int64
}

func (e *ConfigMismatchError) Error() string {
	return fmt.Sprintf("config mismatch: %s is %d locally, %d on the coordinator", e.Field, e.Local, e.Coordinator)
}

// SourceError wraps a failure of the coordinator's Source.
//
// The original underlying error can be accessed via errors.Unwrap.
type SourceError struct {
	cause error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("load dataset: %v", e.cause)
}

func (e *SourceError) Unwrap() error { return e.cause }
