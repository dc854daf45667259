package site

import (
	"context"
	"fmt"
	"time"

	"github.com/SearchPilot/ginger/internal/logfields"
	"github.com/SearchPilot/ginger/internal/metrics"
)

// StageName is a strongly-typed identifier for a build stage.
type StageName string

const (
	StageClearOutput     StageName = "clear_output"
	StageBuildAssets     StageName = "build_assets"
	StageLoadContent     StageName = "load_content"
	StageRender          StageName = "render"
	StageCopyPassthrough StageName = "copy_passthrough"
)

// StageErrorKind classifies how a stage ended.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError records which stage failed and why.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

type stageFn func(ctx context.Context, bs *buildState) error

// stageDef pairs a stage name with its executing function.
type stageDef struct {
	name StageName
	fn   stageFn
}

// runStages executes stages in order, recording timing and stopping on the
// first error. Cancellation is observed between stages only.
func runStages(ctx context.Context, bs *buildState, defs []stageDef, rec metrics.Recorder) error {
	for _, st := range defs {
		select {
		case <-ctx.Done():
			return newCanceledStageError(st.name, ctx.Err())
		default:
		}

		t0 := time.Now()
		err := st.fn(ctx, bs)
		dur := time.Since(t0)

		bs.result.StageDurations[st.name] = dur
		rec.ObserveStageDuration(string(st.name), dur)
		bs.log.Debug("Stage finished", logfields.Stage(string(st.name)), logfields.DurationMS(millis(dur)))

		if err != nil {
			bs.log.Debug("Stage failed", logfields.Stage(string(st.name)), logfields.Error(err))
			return newFatalStageError(st.name, err)
		}
	}
	return nil
}

func millis(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
