package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"

	"mathviz/internal/animation"
)

// Stage names a step of the pipeline.
type Stage string

const (
	StageParse    Stage = "parse"
	StageGenerate Stage = "generate"
	StageValidate Stage = "validate"
)

// StageError wraps the error a stage failed with.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err == nil {
		return string(e.Stage)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// FailedStage returns the stage err came from, if any.
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

// Result is the outcome of one pipeline run. A failed result carries only Error.
type Result struct {
	Success    bool
	SourceText string
	// Report is nil when validation was not requested or the run failed.
	Report   *animation.ValidationReport
	Snapshot *animation.Snapshot
	Error    string
}

type resultJSON struct {
	Success          bool                `json:"success"`
	SourceText       *string             `json:"source_text"`
	ValidationReport any                 `json:"validation_report"`
	RequestSnapshot  *animation.Snapshot `json:"request_snapshot"`
	Error            *string             `json:"error"`
}

// MarshalJSON writes absent fields as null and an absent report as {}.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		Success:          r.Success,
		ValidationReport: struct{}{},
		RequestSnapshot:  r.Snapshot,
	}
	if r.Success {
		src := r.SourceText
		out.SourceText = &src
	}
	if r.Report != nil {
		out.ValidationReport = r.Report
	}
	if r.Error != "" {
		msg := r.Error
		out.Error = &msg
	}
	return json.Marshal(out)
}

func failure(err error) Result {
	return Result{Error: err.Error()}
}
