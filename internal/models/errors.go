package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies conversion failures for analytics and API mapping.
type ErrorKind string

const (
	ErrKindNone                  ErrorKind = ""
	ErrKindUnsupportedConversion ErrorKind = "unsupported_conversion"
	ErrKindEngineExecution       ErrorKind = "engine_execution"
	ErrKindAllEnginesFailed      ErrorKind = "all_engines_failed"
	ErrKindExtractionFailure     ErrorKind = "extraction_failure"
	ErrKindTranslationFailed     ErrorKind = "translation_unavailable"
	ErrKindValidation            ErrorKind = "validation_error"
)

// ErrUnsupportedConversion is returned when no engine chain exists for a
// format pair. No subprocess is spawned in this case.
var ErrUnsupportedConversion = errors.New("no engine can perform this conversion")

// ErrTranslationUnavailable marks a translation failure. The OCR pipeline
// treats it as non-fatal and continues with the untranslated text.
var ErrTranslationUnavailable = errors.New("translation unavailable")

// EngineExecutionError reports a single engine's failure: non-zero exit,
// timeout, or a missing output artifact. It may trigger fallback.
type EngineExecutionError struct {
	Engine   EngineID
	ExitCode int
	Stderr   string
	Cause    error
}

func (e *EngineExecutionError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("engine %s failed (exit %d): %s", e.Engine, e.ExitCode, e.Stderr)
	}
	if e.Cause != nil {
		return fmt.Sprintf("engine %s failed: %v", e.Engine, e.Cause)
	}
	return fmt.Sprintf("engine %s failed (exit %d)", e.Engine, e.ExitCode)
}

func (e *EngineExecutionError) Unwrap() error { return e.Cause }

// AllEnginesFailedError is terminal: every candidate engine in the chain
// failed. Last carries the final engine's diagnostic.
type AllEnginesFailedError struct {
	Attempted []EngineID
	Last      error
}

func (e *AllEnginesFailedError) Error() string {
	return fmt.Sprintf("all %d engines failed, last error: %v", len(e.Attempted), e.Last)
}

func (e *AllEnginesFailedError) Unwrap() error { return e.Last }

// PipelineStage names one step of the OCR-and-convert pipeline. A job moves
// through stages in order; translation is skipped unless requested.
type PipelineStage string

const (
	StageReceived   PipelineStage = "received"
	StageRendered   PipelineStage = "rendered"
	StageExtracted  PipelineStage = "extracted"
	StageTranslated PipelineStage = "translated"
	StageClassified PipelineStage = "classified"
	StageConverted  PipelineStage = "converted"
	StageDone       PipelineStage = "done"
)

// PipelineError reports which OCR pipeline stage failed. Stages before the
// final conversion are fatal to the job.
type PipelineError struct {
	Stage PipelineStage
	Cause error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline stage %s failed: %v", e.Stage, e.Cause)
}

func (e *PipelineError) Unwrap() error { return e.Cause }

// KindOf maps an error to its ErrorKind classification.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrKindNone
	case errors.Is(err, ErrUnsupportedConversion):
		return ErrKindUnsupportedConversion
	case errors.Is(err, ErrTranslationUnavailable):
		return ErrKindTranslationFailed
	}
	var engErr *EngineExecutionError
	if errors.As(err, &engErr) {
		return ErrKindEngineExecution
	}
	var allErr *AllEnginesFailedError
	if errors.As(err, &allErr) {
		return ErrKindAllEnginesFailed
	}
	var pipeErr *PipelineError
	if errors.As(err, &pipeErr) {
		return ErrKindExtractionFailure
	}
	return ErrKindEngineExecution
}
