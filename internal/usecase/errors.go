package usecase

import (
	"errors"
	"fmt"
)

// ErrPrecondition matches every error returned when a step is invoked before
// the step it depends on has produced its output.
var ErrPrecondition = errors.New("precondition failed")

type PreconditionError struct {
	msg string
}

func (e *PreconditionError) Error() string { return e.msg }

func (e *PreconditionError) Is(target error) bool { return target == ErrPrecondition }

var (
	ErrNoVideo          error = &PreconditionError{msg: "no video uploaded"}
	ErrNoAudio          error = &PreconditionError{msg: "no audio extracted"}
	ErrNoTranscription  error = &PreconditionError{msg: "no transcription available"}
	ErrNoTranscriptText error = &PreconditionError{msg: "transcript is empty"}
	ErrNoSubtitles      error = &PreconditionError{msg: "no subtitles generated"}
	ErrNoTranslation    error = &PreconditionError{msg: "no translation available"}
	ErrNoSummary        error = &PreconditionError{msg: "no summary available"}
)

var (
	ErrUnsupportedMedia  = errors.New("unsupported media type")
	ErrUploadTooLarge    = errors.New("upload exceeds size limit")
	ErrMissingCredential = errors.New("API key is not set")
)

// StepError reports a failure of an external tool or API. The session is left
// as it was before the step, so the step can be retried.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("%s: %v", e.Step, e.Err) }

func (e *StepError) Unwrap() error { return e.Err }

const (
	StepExtract    = "extract"
	StepTranscribe = "transcribe"
	StepSummary    = "summary"
	StepTranslate  = "translate"
)
