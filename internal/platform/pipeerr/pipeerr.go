// Package pipeerr defines the single failure kind every pipeline stage returns.
//
// Stage and Step identify where the failure happened so callers can tell a
// download failure from a split failure without separate error types.
package pipeerr

import (
	"errors"
	"strings"
)

// Steps shared by the stages.
const (
	StepConfig   = "config"
	StepDownload = "download"
	StepSplit    = "split"
	StepLoad     = "load"
	StepDrop     = "drop"
	StepDedupe   = "dedupe"
	StepEncode   = "encode"
	StepSkew     = "skew"
	StepBalance  = "balance"
	StepSelect   = "select"
	StepSave     = "save"
	StepTrain    = "train"
	StepEvaluate = "evaluate"
	StepTrack    = "track"
)

type Error struct {
	Stage string
	Step  string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Stage != "" {
		b.WriteString(e.Stage)
		if e.Step != "" {
			b.WriteString("/")
			b.WriteString(e.Step)
		}
		b.WriteString(": ")
	}
	msg := e.Msg
	if msg == "" {
		msg = "pipeline failure"
	}
	b.WriteString(msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func New(stage, step, msg string, err error) *Error {
	return &Error{Stage: stage, Step: step, Msg: msg, Err: err}
}

// As reports whether err carries a pipeline failure and returns the outermost one.
func As(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// StepOf returns the failing step recorded on err, if any.
func StepOf(err error) (string, bool) {
	pe, ok := As(err)
	if !ok {
		return "", false
	}
	return pe.Step, true
}
