package pipeerr

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestErrorMessageAndUnwrap(t *testing.T) {
	cause := fs.ErrNotExist
	err := New("data_ingestion", StepDownload, "failed to download CSV file", cause)

	want := "data_ingestion/download: failed to download CSV file: file does not exist"
	if got := err.Error(); got != want {
		t.Fatalf("Error(): want=%q got=%q", want, got)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("errors.Is: want cause to be reachable")
	}
}

func TestStepOfThroughWrapping(t *testing.T) {
	inner := New("data_processing", StepBalance, "SMOTE failed", errors.New("too few samples"))
	wrapped := fmt.Errorf("run preprocessing: %w", inner)

	step, ok := StepOf(wrapped)
	if !ok || step != StepBalance {
		t.Fatalf("StepOf: want=(%q,true) got=(%q,%v)", StepBalance, step, ok)
	}
	if _, ok := StepOf(errors.New("plain")); ok {
		t.Fatalf("StepOf(plain): want ok=false")
	}
}

func TestNilErrorString(t *testing.T) {
	var e *Error
	if e.Error() != "" {
		t.Fatalf("nil Error(): want empty")
	}
	if got := (&Error{}).Error(); got != "pipeline failure" {
		t.Fatalf("empty Error(): want=%q got=%q", "pipeline failure", got)
	}
}
