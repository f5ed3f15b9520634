package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/hotel-reservation-prediction/internal/platform/pipeerr"
)

type stubHandler struct {
	name string
	err  error
	runs *[]string
}

func (s stubHandler) Type() string { return s.name }

func (s stubHandler) Run(jc *Context) error {
	*s.runs = append(*s.runs, s.name)
	jc.Progress("work", 50, "working")
	if s.err != nil {
		return jc.Fail("work", "stub failed", s.err)
	}
	jc.Succeed("done", s.name)
	return nil
}

func TestRunSequenceStopsAtFirstFailure(t *testing.T) {
	var runs []string
	r := NewRegistry()
	boom := errors.New("boom")
	for _, h := range []stubHandler{
		{name: "a", runs: &runs},
		{name: "b", err: boom, runs: &runs},
		{name: "c", runs: &runs},
	} {
		if err := r.Register(h); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	ran, err := r.RunSequence(context.Background(), nil, "a", "b", "c")
	if !errors.Is(err, boom) {
		t.Fatalf("err: want=%v got=%v", boom, err)
	}
	if step, ok := pipeerr.StepOf(err); !ok || step != "work" {
		t.Fatalf("step: want=work got=%q", step)
	}
	if len(runs) != 2 || len(ran) != 2 {
		t.Fatalf("runs: want [a b] got=%v", runs)
	}
	if ran[0].Status != StatusSucceeded || ran[0].Result != "a" || ran[1].Status != StatusFailed {
		t.Fatalf("statuses: got=%s %s", ran[0].Status, ran[1].Status)
	}
}

func TestRunSequenceUnknownStage(t *testing.T) {
	r := NewRegistry()
	if _, err := r.RunSequence(context.Background(), nil, "missing"); err == nil {
		t.Fatalf("expected error for unknown stage")
	}
	var runs []string
	_ = r.Register(stubHandler{name: "a", runs: &runs})
	if err := r.Register(stubHandler{name: "a", runs: &runs}); err == nil {
		t.Fatalf("duplicate registration: expected error")
	}
}

func TestFailKeepsInnerPipelineError(t *testing.T) {
	jc := NewContext(context.Background(), nil, "outer")
	inner := pipeerr.New("inner", pipeerr.StepSplit, "split failed", errors.New("x"))
	err := jc.Fail(pipeerr.StepSave, "ignored", inner)
	pe, ok := pipeerr.As(err)
	if !ok || pe.Stage != "inner" || jc.Step != pipeerr.StepSplit {
		t.Fatalf("Fail: got=%v step=%s", err, jc.Step)
	}
}

func TestProgressTracksPercent(t *testing.T) {
	jc := NewContext(context.Background(), nil, "stage")
	jc.Progress(pipeerr.StepLoad, 40, "loading")
	if jc.Percent != 40 || jc.Step != pipeerr.StepLoad || jc.Message != "loading" {
		t.Fatalf("progress: got percent=%d step=%s msg=%q", jc.Percent, jc.Step, jc.Message)
	}
	jc.Succeed(pipeerr.StepSave, nil)
	if jc.Percent != 100 || jc.Status != StatusSucceeded {
		t.Fatalf("succeed: want percent=100 got=%d status=%s", jc.Percent, jc.Status)
	}
}
