package parallel

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
)

func TestWorkers(t *testing.T) {
	if got := Workers(-1); got != runtime.NumCPU() {
		t.Fatalf("Workers(-1): want=%d got=%d", runtime.NumCPU(), got)
	}
	if got := Workers(3); got != 3 {
		t.Fatalf("Workers(3): want=3 got=%d", got)
	}
}

func TestForVisitsEveryIndex(t *testing.T) {
	var sum int64
	err := For(context.Background(), 100, 4, func(_ context.Context, i int) error {
		atomic.AddInt64(&sum, int64(i))
		return nil
	})
	if err != nil {
		t.Fatalf("For: %v", err)
	}
	if sum != 4950 {
		t.Fatalf("sum: want=4950 got=%d", sum)
	}
}

func TestForReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	err := For(context.Background(), 10, 2, func(_ context.Context, i int) error {
		if i == 3 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err: want=boom got=%v", err)
	}
}
