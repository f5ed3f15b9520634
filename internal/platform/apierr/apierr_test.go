package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestFrom(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", BadRequest(errors.New("lead_time missing")))
	if got := From(wrapped); got.Status != http.StatusBadRequest || got.Code != CodeInvalidInput {
		t.Fatalf("From(wrapped): got=%+v", got)
	}
	if got := From(errors.New("boom")); got.Status != http.StatusInternalServerError || got.Code != CodeInternal {
		t.Fatalf("From(plain): got=%+v", got)
	}
}
