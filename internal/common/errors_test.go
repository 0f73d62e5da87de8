package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestQuotaExceededError_Message(t *testing.T) {
	e := &QuotaExceededError{Usage: 90, Ceiling: 100, Requested: 60}
	want := "quota exceeded: usage 90 + requested 60 > ceiling 100"
	if e.Error() != want {
		t.Fatalf("got %q, want %q", e.Error(), want)
	}
}

func TestQuotaExceededError_Remaining(t *testing.T) {
	tests := []struct {
		usage, ceiling, want int64
	}{
		{90, 100, 10},
		{100, 100, 0},
		{150, 100, 0},
	}
	for _, tt := range tests {
		e := &QuotaExceededError{Usage: tt.usage, Ceiling: tt.ceiling}
		if got := e.Remaining(); got != tt.want {
			t.Errorf("Remaining() with usage=%d ceiling=%d: got %d, want %d",
				tt.usage, tt.ceiling, got, tt.want)
		}
	}
}

func TestQuotaExceededError_AsTarget(t *testing.T) {
	var qe *QuotaExceededError
	err := fmt.Errorf("upload failed: %w", &QuotaExceededError{Usage: 1, Ceiling: 2, Requested: 3})
	if !errors.As(err, &qe) {
		t.Fatalf("errors.As failed to unwrap QuotaExceededError")
	}
	if qe.Requested != 3 {
		t.Fatalf("wrong unwrapped value: %+v", qe)
	}
}
