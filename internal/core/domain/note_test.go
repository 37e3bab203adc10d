package domain

import (
	"errors"
	"testing"
)

func TestWireID(t *testing.T) {
	tests := []struct {
		chatID    int64
		messageID string
		expect    string
	}{
		{42, "100", "42_100"},
		{-100123, "7", "-100123_7"},
		{0, "100", "100"},
	}

	for _, tt := range tests {
		if got := WireID(tt.chatID, tt.messageID); got != tt.expect {
			t.Errorf("WireID(%d, %s) = %s, want %s", tt.chatID, tt.messageID, got, tt.expect)
		}
	}
}

func TestStatusError_ClientRejected(t *testing.T) {
	if !(&StatusError{Code: 404}).ClientRejected() {
		t.Error("404 should be a client rejection")
	}
	if (&StatusError{Code: 503}).ClientRejected() {
		t.Error("503 should not be a client rejection")
	}
}

func TestRetriesExhaustedError_Unwrap(t *testing.T) {
	cause := &StatusError{Code: 502}
	err := &RetriesExhaustedError{Attempts: 3, Last: cause}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != 502 {
		t.Errorf("expected unwrap to reach the 502 cause, got %v", err)
	}
}
