package syncing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"notesync/internal/core/domain"
)

// fakeStore scripts SaveNote/FetchRecent outcomes per attempt.
type fakeStore struct {
	mu       sync.Mutex
	saveErrs []error // error per call, nil = success; calls past the end succeed
	calls    int
	fetchErr error
}

func (f *fakeStore) SaveNote(
	ctx context.Context,
	rec domain.Record,
) (*domain.SaveResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.calls <= len(f.saveErrs) {
		if err := f.saveErrs[f.calls-1]; err != nil {
			return nil, err
		}
	}

	outcome := domain.OutcomeCreated
	if f.calls > 1 {
		outcome = domain.OutcomeUpdated
	}
	return &domain.SaveResult{
		Outcome:    outcome,
		RemoteID:   "note-1",
		ExternalID: rec.ExternalID,
	}, nil
}

func (f *fakeStore) FetchRecent(
	ctx context.Context,
	limit int,
) ([]domain.RemoteEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return []domain.RemoteEntry{}, nil
}

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeStore) setFetchErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchErr = err
}

func (f *fakeStore) setSaveErrs(errs []error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveErrs = errs
	f.calls = 0
}

func testRetryConfig(maxAttempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    100 * time.Millisecond,
	}
}

func TestSaver_SucceedsAfterTransientErrors(t *testing.T) {
	store := &fakeStore{saveErrs: []error{
		&domain.StatusError{Code: 503},
		&domain.StatusError{Code: 503},
		nil,
	}}
	saver := NewSaver(store, testRetryConfig(3), time.Second)

	result, err := saver.Save(context.Background(), domain.Record{ExternalID: "1_1"})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if store.callCount() != 3 {
		t.Errorf("expected 3 attempts, got %d", store.callCount())
	}
	if result.ExternalID != "1_1" {
		t.Errorf("expected external id echoed back, got %s", result.ExternalID)
	}
}

func TestSaver_FatalStopsImmediately(t *testing.T) {
	store := &fakeStore{saveErrs: []error{
		&domain.StatusError{Code: 404},
	}}
	saver := NewSaver(store, testRetryConfig(5), time.Second)

	_, err := saver.Save(context.Background(), domain.Record{ExternalID: "1_1"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if store.callCount() != 1 {
		t.Errorf("expected 1 attempt, got %d", store.callCount())
	}

	var statusErr *domain.StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != 404 {
		t.Errorf("expected 404 StatusError surfaced unmodified, got %v", err)
	}
}

func TestSaver_MalformedResponseNotRetried(t *testing.T) {
	store := &fakeStore{saveErrs: []error{
		&domain.MalformedResponseError{Reason: "missing note_id"},
	}}
	saver := NewSaver(store, testRetryConfig(5), time.Second)

	_, err := saver.Save(context.Background(), domain.Record{ExternalID: "1_1"})
	var malformed *domain.MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedResponseError, got %v", err)
	}
	if store.callCount() != 1 {
		t.Errorf("expected 1 attempt, got %d", store.callCount())
	}
}

func TestSaver_RetriesExhausted(t *testing.T) {
	store := &fakeStore{saveErrs: []error{
		&domain.StatusError{Code: 500},
		&domain.StatusError{Code: 502},
		&domain.StatusError{Code: 503},
	}}
	saver := NewSaver(store, testRetryConfig(3), time.Second)

	_, err := saver.Save(context.Background(), domain.Record{ExternalID: "1_1"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if store.callCount() != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", store.callCount())
	}

	var exhausted *domain.RetriesExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected RetriesExhaustedError, got %T: %v", err, err)
	}
	if exhausted.Attempts != 3 {
		t.Errorf("expected 3 recorded attempts, got %d", exhausted.Attempts)
	}

	// The last underlying cause must stay distinguishable.
	var statusErr *domain.StatusError
	if !errors.As(exhausted.Last, &statusErr) || statusErr.Code != 503 {
		t.Errorf("expected last cause 503, got %v", exhausted.Last)
	}
}

func TestSaver_ContextCancelDuringBackoff(t *testing.T) {
	store := &fakeStore{saveErrs: []error{
		&domain.StatusError{Code: 503},
		&domain.StatusError{Code: 503},
	}}
	saver := NewSaver(store, RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Hour, // never elapses
		MaxDelay:    time.Hour,
	}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := saver.Save(ctx, domain.Record{ExternalID: "1_1"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if store.callCount() != 1 {
		t.Errorf("expected 1 attempt before cancellation, got %d", store.callCount())
	}
}

func TestSaver_IdempotentResubmit(t *testing.T) {
	store := &fakeStore{}
	saver := NewSaver(store, testRetryConfig(3), time.Second)

	first, err := saver.Save(context.Background(), domain.Record{ExternalID: "9_5", Content: "a"})
	if err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	second, err := saver.Save(context.Background(), domain.Record{ExternalID: "9_5", Content: "a (edited)"})
	if err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	if first.Outcome != domain.OutcomeCreated {
		t.Errorf("expected first outcome created, got %s", first.Outcome)
	}
	if second.Outcome != domain.OutcomeUpdated {
		t.Errorf("expected second outcome updated, got %s", second.Outcome)
	}
	if first.RemoteID != second.RemoteID {
		t.Errorf("expected same remote id, got %s and %s", first.RemoteID, second.RemoteID)
	}
}
