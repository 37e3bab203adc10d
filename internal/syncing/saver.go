package syncing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"notesync/internal/core/domain"
	"notesync/internal/infra/remote"
	"notesync/internal/syncing/metrics"
)

// Saver performs idempotent saves against the remote store with a
// bounded retry loop. Attempts for one record are strictly sequential;
// concurrent Save calls for the same external id are not serialized,
// the remote's upsert-by-identifier is the only consistency guarantee.
type Saver struct {
	store          remote.Store
	cfg            RetryConfig
	attemptTimeout time.Duration
	log            *slog.Logger
}

// NewSaver creates a new Saver.
func NewSaver(store remote.Store, cfg RetryConfig, attemptTimeout time.Duration) *Saver {
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultRetryConfig
	}
	if attemptTimeout <= 0 {
		attemptTimeout = 30 * time.Second
	}
	return &Saver{
		store:          store,
		cfg:            cfg,
		attemptTimeout: attemptTimeout,
		log:            slog.Default().With("component", "saver"),
	}
}

// Save persists one record. Transient failures are retried with
// exponential backoff; fatal failures surface immediately. When the
// retry budget runs out the last cause is wrapped in
// RetriesExhaustedError.
func (s *Saver) Save(ctx context.Context, rec domain.Record) (*domain.SaveResult, error) {
	var lastErr error

	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
		start := time.Now()
		result, err := s.store.SaveNote(attemptCtx, rec)
		cancel()
		metrics.SaveLatency.Observe(time.Since(start).Seconds())

		if err == nil {
			metrics.SaveAttemptsTotal.WithLabelValues("success").Inc()
			return result, nil
		}

		metrics.SaveAttemptsTotal.WithLabelValues("failure").Inc()
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if ClassifyError(err) == ActionFatal {
			metrics.SaveErrorsTotal.WithLabelValues(errorClass(err)).Inc()
			return nil, err
		}

		if attempt == s.cfg.MaxAttempts-1 {
			break
		}

		delay := Backoff(attempt, s.cfg)
		s.log.Warn("save attempt failed, retrying",
			"external_id", rec.ExternalID,
			"attempt", attempt+1,
			"wait", delay,
			"error", err,
		)
		metrics.SaveRetriesTotal.Inc()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	metrics.SaveErrorsTotal.WithLabelValues("retries_exhausted").Inc()
	return nil, &domain.RetriesExhaustedError{
		Attempts: s.cfg.MaxAttempts,
		Last:     lastErr,
	}
}

func errorClass(err error) string {
	var statusErr *domain.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.ClientRejected() {
			return "client_rejected"
		}
		return "server_unavailable"
	}

	var malformed *domain.MalformedResponseError
	if errors.As(err, &malformed) {
		return "malformed_response"
	}

	return "unexpected"
}
