package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pressly/goose/v3"

	"notesync/internal/core/config"
	"notesync/internal/core/domain"
	redisclient "notesync/internal/infra/redis"
	"notesync/internal/infra/remote"
	"notesync/internal/infra/storage"
	"notesync/internal/infra/storage/memory"
	"notesync/internal/infra/storage/postgres"
	"notesync/internal/syncing"
	"notesync/internal/syncing/health"
)

// Config holds the application configuration.
type Config struct {
	Port     int
	Remote   config.RemoteConfig
	Monitor  config.MonitorConfig
	Redis    redisclient.Config
	Database postgres.Config
}

// Service owns the sync pipeline: remote store, saver, offline buffer,
// availability monitor, local mirror, and the health server. The bot
// layer talks to it through Submit/History/SyncNow/Flush.
type Service struct {
	cfg          Config
	store        remote.Store
	saver        *syncing.Saver
	buffer       *syncing.Buffer
	monitor      *syncing.Monitor
	notes        storage.NoteRepository
	healthServer *health.Server
	redisClient  *redisclient.Client
	db           *postgres.DB
	log          *slog.Logger
}

// NewService creates a new Service with all dependencies initialized.
func NewService(cfg Config) (*Service, error) {
	s := &Service{
		cfg: cfg,
		log: slog.Default().With("component", "service"),
	}

	s.store = remote.NewHTTPStore(cfg.Remote.BaseURL, cfg.Remote.Token, cfg.Remote.Timeout)

	// 1. Local mirror of saved notes
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}
		s.db = db
		s.notes = postgres.NewNoteRepo(db)
		slog.Info("Using PostgreSQL note mirror")
	} else {
		s.notes = memory.NewNoteRepo(memory.NewMemoryStorage())
		slog.Info("Using in-memory note mirror")
	}

	// 2. Durable pending-note mirror
	var pendingStore syncing.PendingStore
	if cfg.Redis.URL != "" {
		rc, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		s.redisClient = rc
		pendingStore = redisclient.NewPendingNoteRepo(rc, "default")
		slog.Info("Pending notes mirrored to Redis")
	}

	// 3. Sync pipeline
	s.buffer = syncing.NewBuffer(pendingStore)
	s.saver = syncing.NewSaver(s.store, syncing.RetryConfig{
		MaxAttempts: cfg.Remote.MaxRetries,
		BaseDelay:   cfg.Remote.BaseDelay,
		MaxDelay:    cfg.Remote.MaxDelay,
	}, cfg.Remote.Timeout)
	s.monitor = syncing.NewMonitor(s.store, s.buffer, s.saver, syncing.MonitorConfig{
		Interval: cfg.Monitor.Interval,
		Warmup:   cfg.Monitor.Warmup,
	})

	if cfg.Port > 0 {
		s.healthServer = health.NewServer(s, cfg.Port)
	}

	return s, nil
}

// OnAvailabilityChange registers a callback fired once per remote
// availability flap, for the bot layer to notify users. Must be called
// before Start.
func (s *Service) OnAvailabilityChange(fn func(available bool)) {
	s.monitor.OnFlap(fn)
}

// Start restores buffered notes and launches the monitor and health
// server.
func (s *Service) Start(ctx context.Context) error {
	if err := s.buffer.Restore(ctx); err != nil {
		return fmt.Errorf("failed to restore pending notes: %w", err)
	}

	s.monitor.Start(ctx)

	if s.healthServer != nil {
		go func() {
			if err := s.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Error("health server failed", "error", err)
			}
		}()
	}

	s.log.Info("service started",
		"remote", s.cfg.Remote.BaseURL,
		"probe_interval", s.cfg.Monitor.Interval,
	)
	return nil
}

// Stop shuts down the monitor, health server, and connections.
func (s *Service) Stop(ctx context.Context) error {
	s.monitor.Stop()

	if s.healthServer != nil {
		if err := s.healthServer.Stop(ctx); err != nil {
			return err
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.log.Warn("failed to close redis", "error", err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.log.Warn("failed to close db", "error", err)
		}
	}
	return nil
}

// AckStatus reports how a submitted note was handled.
type AckStatus string

const (
	AckSaved    AckStatus = "saved"
	AckBuffered AckStatus = "buffered"
)

// Ack is the caller-facing result of Submit.
type Ack struct {
	Status AckStatus
	Result *domain.SaveResult // set when Status is AckSaved
}

// Submit saves a user message, buffering it when the remote is down.
// Resubmitting the same chat/message pair is an update, not a
// duplicate. Fatal rejections (4xx, contract violations) surface as
// errors; transient failures degrade to a buffered ack.
func (s *Service) Submit(
	ctx context.Context,
	chatID int64,
	messageID string,
	text string,
) (*Ack, error) {
	now := time.Now()
	rec := domain.Record{
		ExternalID: domain.WireID(chatID, messageID),
		Content:    text,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// Known-down remote: skip the doomed attempt and buffer directly.
	if s.monitor.State() == domain.AvailabilityUnavailable {
		s.buffer.Enqueue(ctx, rec)
		return &Ack{Status: AckBuffered}, nil
	}

	result, err := s.saver.Save(ctx, rec)
	if err != nil {
		var exhausted *domain.RetriesExhaustedError
		if errors.As(err, &exhausted) {
			s.buffer.Enqueue(ctx, rec)
			s.log.Warn("save failed, note buffered",
				"external_id", rec.ExternalID,
				"error", err,
			)
			return &Ack{Status: AckBuffered}, nil
		}
		return nil, err
	}

	s.mirror(ctx, rec, result)
	return &Ack{Status: AckSaved, Result: result}, nil
}

// History returns the combined view of buffered and remote notes,
// newest first. Falls back to the local mirror when the remote is
// unreachable and no snapshot is cached.
func (s *Service) History(ctx context.Context, limit int) []domain.RemoteEntry {
	if s.monitor.State() != domain.AvailabilityUnavailable {
		entries, err := s.store.FetchRecent(ctx, limit)
		if err == nil {
			s.buffer.UpdateLastKnown(entries)
		} else {
			s.log.Debug("history fetch failed, serving cached view", "error", err)
		}
	}

	combined := s.buffer.CombinedHistory(limit)
	if len(combined) > 0 {
		return combined
	}

	saved, err := s.notes.GetRecent(ctx, limit)
	if err != nil {
		s.log.Warn("mirror fallback failed", "error", err)
		return nil
	}
	entries := make([]domain.RemoteEntry, 0, len(saved))
	for _, n := range saved {
		entries = append(entries, domain.RemoteEntry{
			RemoteID:  n.RemoteID,
			Content:   n.Content,
			Timestamp: n.UpdatedAt,
		})
	}
	return entries
}

// SyncNow drains the offline buffer once, on demand.
func (s *Service) SyncNow(ctx context.Context) (synced, failed int) {
	return s.buffer.Drain(ctx, s.persist)
}

// Flush discards all buffered notes and returns how many were dropped.
func (s *Service) Flush(ctx context.Context) int {
	return s.buffer.Flush(ctx)
}

func (s *Service) persist(ctx context.Context, rec domain.Record) error {
	result, err := s.saver.Save(ctx, rec)
	if err != nil {
		return err
	}
	s.mirror(ctx, rec, result)
	return nil
}

func (s *Service) mirror(ctx context.Context, rec domain.Record, result *domain.SaveResult) {
	err := s.notes.Upsert(ctx, &domain.SavedNote{
		ExternalID: result.ExternalID,
		RemoteID:   result.RemoteID,
		Outcome:    result.Outcome,
		Content:    rec.Content,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	})
	if err != nil {
		s.log.Warn("failed to mirror saved note", "external_id", result.ExternalID, "error", err)
	}
}

// Stats is a point-in-time snapshot of the sync state.
type Stats struct {
	Availability domain.AvailabilityState `json:"availability"`
	LastProbe    time.Time                `json:"last_probe"`
	Pending      int                      `json:"pending"`
	Mirrored     int                      `json:"mirrored"`
}

// Stats reports buffer depth, availability, and mirror size.
func (s *Service) Stats(ctx context.Context) Stats {
	mirrored, err := s.notes.Count(ctx)
	if err != nil {
		s.log.Debug("mirror count failed", "error", err)
	}
	return Stats{
		Availability: s.monitor.State(),
		LastProbe:    s.monitor.LastProbe(),
		Pending:      s.buffer.Len(),
		Mirrored:     mirrored,
	}
}

// Reporter interface for the health server.

func (s *Service) AvailabilityState() domain.AvailabilityState { return s.monitor.State() }
func (s *Service) LastProbe() time.Time                        { return s.monitor.LastProbe() }
func (s *Service) PendingCount() int                           { return s.buffer.Len() }
