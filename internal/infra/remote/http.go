package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"notesync/internal/core/domain"
)

// HTTPStore implements Store against the notes HTTP API.
type HTTPStore struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPStore creates a new HTTP-backed note store.
func NewHTTPStore(baseURL, token string, timeout time.Duration) *HTTPStore {
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type saveRequest struct {
	MessageID string `json:"message_id"`
	Text      string `json:"text"`
}

type saveResponse struct {
	Status string `json:"status"`
	NoteID string `json:"note_id"`
}

// SaveNote POSTs the record to /notes. The API upserts by message_id:
// an existing id yields status "updated", a new one "created".
func (s *HTTPStore) SaveNote(
	ctx context.Context,
	rec domain.Record,
) (*domain.SaveResult, error) {
	payload := saveRequest{
		MessageID: rec.ExternalID,
		Text:      rec.Content,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/notes",
		bytes.NewReader(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("save note: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Error bodies carry no contract; the status code is the signal.
		io.Copy(io.Discard, resp.Body)
		return nil, &domain.StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var sr saveResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, &domain.MalformedResponseError{Reason: "invalid JSON body"}
	}
	if sr.Status == "" || sr.NoteID == "" {
		return nil, &domain.MalformedResponseError{
			Reason: "missing status or note_id",
		}
	}
	if sr.Status != string(domain.OutcomeCreated) &&
		sr.Status != string(domain.OutcomeUpdated) {
		return nil, &domain.MalformedResponseError{
			Reason: fmt.Sprintf("unexpected status %q", sr.Status),
		}
	}

	return &domain.SaveResult{
		Outcome:    domain.SaveOutcome(sr.Status),
		RemoteID:   sr.NoteID,
		ExternalID: rec.ExternalID,
	}, nil
}

type historyEntry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// FetchRecent GETs /history?limit=N, newest first.
func (s *HTTPStore) FetchRecent(
	ctx context.Context,
	limit int,
) ([]domain.RemoteEntry, error) {
	url := s.baseURL + "/history?limit=" + strconv.Itoa(limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &domain.StatusError{Code: resp.StatusCode}
	}

	var raw []historyEntry
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &domain.MalformedResponseError{Reason: "invalid history body"}
	}

	entries := make([]domain.RemoteEntry, 0, len(raw))
	for _, e := range raw {
		entries = append(entries, domain.RemoteEntry{
			RemoteID:  e.ID,
			Content:   e.Text,
			Timestamp: e.Timestamp,
		})
	}
	return entries, nil
}
