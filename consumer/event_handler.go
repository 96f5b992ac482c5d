package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"forms-search-indexer/usecase"
)

const (
	batchFlushSize     = 10
	batchFlushInterval = 2 * time.Second
)

// ResponseEventPayload is the payload shared by the response lifecycle
// events. Unpublish events carry the same shape; the sync path reads
// the current published flag from the database, not from the event.
type ResponseEventPayload struct {
	ResponseID int `json:"response_id"`
	FormID     int `json:"form_id"`
}

// ResponseEventHandler processes response lifecycle events from the
// stream. It buffers response IDs and flushes them in batches to
// reduce per-event search engine round-trips.
type ResponseEventHandler struct {
	syncResponse *usecase.SyncResponseUsecase
	logger       *slog.Logger

	mu      sync.Mutex
	buffer  []int
	timer   *time.Timer
	ctx     context.Context
	cancel  context.CancelFunc
	flushed chan struct{} // closed on each flush for testing
}

// NewResponseEventHandler creates a new ResponseEventHandler.
func NewResponseEventHandler(syncResponse *usecase.SyncResponseUsecase, logger *slog.Logger) *ResponseEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &ResponseEventHandler{
		syncResponse: syncResponse,
		logger:       logger,
		buffer:       make([]int, 0, batchFlushSize),
		ctx:          ctx,
		cancel:       cancel,
		flushed:      make(chan struct{}, 1),
	}
	return h
}

// Stop cancels the background flush timer.
func (h *ResponseEventHandler) Stop() {
	h.cancel()
	h.mu.Lock()
	if h.timer != nil {
		h.timer.Stop()
	}
	h.mu.Unlock()
	// Flush remaining
	h.flush()
}

// HandleEvent processes a single event. Response IDs are buffered and
// flushed when the batch reaches batchFlushSize or after batchFlushInterval.
func (h *ResponseEventHandler) HandleEvent(ctx context.Context, event Event) error {
	switch event.EventType {
	case "ResponseSubmitted", "ResponseUpdated", "ResponseUnpublished":
		return h.handleResponseEvent(ctx, event)
	default:
		h.logger.Warn("unknown event type, skipping",
			"event_type", event.EventType,
			"event_id", event.EventID,
		)
		return nil
	}
}

func (h *ResponseEventHandler) handleResponseEvent(ctx context.Context, event Event) error {
	var payload ResponseEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		h.logger.Error("failed to unmarshal response event payload",
			"event_type", event.EventType,
			"event_id", event.EventID,
			"error", err,
		)
		return err
	}

	h.logger.Info("buffering response event",
		"event_type", event.EventType,
		"response_id", payload.ResponseID,
		"form_id", payload.FormID,
	)

	h.enqueue(payload.ResponseID)
	return nil
}

// enqueue adds a response ID to the buffer and triggers a flush if the
// batch size threshold is reached. A timer is started on the first
// enqueue to ensure timely flushing even when events arrive slowly.
func (h *ResponseEventHandler) enqueue(responseID int) {
	h.mu.Lock()
	h.buffer = append(h.buffer, responseID)
	size := len(h.buffer)

	if size == 1 {
		// First item in batch: start the flush timer
		h.timer = time.AfterFunc(batchFlushInterval, func() {
			h.flush()
		})
	}
	h.mu.Unlock()

	if size >= batchFlushSize {
		h.flush()
	}
}

// flush synchronizes all buffered responses with the index.
func (h *ResponseEventHandler) flush() {
	h.mu.Lock()
	if len(h.buffer) == 0 {
		h.mu.Unlock()
		return
	}
	ids := h.buffer
	h.buffer = make([]int, 0, batchFlushSize)
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.mu.Unlock()

	// Deduplicate IDs within the batch
	seen := make(map[int]struct{}, len(ids))
	unique := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}

	h.logger.Info("flushing batch", "count", len(unique))

	synced := 0
	for _, id := range unique {
		if _, err := h.syncResponse.Execute(h.ctx, id); err != nil {
			h.logger.Error("response sync failed", "response_id", id, "error", err)
			continue
		}
		synced++
	}

	h.logger.Info("batch synced", "synced", synced, "total", len(unique))

	// Signal flush completion (non-blocking for tests)
	select {
	case h.flushed <- struct{}{}:
	default:
	}
}
