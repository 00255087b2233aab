package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/smartlibrary/librarian/engine/domain"
	"github.com/smartlibrary/librarian/engine/rag"
	"github.com/smartlibrary/librarian/pkg/metrics"
)

// respondRequest is the JSON body for POST /respond.
type respondRequest struct {
	Message string `json:"message"`
}

// Responder runs one turn, emitting events to the sink.
type Responder interface {
	Respond(ctx context.Context, message string, emit rag.EmitFunc) error
}

func handleRespond(svc Responder, reg *metrics.Registry, logger *slog.Logger) http.HandlerFunc {
	turns := reg.Counter("turns_total", "Conversational turns started.")
	latency := reg.Histogram("turn_seconds", "Turn duration in seconds.", nil)

	return func(w http.ResponseWriter, r *http.Request) {
		var req respondRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		turns.Inc()
		start := time.Now()
		sink := newEventWriter(w, reg)

		err := svc.Respond(r.Context(), req.Message, sink.emit)
		latency.Since(start)

		if err != nil {
			if errors.Is(err, domain.ErrEmptyMessage) {
				http.Error(w, `{"error":"message is required"}`, http.StatusBadRequest)
				return
			}
			logger.Error("respond failed", "err", err)
			if !sink.started {
				http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
			}
		}
	}
}

// eventWriter frames events as server-sent events. Headers go out on
// the first event, so validation failures can still use plain HTTP
// status codes.
type eventWriter struct {
	w       http.ResponseWriter
	started bool
	events  *metrics.Registry
}

func newEventWriter(w http.ResponseWriter, reg *metrics.Registry) *eventWriter {
	return &eventWriter{w: w, events: reg}
}

func (e *eventWriter) emit(ev rag.Event) error {
	if !e.started {
		h := e.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		e.started = true
	}

	// Token data is the raw delta text; only terminal frames are JSON.
	var payload []byte
	var err error
	switch ev.Kind {
	case rag.KindToken:
		payload = []byte(ev.Text)
	case rag.KindFinal:
		payload, err = json.Marshal(ev.Final)
	case rag.KindError:
		payload, err = json.Marshal(map[string]string{"error": ev.Err})
	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", ev.Kind, payload); err != nil {
		return err
	}
	if f, ok := e.w.(http.Flusher); ok {
		f.Flush()
	}
	e.events.Counter(metrics.WithLabels("events_total", "kind", string(ev.Kind)), "Stream events emitted.").Inc()
	return nil
}
