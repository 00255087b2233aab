package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smartlibrary/librarian/engine/domain"
	"github.com/smartlibrary/librarian/engine/rag"
	"github.com/smartlibrary/librarian/pkg/metrics"
)

type stubResponder struct {
	events []rag.Event
	err    error
}

func (s *stubResponder) Respond(_ context.Context, message string, emit rag.EmitFunc) error {
	if strings.TrimSpace(message) == "" {
		return domain.NewValidationError("message", message, domain.ErrEmptyMessage)
	}
	for _, e := range s.events {
		if err := emit(e); err != nil {
			return nil
		}
	}
	return s.err
}

func postRespond(t *testing.T, svc Responder, body string) *httptest.ResponseRecorder {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handleRespond(svc, metrics.New(), logger)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/respond", strings.NewReader(body))
	h.ServeHTTP(rec, req)
	return rec
}

func TestRespondEmptyMessageIs400(t *testing.T) {
	rec := postRespond(t, &stubResponder{}, `{"message":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Header().Get("Content-Type"), "event-stream") {
		t.Error("validation failure must not start a stream")
	}
}

func TestRespondInvalidBodyIs400(t *testing.T) {
	rec := postRespond(t, &stubResponder{}, `{`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestRespondStreamsFrames(t *testing.T) {
	svc := &stubResponder{events: []rag.Event{
		rag.TokenEvent("Îți "),
		rag.TokenEvent("recomand Dune."),
		rag.FinalEvent("Dune", "Arrakis."),
	}}
	rec := postRespond(t, svc, `{"message":"ceva sf"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
	body := rec.Body.String()
	frames := strings.Split(strings.TrimSpace(body), "\n\n")
	if len(frames) != 3 {
		t.Fatalf("frames = %d:\n%s", len(frames), body)
	}
	if frames[0] != "event: token\ndata: Îți " {
		t.Errorf("frame 0 = %q, want the raw delta as data", frames[0])
	}
	if frames[1] != "event: token\ndata: recomand Dune." {
		t.Errorf("frame 1 = %q", frames[1])
	}
	last := frames[2]
	if !strings.HasPrefix(last, "event: final\n") {
		t.Errorf("last frame = %q", last)
	}
	for _, want := range []string{`"final":true`, `"title":"Dune"`, `"summary":"Arrakis."`} {
		if !strings.Contains(last, want) {
			t.Errorf("final frame missing %s:\n%s", want, last)
		}
	}
}

func TestRespondErrorFrame(t *testing.T) {
	svc := &stubResponder{events: []rag.Event{rag.ErrorEvent("model unavailable")}}
	rec := postRespond(t, svc, `{"message":"ceva"}`)

	body := rec.Body.String()
	if !strings.Contains(body, "event: error\n") || !strings.Contains(body, `"error":"model unavailable"`) {
		t.Errorf("body = %q", body)
	}
}

func TestRespondModerationFrames(t *testing.T) {
	svc := &stubResponder{events: []rag.Event{
		rag.TokenEvent("Aș vrea să păstrăm conversația politicoasă."),
		rag.FinalEvent("", ""),
	}}
	rec := postRespond(t, svc, `{"message":"x"}`)

	body := rec.Body.String()
	if !strings.Contains(body, `"recommendation":null`) || !strings.Contains(body, `"summary":null`) {
		t.Errorf("redirect final frame should carry nulls:\n%s", body)
	}
}

func TestRespondInternalErrorBeforeStream(t *testing.T) {
	svc := &stubResponder{err: errors.New("wiring broken")}
	rec := postRespond(t, svc, `{"message":"ceva"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
}
