// Package rag orchestrates one conversational turn: moderation gate,
// retrieval, title selection, summary lookup and streamed generation.
package rag

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/smartlibrary/librarian/engine/domain"
	"github.com/smartlibrary/librarian/engine/semantic"
)

// Retriever returns ranked catalog matches for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]semantic.Match, error)
}

// TitleSelector picks one candidate title for the user's request.
type TitleSelector interface {
	SelectTitle(ctx context.Context, message string, matches []semantic.Match) (string, error)
}

// SummaryLookup resolves a title to locally-stored summary text.
type SummaryLookup interface {
	SummaryFor(title string) string
}

// StreamCompleter streams a chat completion, invoking onDelta per chunk.
type StreamCompleter interface {
	CompleteStream(ctx context.Context, system, user string, onDelta func(string) error) error
}

// InspectFunc reports the first offensive term in text, or "".
type InspectFunc func(text string) string

// Options tunes a Service.
type Options struct {
	// TopK is the retrieval depth shared by selection and generation.
	TopK int
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{TopK: 3}
}

// Service runs the response pipeline. All remote failures surface as a
// single terminal error event on the stream, never as a Respond error.
type Service struct {
	inspect   InspectFunc
	retriever Retriever
	selector  TitleSelector
	summaries SummaryLookup
	stream    StreamCompleter
	opts      Options
	logger    *slog.Logger
	tracer    trace.Tracer
}

// New creates a Service.
func New(inspect InspectFunc, r Retriever, sel TitleSelector, sum SummaryLookup, stream StreamCompleter, opts Options, logger *slog.Logger) *Service {
	if opts.TopK < 1 {
		opts.TopK = DefaultOptions().TopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		inspect:   inspect,
		retriever: r,
		selector:  sel,
		summaries: sum,
		stream:    stream,
		opts:      opts,
		logger:    logger,
		tracer:    otel.Tracer("engine/rag"),
	}
}

// turn carries the per-request state accumulated by the pipeline.
type turn struct {
	message  string
	flagged  string
	matches  []semantic.Match
	title    string
	summary  string
	streamed int
}

// Respond processes one user message and emits the event stream.
//
// A blank message returns a ValidationError and emits nothing. After
// the first event has been emitted the stream always terminates with
// exactly one final or error event, unless the sink itself fails, in
// which case emission stops silently.
func (s *Service) Respond(ctx context.Context, message string, emit EmitFunc) error {
	ctx, span := s.tracer.Start(ctx, "rag.respond")
	defer span.End()

	t := &turn{message: strings.TrimSpace(message)}
	if t.message == "" {
		return domain.NewValidationError("message", message, domain.ErrEmptyMessage)
	}

	sink := &sink{emit: emit}
	s.run(ctx, t, sink)

	s.logger.InfoContext(ctx, "turn complete",
		"flagged", t.flagged != "",
		"matches", len(t.matches),
		"title", t.title,
		"tokens", t.streamed,
		"sink_gone", sink.gone)
	return nil
}

func (s *Service) run(ctx context.Context, t *turn, out *sink) {
	if term := s.moderate(ctx, t); term != "" {
		out.send(TokenEvent(redirectMessage))
		out.send(FinalEvent("", ""))
		return
	}

	if err := s.gather(ctx, t); err != nil {
		s.logger.ErrorContext(ctx, "turn failed", "error", err)
		out.send(ErrorEvent(err.Error()))
		return
	}

	system := personaPrompt
	user := buildUserPrompt(t.message, t.title, t.summary, t.matches)

	ctx, span := s.tracer.Start(ctx, "rag.generate")
	defer span.End()
	err := s.stream.CompleteStream(ctx, system, user, func(delta string) error {
		t.streamed++
		return out.send(TokenEvent(delta))
	})
	if out.gone {
		return
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "generation failed", "error", err)
		out.send(ErrorEvent(err.Error()))
		return
	}
	out.send(FinalEvent(t.title, t.summary))
}

// moderate records and returns the offending term, if any. The term
// itself stays out of the logs.
func (s *Service) moderate(ctx context.Context, t *turn) string {
	_, span := s.tracer.Start(ctx, "rag.moderate")
	defer span.End()
	t.flagged = s.inspect(t.message)
	if t.flagged != "" {
		s.logger.InfoContext(ctx, "message blocked by moderation")
		span.SetAttributes(attribute.Bool("moderation.flagged", true))
	}
	return t.flagged
}

// gather runs the pre-generation phases: retrieval, selection, summary.
func (s *Service) gather(ctx context.Context, t *turn) error {
	ctx, span := s.tracer.Start(ctx, "rag.gather")
	defer span.End()

	matches, err := s.retriever.Retrieve(ctx, t.message, s.opts.TopK)
	if err != nil {
		return err
	}
	t.matches = matches
	span.SetAttributes(attribute.Int("retrieval.matches", len(matches)))

	title, err := s.selector.SelectTitle(ctx, t.message, matches)
	if err != nil {
		return err
	}
	t.title = title

	if title != "" {
		t.summary = s.summaries.SummaryFor(title)
	}
	return nil
}

// sink wraps the emit callback; once a write fails no further events
// are attempted.
type sink struct {
	emit EmitFunc
	gone bool
}

func (s *sink) send(e Event) error {
	if s.gone {
		return errSinkGone
	}
	if err := s.emit(e); err != nil {
		s.gone = true
		return err
	}
	return nil
}

var errSinkGone = errors.New("event sink closed")
