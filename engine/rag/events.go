package rag

// Kind tags an event in the response stream.
type Kind string

const (
	KindToken Kind = "token"
	KindFinal Kind = "final"
	KindError Kind = "error"
)

// Recommendation names the single recommended book.
type Recommendation struct {
	Title string `json:"title"`
}

// FinalPayload is the structured terminal payload of a successful stream.
// Summary is the authoritative locally-stored text, not model output.
type FinalPayload struct {
	Final          bool            `json:"final"`
	Recommendation *Recommendation `json:"recommendation"`
	Summary        *string         `json:"summary"`
}

// Event is one frame of the response stream. Zero or more token events
// are followed by exactly one terminal event (final or error).
type Event struct {
	Kind  Kind
	Text  string        // set for token events
	Final *FinalPayload // set for final events
	Err   string        // set for error events
}

// EmitFunc receives events in order; returning an error stops emission.
type EmitFunc func(Event) error

// TokenEvent wraps a text delta.
func TokenEvent(text string) Event {
	return Event{Kind: KindToken, Text: text}
}

// FinalEvent builds the terminal payload; empty title and summary map
// to JSON null.
func FinalEvent(title, summary string) Event {
	p := &FinalPayload{Final: true}
	if title != "" {
		p.Recommendation = &Recommendation{Title: title}
	}
	if summary != "" {
		p.Summary = &summary
	}
	return Event{Kind: KindFinal, Final: p}
}

// ErrorEvent wraps a terminal failure message.
func ErrorEvent(msg string) Event {
	return Event{Kind: KindError, Err: msg}
}
