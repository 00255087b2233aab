package selector

import (
	"context"
	"errors"
	"testing"

	"github.com/smartlibrary/librarian/engine/semantic"
)

type mockCompleter struct {
	resp     string
	err      error
	calls    int
	lastUser string
}

func (m *mockCompleter) Complete(_ context.Context, _, user string) (string, error) {
	m.calls++
	m.lastUser = user
	return m.resp, m.err
}

func matchesFor(titles ...string) []semantic.Match {
	out := make([]semantic.Match, len(titles))
	for i, t := range titles {
		out[i] = semantic.Match{Title: t}
	}
	return out
}

func TestSelectTitleValidJSON(t *testing.T) {
	mc := &mockCompleter{resp: `{"title":"The Hobbit"}`}
	s := New(mc)

	got, err := s.SelectTitle(context.Background(), "ceva fantasy", matchesFor("Dune", "The Hobbit"))
	if err != nil {
		t.Fatalf("SelectTitle: %v", err)
	}
	if got != "The Hobbit" {
		t.Errorf("got %q", got)
	}
}

func TestSelectTitleFallbackOnGarbage(t *testing.T) {
	mc := &mockCompleter{resp: "nope"}
	s := New(mc)

	got, err := s.SelectTitle(context.Background(), "ceva", matchesFor("Dune", "The Hobbit"))
	if err != nil {
		t.Fatalf("SelectTitle: %v", err)
	}
	if got != "Dune" {
		t.Errorf("got %q, want first candidate Dune", got)
	}
}

func TestSelectTitleFallbackOutsideCandidateSet(t *testing.T) {
	mc := &mockCompleter{resp: `{"title":"Moby Dick"}`}
	s := New(mc)

	got, err := s.SelectTitle(context.Background(), "ceva", matchesFor("Dune", "The Hobbit"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "Dune" {
		t.Errorf("got %q, want Dune", got)
	}
}

func TestSelectTitleEmptyCandidates(t *testing.T) {
	mc := &mockCompleter{}
	s := New(mc)

	got, err := s.SelectTitle(context.Background(), "ceva", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("got %q, want empty", got)
	}
	if mc.calls != 0 {
		t.Error("no provider call expected without candidates")
	}
}

func TestSelectTitleDeduplicatesFirstSeen(t *testing.T) {
	mc := &mockCompleter{resp: "not json"}
	s := New(mc)

	got, err := s.SelectTitle(context.Background(), "ceva",
		matchesFor("The Hobbit", "The Hobbit", "", "Dune"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "The Hobbit" {
		t.Errorf("got %q, want The Hobbit", got)
	}
}

func TestSelectTitleProviderError(t *testing.T) {
	mc := &mockCompleter{err: errors.New("rate limited")}
	s := New(mc)

	if _, err := s.SelectTitle(context.Background(), "ceva", matchesFor("Dune")); err == nil {
		t.Fatal("provider errors must propagate")
	}
}
