package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/Milanpreetsingh/news-data-service/pkg/models"
)

// flakySummarizer fails for article ids listed in fail.
type flakySummarizer struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls int
}

func (f *flakySummarizer) Summarize(ctx context.Context, title, content string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fail[title] {
		return "", errors.New("model timeout")
	}
	return "summary of " + title, nil
}

func TestEnrichPartialFailure(t *testing.T) {
	articles := make([]*models.Article, 5)
	for i := range articles {
		id := fmt.Sprintf("art-%d", i)
		articles[i] = &models.Article{ID: id, Title: id, Description: "body"}
	}

	summarizer := &flakySummarizer{fail: map[string]bool{"art-2": true}}
	e := NewEnricher(summarizer, zerolog.Nop())
	e.Enrich(context.Background(), articles)

	if summarizer.calls != 5 {
		t.Fatalf("expected 5 summarization calls, got %d", summarizer.calls)
	}
	for i, a := range articles {
		want := "summary of " + a.Title
		if a.ID == "art-2" {
			want = SentinelSummary
		}
		if a.LLMSummary != want {
			t.Fatalf("article %d: summary %q, want %q", i, a.LLMSummary, want)
		}
		// order untouched
		if a.ID != fmt.Sprintf("art-%d", i) {
			t.Fatalf("article order changed at %d: %s", i, a.ID)
		}
	}
}

func TestEnrichAllFailuresStillComplete(t *testing.T) {
	summarizer := &flakySummarizer{fail: map[string]bool{"a": true, "b": true}}
	articles := []*models.Article{{ID: "a", Title: "a"}, {ID: "b", Title: "b"}}

	e := NewEnricher(summarizer, zerolog.Nop())
	e.Enrich(context.Background(), articles)

	for _, a := range articles {
		if a.LLMSummary != SentinelSummary {
			t.Fatalf("expected sentinel for %s, got %q", a.ID, a.LLMSummary)
		}
	}
}

func TestEnrichEmptyBatch(t *testing.T) {
	summarizer := &flakySummarizer{}
	e := NewEnricher(summarizer, zerolog.Nop())
	e.Enrich(context.Background(), nil)
	if summarizer.calls != 0 {
		t.Fatalf("expected no calls for empty batch, got %d", summarizer.calls)
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	cases := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short ascii untouched", "hello", 10, "hello"},
		{"ascii cut at max", "abcdef", 3, "abc"},
		{"multibyte rune not split", "abé", 3, "ab"}, // é is 2 bytes
		{"cut lands on rune start", "abé", 4, "abé"},
		{"emoji body", strings.Repeat("\U0001F600", 3), 5, "\U0001F600"}, // 4 bytes each
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := truncate(tc.in, tc.max)
			if got != tc.want {
				t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
			}
			if !utf8.ValidString(got) {
				t.Fatalf("truncate produced invalid UTF-8: %q", got)
			}
		})
	}
}

func TestEnrichFallsBackToTitleContent(t *testing.T) {
	summarizer := &flakySummarizer{}
	a := &models.Article{ID: "a", Title: "headline only"}
	e := NewEnricher(summarizer, zerolog.Nop())
	e.Enrich(context.Background(), []*models.Article{a})
	if a.LLMSummary != "summary of headline only" {
		t.Fatalf("unexpected summary %q", a.LLMSummary)
	}
}
