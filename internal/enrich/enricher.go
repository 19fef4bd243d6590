package enrich

import (
	"context"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Milanpreetsingh/news-data-service/pkg/models"
)

// SentinelSummary replaces the summary of any article whose summarization
// call failed.
const SentinelSummary = "Summary unavailable."

const (
	maxConcurrent  = 8
	maxSummaryText = 2000
)

// Summarizer is the external summarization collaborator.
type Summarizer interface {
	Summarize(ctx context.Context, title, content string) (string, error)
}

// Enricher fans out one summarization call per article. Each call is its
// own failure domain: a failed call gets the sentinel text and never blocks
// or fails its siblings. No retry.
type Enricher struct {
	summarizer Summarizer
	logger     zerolog.Logger
}

func NewEnricher(summarizer Summarizer, logger zerolog.Logger) *Enricher {
	return &Enricher{
		summarizer: summarizer,
		logger:     logger.With().Str("component", "enrich").Logger(),
	}
}

// Enrich sets LLMSummary on every article in place. The slice order is
// untouched; summaries land by index, not by completion order.
func (e *Enricher) Enrich(ctx context.Context, articles []*models.Article) {
	if len(articles) == 0 {
		return
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrent)

	for _, a := range articles {
		article := a
		g.Go(func() error {
			content := article.Description
			if content == "" {
				content = article.Title
			}
			content = truncate(content, maxSummaryText)

			summary, err := e.summarizer.Summarize(ctx, article.Title, content)
			if err != nil {
				e.logger.Warn().Err(err).Str("article_id", article.ID).Msg("summarization failed")
				article.LLMSummary = SentinelSummary
				return nil
			}
			article.LLMSummary = summary
			return nil
		})
	}

	// closures never return errors, so this only waits
	_ = g.Wait()
}

// truncate cuts s to at most max bytes without splitting a UTF-8 rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
