package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Client talks to an Ollama-compatible generation endpoint. Both operations
// are fallible and carry no latency guarantee; callers isolate failures.
type Client struct {
	url    string
	model  string
	hc     *http.Client
	logger zerolog.Logger
}

// IntentResult is the structured interpretation of a free-form news query.
type IntentResult struct {
	Entities     []string `json:"entities"`
	Intent       string   `json:"intent"`
	SearchTerms  []string `json:"search_terms"`
	LocationHint string   `json:"location_hint"`
}

// NewClient creates a client. A nil httpClient gets a default with timeout.
func NewClient(url, model string, httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		url:    url,
		model:  model,
		hc:     httpClient,
		logger: logger.With().Str("component", "llm").Logger(),
	}
}

// Summarize returns a 2-3 sentence summary of the article text.
func (c *Client) Summarize(ctx context.Context, title, content string) (string, error) {
	prompt := fmt.Sprintf(
		"Summarize this news article in 2-3 concise sentences.\n\nTitle: %s\n\n%s\n\nSummary:",
		title, content)
	return c.generate(ctx, prompt)
}

const intentPromptTemplate = `Extract information from this news query and return ONLY valid JSON without any markdown formatting:

Query: %q

Return a JSON object with these fields:
- entities: list of named entities (people, organizations, locations, events)
- intent: one of ["category", "score", "search", "source", "nearby"]
- search_terms: list of keywords for searching
- location_hint: any location mentioned (or null)
`

// ExtractIntent interprets a search query. On any failure it falls back to
// a plain keyword split so the search path keeps working without the model.
func (c *Client) ExtractIntent(ctx context.Context, query string) IntentResult {
	fallback := IntentResult{
		Entities:    []string{},
		Intent:      "search",
		SearchTerms: strings.Fields(query),
	}

	text, err := c.generate(ctx, fmt.Sprintf(intentPromptTemplate, query))
	if err != nil {
		c.logger.Warn().Err(err).Msg("intent extraction failed, using keyword fallback")
		return fallback
	}

	text = stripCodeFence(text)
	var result IntentResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		c.logger.Warn().Err(err).Msg("intent response was not valid json")
		return fallback
	}
	if len(result.SearchTerms) == 0 {
		result.SearchTerms = fallback.SearchTerms
	}
	if result.Intent == "" {
		result.Intent = "search"
	}
	return result
}

// generate sends a non-streaming request and extracts the returned text.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model":      c.model,
		"prompt":     prompt,
		"max_tokens": 256,
		"stream":     false,
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("llm marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("llm new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()
	c.logger.Debug().Str("model", c.model).Dur("latency", time.Since(start)).Msg("llm request")

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("llm request failed: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	return extractText(respBody)
}

// extractText handles the common response shapes:
// {"response": ...} (Ollama), {"text": ...}, and OpenAI-style
// {"choices":[{"text"|"message":{"content"}}]}.
func extractText(respBody []byte) (string, error) {
	var parsed map[string]any
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		// plain-text endpoint
		return string(bytes.TrimSpace(respBody)), nil
	}

	if s, ok := parsed["response"].(string); ok && s != "" {
		return strings.TrimSpace(s), nil
	}
	if s, ok := parsed["text"].(string); ok && s != "" {
		return strings.TrimSpace(s), nil
	}
	if choices, ok := parsed["choices"].([]any); ok && len(choices) > 0 {
		if first, ok := choices[0].(map[string]any); ok {
			if s, ok := first["text"].(string); ok && s != "" {
				return strings.TrimSpace(s), nil
			}
			if msg, ok := first["message"].(map[string]any); ok {
				if s, ok := msg["content"].(string); ok && s != "" {
					return strings.TrimSpace(s), nil
				}
			}
		}
	}
	return "", fmt.Errorf("llm response had no recognizable text field")
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
