package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"research-agent/internal/application/port/output"
	"research-agent/internal/domain/entity"
)

var _ output.SearchPort = (*TavilyAdapter)(nil)

// TavilyAdapter is the retrieval-service adapter over the Tavily search API.
type TavilyAdapter struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  output.LoggerPort
}

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Logger  output.LoggerPort
}

func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:  apiKey,
		BaseURL: "https://api.tavily.com",
		Timeout: 30 * time.Second,
	}
}

func NewTavilyAdapter(cfg Config) *TavilyAdapter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &TavilyAdapter{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  cfg.Logger,
	}
}

type searchRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search runs one ranked web search. Zero results is a valid outcome, not
// an error.
func (a *TavilyAdapter) Search(ctx context.Context, query string, maxResults int, depth output.SearchDepth) ([]entity.SourceRecord, error) {
	body, err := json.Marshal(searchRequest{
		APIKey:      a.apiKey,
		Query:       query,
		MaxResults:  maxResults,
		SearchDepth: string(depth),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if a.logger != nil {
		a.logger.Debug("Search request", "query", query, "maxResults", maxResults, "depth", depth)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, string(data))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	records := make([]entity.SourceRecord, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		records = append(records, entity.SourceRecord{
			URL:     r.URL,
			Title:   r.Title,
			Snippet: CleanSnippet(r.Content),
		})
	}

	if a.logger != nil {
		a.logger.Debug("Search response", "query", query, "results", len(records))
	}

	return records, nil
}
