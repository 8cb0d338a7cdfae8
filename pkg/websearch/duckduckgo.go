package websearch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DuckDuckGo answers from the instant answer API.
type DuckDuckGo struct {
	baseURL string
	client  client
}

type DuckDuckGoConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

func NewDuckDuckGo(c DuckDuckGoConfig) *DuckDuckGo {
	base := c.BaseURL
	if base == "" {
		base = "https://api.duckduckgo.com"
	}
	return &DuckDuckGo{
		baseURL: strings.TrimRight(base, "/"),
		client:  newClient(c.UserAgent, c.Timeout),
	}
}

func (d *DuckDuckGo) Name() string { return "DuckDuckGo" }

type ddgTopic struct {
	Text     string `json:"Text"`
	FirstURL string `json:"FirstURL"`
}

type ddgResponse struct {
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

func (d *DuckDuckGo) Search(ctx context.Context, query string) (Result, error) {
	params := url.Values{
		"q":             {query},
		"format":        {"json"},
		"no_redirect":   {"1"},
		"no_html":       {"1"},
		"skip_disambig": {"1"},
	}

	var resp ddgResponse
	if err := d.client.getJSON(ctx, d.baseURL+"/?"+params.Encode(), &resp); err != nil {
		return Result{}, fmt.Errorf("duckduckgo: %w", err)
	}

	if text := strings.TrimSpace(resp.AbstractText); text != "" {
		return Result{Summary: text, URL: resp.AbstractURL, Source: d.Name()}, nil
	}
	for _, t := range resp.RelatedTopics {
		if text := strings.TrimSpace(t.Text); text != "" {
			return Result{Summary: text, URL: t.FirstURL, Source: d.Name()}, nil
		}
	}
	return Result{}, nil
}
