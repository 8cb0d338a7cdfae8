package websearch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Wikipedia answers with the summary of the best matching article and the
// article's long paragraphs as extended text.
type Wikipedia struct {
	baseURL string
	client  client
}

// WikipediaConfig configures the Wikipedia source.
type WikipediaConfig struct {
	// BaseURL overrides https://<Language>.wikipedia.org.
	BaseURL   string
	Language  string
	UserAgent string
	Timeout   time.Duration
}

func NewWikipedia(c WikipediaConfig) *Wikipedia {
	base := c.BaseURL
	if base == "" {
		lang := c.Language
		if lang == "" {
			lang = "es"
		}
		base = "https://" + lang + ".wikipedia.org"
	}
	return &Wikipedia{
		baseURL: strings.TrimRight(base, "/"),
		client:  newClient(c.UserAgent, c.Timeout),
	}
}

func (w *Wikipedia) Name() string { return "Wikipedia" }

type wikiSearchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

type wikiSummaryResponse struct {
	Extract string `json:"extract"`
}

func (w *Wikipedia) Search(ctx context.Context, query string) (Result, error) {
	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {"1"},
		"format":   {"json"},
	}

	var search wikiSearchResponse
	if err := w.client.getJSON(ctx, w.baseURL+"/w/api.php?"+params.Encode(), &search); err != nil {
		return Result{}, fmt.Errorf("wikipedia search: %w", err)
	}
	if len(search.Query.Search) == 0 {
		return Result{}, nil
	}

	page := url.PathEscape(strings.ReplaceAll(search.Query.Search[0].Title, " ", "_"))

	var summary wikiSummaryResponse
	if err := w.client.getJSON(ctx, w.baseURL+"/api/rest_v1/page/summary/"+page, &summary); err != nil {
		return Result{}, fmt.Errorf("wikipedia summary: %w", err)
	}
	if strings.TrimSpace(summary.Extract) == "" {
		return Result{}, nil
	}

	article := w.baseURL + "/wiki/" + page
	return Result{
		Summary:  strings.TrimSpace(summary.Extract),
		Extended: w.extended(ctx, article),
		URL:      article,
		Source:   w.Name(),
	}, nil
}

// extended is best effort: a failed article fetch leaves it empty.
func (w *Wikipedia) extended(ctx context.Context, article string) string {
	resp, err := w.client.get(ctx, article)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	text, err := paragraphs(resp.Body)
	if err != nil {
		return ""
	}
	return text
}
