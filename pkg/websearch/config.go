package websearch

import (
	"time"

	"github.com/papercomputeco/sassy/pkg/config"
)

// FromConfig builds the default chain: Wikipedia, then DuckDuckGo.
func FromConfig(c config.WebSearchConfig, timeout time.Duration) *Multi {
	return NewMulti(
		NewWikipedia(WikipediaConfig{
			BaseURL:   c.WikipediaURL,
			Language:  c.Language,
			UserAgent: c.UserAgent,
			Timeout:   timeout,
		}),
		NewDuckDuckGo(DuckDuckGoConfig{
			BaseURL:   c.DuckDuckGoURL,
			UserAgent: c.UserAgent,
			Timeout:   timeout,
		}),
	)
}
