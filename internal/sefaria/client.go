package sefaria

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the Sefaria public REST API. The API needs no
// authentication; every failure degrades to "nothing found" so a Sefaria
// outage never blocks the ingestion pipeline.
type Client struct {
	apiBase  string
	siteBase string
	http     *http.Client
}

func NewClient(apiBase, siteBase string) *Client {
	if apiBase == "" {
		apiBase = "https://www.sefaria.org"
	}
	if siteBase == "" {
		siteBase = apiBase
	}
	return &Client{
		apiBase:  strings.TrimRight(apiBase, "/"),
		siteBase: strings.TrimRight(siteBase, "/"),
		http:     &http.Client{Timeout: 20 * time.Second},
	}
}

// LookupResult is the response for a direct reference lookup.
type LookupResult struct {
	Found      bool     `json:"found"`
	Ref        string   `json:"ref,omitempty"`
	HeRef      string   `json:"heRef,omitempty"`
	Text       string   `json:"text,omitempty"`
	He         string   `json:"he,omitempty"`
	URL        string   `json:"url,omitempty"`
	Book       string   `json:"book,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// SearchHit is one ranked result from a keyword search.
type SearchHit struct {
	Ref   string  `json:"ref"`
	HeRef string  `json:"heRef,omitempty"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
	URL   string  `json:"url"`
}

// Lookup resolves a reference string against the texts API. An unknown ref,
// a network failure or a non-success status all yield Found:false; the
// caller never sees an error from this path.
func (c *Client) Lookup(ctx context.Context, ref string) LookupResult {
	endpoint := fmt.Sprintf("%s/api/texts/%s?context=0&commentary=0",
		c.apiBase, url.PathEscape(ref))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return LookupResult{Found: false}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("[Sefaria] lookup %q failed: %v", ref, err)
		return LookupResult{Found: false}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Sefaria] lookup %q returned status %d", ref, resp.StatusCode)
		return LookupResult{Found: false}
	}

	var body struct {
		Ref        string      `json:"ref"`
		HeRef      string      `json:"heRef"`
		Text       interface{} `json:"text"`
		He         interface{} `json:"he"`
		Book       string      `json:"book"`
		Categories []string    `json:"categories"`
		Error      string      `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return LookupResult{Found: false}
	}
	if body.Error != "" || body.Ref == "" {
		return LookupResult{Found: false}
	}

	return LookupResult{
		Found:      true,
		Ref:        body.Ref,
		HeRef:      body.HeRef,
		Text:       FlattenText(body.Text),
		He:         FlattenText(body.He),
		URL:        c.RefURL(body.Ref),
		Book:       body.Book,
		Categories: body.Categories,
	}
}

// Search runs a keyword search and returns up to limit ranked hits. Any
// failure yields an empty slice.
func (c *Client) Search(ctx context.Context, query string, limit int) []SearchHit {
	if limit <= 0 {
		limit = 5
	}

	payload, err := json.Marshal(map[string]interface{}{
		"query": query,
		"type":  "text",
		"size":  limit,
	})
	if err != nil {
		return []SearchHit{}
	}

	endpoint := c.apiBase + "/api/search-wrapper"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return []SearchHit{}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("[Sefaria] search %q failed: %v", query, err)
		return []SearchHit{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Sefaria] search %q returned status %d", query, resp.StatusCode)
		return []SearchHit{}
	}

	var body struct {
		Hits struct {
			Hits []struct {
				Score  float64 `json:"_score"`
				Source struct {
					Ref   string `json:"ref"`
					HeRef string `json:"heRef"`
					Exact string `json:"exact"`
					Naive string `json:"naive_lemmatizer"`
				} `json:"_source"`
				Highlight map[string][]string `json:"highlight"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return []SearchHit{}
	}

	hits := make([]SearchHit, 0, len(body.Hits.Hits))
	for _, h := range body.Hits.Hits {
		if h.Source.Ref == "" {
			continue
		}
		snippet := h.Source.Exact
		if snippet == "" {
			for _, fragments := range h.Highlight {
				if len(fragments) > 0 {
					snippet = fragments[0]
					break
				}
			}
		}
		hits = append(hits, SearchHit{
			Ref:   h.Source.Ref,
			HeRef: h.Source.HeRef,
			Text:  snippet,
			Score: h.Score,
			URL:   c.RefURL(h.Source.Ref),
		})
		if len(hits) >= limit {
			break
		}
	}
	return hits
}

// RefURL builds the public page URL for a reference.
func (c *Client) RefURL(ref string) string {
	return c.siteBase + "/" + strings.ReplaceAll(ref, " ", "_")
}

// FlattenText joins a possibly nested array-of-strings text value into one
// string. Sefaria returns strings, arrays of strings, or arrays of arrays
// depending on how much of a chapter the ref spans. Leaf order is preserved
// and empty leaves are dropped.
func FlattenText(v interface{}) string {
	var leaves []string
	collectLeaves(v, &leaves)
	return strings.Join(leaves, " ")
}

func collectLeaves(v interface{}, out *[]string) {
	switch val := v.(type) {
	case string:
		if trimmed := strings.TrimSpace(val); trimmed != "" {
			*out = append(*out, trimmed)
		}
	case []interface{}:
		for _, item := range val {
			collectLeaves(item, out)
		}
	case []string:
		for _, item := range val {
			collectLeaves(item, out)
		}
	}
}
