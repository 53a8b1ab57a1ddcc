// wiki/wiki.go
package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrPageNotFound is returned when the upstream API has no page for the
// requested id or query.
var ErrPageNotFound = errors.New("page not found")

// PageRef identifies a single page. PageID is the URL key, Title the human
// readable title.
type PageRef struct {
	Title  string `json:"title"`
	PageID string `json:"page_id"`
}

// Serialize renders a possibly-nil page reference. An absent page renders as
// empty title and id rather than null.
func Serialize(p *PageRef) map[string]string {
	if p == nil {
		return map[string]string{"title": "", "page_id": ""}
	}
	return map[string]string{"title": p.Title, "page_id": p.PageID}
}

// Provider resolves search queries and page ids against a page source.
type Provider interface {
	SearchFirstMatch(ctx context.Context, query string) (*PageRef, error)
	ResolvePage(ctx context.Context, pageID string) (*PageRef, error)
	FetchRenderableContent(ctx context.Context, pageID string) (string, error)
}

// Client talks to the Wikimedia core REST API.
type Client struct {
	baseURL   string
	language  string
	userAgent string
	http      *http.Client
}

func NewClient(baseURL, language, userAgent string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/") + "/",
		language:  language,
		userAgent: userAgent,
		http:      &http.Client{Timeout: timeout},
	}
}

type searchResponse struct {
	Pages []struct {
		Title string `json:"title"`
		Key   string `json:"key"`
	} `json:"pages"`
}

type pageResponse struct {
	Title          string `json:"title"`
	Key            string `json:"key"`
	HTTPCode       int    `json:"httpCode"`
	RedirectTarget string `json:"redirect_target"`
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + c.language + path
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	return c.http.Do(req)
}

// SearchFirstMatch returns the best search hit for query, or ErrPageNotFound
// when the search comes back empty.
func (c *Client) SearchFirstMatch(ctx context.Context, query string) (*PageRef, error) {
	u := c.endpoint("/search/page") + "?" + url.Values{
		"q":     {query},
		"limit": {"1"},
	}.Encode()

	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("searching pages: %w", err)
	}
	defer resp.Body.Close()

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	if len(result.Pages) == 0 {
		return nil, ErrPageNotFound
	}
	return &PageRef{Title: result.Pages[0].Title, PageID: result.Pages[0].Key}, nil
}

// ResolvePage fetches page metadata for a known page id.
func (c *Client) ResolvePage(ctx context.Context, pageID string) (*PageRef, error) {
	page, err := c.fetchPageObject(ctx, pageID)
	if err != nil {
		return nil, err
	}
	return &PageRef{Title: page.Title, PageID: pageID}, nil
}

func (c *Client) fetchPageObject(ctx context.Context, pageID string) (*pageResponse, error) {
	u := c.endpoint("/page/" + url.PathEscape(pageID) + "/bare")

	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetching page object: %w", err)
	}
	defer resp.Body.Close()

	var page pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding page object: %w", err)
	}
	if page.HTTPCode == http.StatusNotFound {
		return nil, ErrPageNotFound
	}
	return &page, nil
}

// FetchRenderableContent downloads the page HTML, following a redirect target
// if the page object carries one, and rewrites relative wiki links so the
// document renders standalone.
func (c *Client) FetchRenderableContent(ctx context.Context, pageID string) (string, error) {
	page, err := c.fetchPageObject(ctx, pageID)
	if err != nil {
		return "", err
	}

	key := pageID
	if page.RedirectTarget != "" {
		parts := strings.Split(page.RedirectTarget, "/")
		if len(parts) >= 2 {
			if unescaped, err := url.PathUnescape(parts[len(parts)-2]); err == nil {
				key = unescaped
			}
		}
	}

	resp, err := c.get(ctx, c.endpoint("/page/"+url.PathEscape(key)+"/html"))
	if err != nil {
		return "", fmt.Errorf("fetching page html: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading page html: %w", err)
	}

	text := string(body)
	text = strings.ReplaceAll(text, `<base href="//en.wikipedia.org/wiki/"/>`, "")
	text = strings.ReplaceAll(text, "./", "https://en.wikipedia.org/wiki/")
	text = strings.ReplaceAll(text, "/w/load.php", "https://en.wikipedia.org/w/load.php")
	return text, nil
}
