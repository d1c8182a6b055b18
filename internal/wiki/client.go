// Package wiki talks to the MediaWiki action API that backs the race graph.
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

// Direction selects which side of the link graph a lookup follows.
type Direction int

const (
	// Forward follows links out of a page.
	Forward Direction = iota
	// Backward follows links into a page.
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "in"
	}
	return "out"
}

// ErrPageNotFound is returned when the API reports the title as missing or invalid.
var ErrPageNotFound = errors.New("page not found")

const (
	mainNamespace    = 0
	maxContinuations = 20
	maxErrorBody     = 512
)

// Page is a parsed article.
type Page struct {
	Title string
	HTML  string
	Links []string
}

// Graph is the read side of the document graph.
type Graph interface {
	RandomPage(ctx context.Context) (string, error)
	Links(ctx context.Context, title string, dir Direction) ([]string, error)
	PageExists(ctx context.Context, title string) (bool, error)
	Parse(ctx context.Context, title string) (Page, error)
}

type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimSpace(baseURL),
		userAgent: userAgent,
		http:      &http.Client{Timeout: timeout},
	}
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type linkEntry struct {
	NS    int    `json:"ns"`
	Title string `json:"title"`
}

type queryPage struct {
	Title     string      `json:"title"`
	Missing   bool        `json:"missing"`
	Invalid   bool        `json:"invalid"`
	Links     []linkEntry `json:"links"`
	LinksHere []linkEntry `json:"linkshere"`
}

type queryResponse struct {
	Continue map[string]string `json:"continue"`
	Query    struct {
		Pages  []queryPage `json:"pages"`
		Random []linkEntry `json:"random"`
	} `json:"query"`
	Error *apiError `json:"error"`
}

type parseResponse struct {
	Parse struct {
		Title string      `json:"title"`
		Text  string      `json:"text"`
		Links []linkEntry `json:"links"`
	} `json:"parse"`
	Error *apiError `json:"error"`
}

func (c *Client) RandomPage(ctx context.Context) (string, error) {
	var resp queryResponse
	err := c.get(ctx, url.Values{
		"action":      {"query"},
		"list":        {"random"},
		"rnnamespace": {"0"},
		"rnlimit":     {"1"},
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("wiki random: %s: %s", resp.Error.Code, resp.Error.Info)
	}
	if len(resp.Query.Random) == 0 {
		return "", errors.New("wiki random: empty response")
	}
	return resp.Query.Random[0].Title, nil
}

// Links lists main-namespace titles linked from (Forward) or to (Backward) the page.
func (c *Client) Links(ctx context.Context, title string, dir Direction) ([]string, error) {
	params := url.Values{
		"action":    {"query"},
		"titles":    {title},
		"redirects": {"1"},
	}
	continueKey := "plcontinue"
	if dir == Backward {
		params.Set("prop", "linkshere")
		params.Set("lhnamespace", "0")
		params.Set("lhlimit", "max")
		params.Set("lhprop", "title")
		continueKey = "lhcontinue"
	} else {
		params.Set("prop", "links")
		params.Set("plnamespace", "0")
		params.Set("pllimit", "max")
	}

	var links []string
	for i := 0; i < maxContinuations; i++ {
		var resp queryResponse
		if err := c.get(ctx, params, &resp); err != nil {
			return nil, err
		}
		if resp.Error != nil {
			return nil, fmt.Errorf("wiki links: %s: %s", resp.Error.Code, resp.Error.Info)
		}
		for _, page := range resp.Query.Pages {
			if page.Missing || page.Invalid {
				return nil, ErrPageNotFound
			}
			entries := page.Links
			if dir == Backward {
				entries = page.LinksHere
			}
			links = appendMain(links, entries)
		}
		next := resp.Continue[continueKey]
		if next == "" {
			break
		}
		params.Set(continueKey, next)
	}
	return links, nil
}

func (c *Client) PageExists(ctx context.Context, title string) (bool, error) {
	var resp queryResponse
	err := c.get(ctx, url.Values{
		"action":    {"query"},
		"titles":    {title},
		"redirects": {"1"},
	}, &resp)
	if err != nil {
		return false, err
	}
	if resp.Error != nil {
		return false, fmt.Errorf("wiki exists: %s: %s", resp.Error.Code, resp.Error.Info)
	}
	if len(resp.Query.Pages) == 0 {
		return false, nil
	}
	page := resp.Query.Pages[0]
	return !page.Missing && !page.Invalid, nil
}

func (c *Client) Parse(ctx context.Context, title string) (Page, error) {
	var resp parseResponse
	err := c.get(ctx, url.Values{
		"action":    {"parse"},
		"page":      {title},
		"prop":      {"text|links"},
		"redirects": {"1"},
	}, &resp)
	if err != nil {
		return Page{}, err
	}
	if resp.Error != nil {
		if resp.Error.Code == "missingtitle" || resp.Error.Code == "invalidtitle" {
			return Page{}, ErrPageNotFound
		}
		return Page{}, fmt.Errorf("wiki parse: %s: %s", resp.Error.Code, resp.Error.Info)
	}
	return Page{
		Title: resp.Parse.Title,
		HTML:  resp.Parse.Text,
		Links: appendMain(nil, resp.Parse.Links),
	}, nil
}

func (c *Client) get(ctx context.Context, params url.Values, dest any) error {
	params.Set("format", "json")
	params.Set("formatversion", "2")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("wiki %s: %w", params.Get("action"), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("wiki %s: status %d: %s", params.Get("action"), resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("wiki %s: decode: %w", params.Get("action"), err)
	}
	return nil
}

func appendMain(dst []string, entries []linkEntry) []string {
	for _, entry := range entries {
		if entry.NS != mainNamespace || entry.Title == "" {
			continue
		}
		dst = append(dst, entry.Title)
	}
	return dst
}
