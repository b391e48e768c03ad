// Package webimport turns an existing live page into an editable design:
// fetch, strip scripting, sanitize, tag. The result is a markup document like
// any other; the importer has no further role once it returns.
package webimport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/buildflow/buildflow/browser"
	"github.com/buildflow/buildflow/editor"
	"github.com/buildflow/buildflow/markup"
	"github.com/buildflow/buildflow/netguard"
)

// Result is an imported page ready to be stored as a design.
type Result struct {
	Title    string
	Document string // sanitized, tagged markup
}

// Config configures an Importer.
type Config struct {
	// Manager provides stealth pages for fetching. Nil falls back to a
	// plain HTTP fetch, which misses client-rendered content but needs no
	// Chrome.
	Manager *browser.Manager

	// Client used for the HTTP fallback. Default: 30s timeout.
	Client *http.Client

	// MaxBody caps the HTTP fallback body. Default: netguard.MaxFetchBody.
	MaxBody int64

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if c.MaxBody <= 0 {
		c.MaxBody = netguard.MaxFetchBody
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Importer fetches external pages and converts them into designs.
type Importer struct {
	cfg Config
}

// New creates an Importer.
func New(cfg Config) *Importer {
	cfg.defaults()
	return &Importer{cfg: cfg}
}

// Import fetches rawURL and returns a sanitized, tagged design document.
// The URL is validated against private and loopback targets first.
func (im *Importer) Import(ctx context.Context, rawURL string) (Result, error) {
	if err := netguard.ValidateURL(rawURL); err != nil {
		return Result{}, err
	}
	base, err := url.Parse(rawURL)
	if err != nil {
		return Result{}, fmt.Errorf("webimport: parse URL: %w", err)
	}

	var src string
	if im.cfg.Manager != nil {
		src, err = im.fetchRendered(ctx, rawURL)
	} else {
		src, err = im.fetchHTTP(ctx, rawURL)
	}
	if err != nil {
		return Result{}, err
	}

	title, body, err := Clean(src, base)
	if err != nil {
		return Result{}, err
	}
	if title == "" {
		title = base.Host
	}

	doc := markup.TagRandom(editor.Sanitize(body))
	if strings.TrimSpace(doc) == "" {
		return Result{}, fmt.Errorf("webimport: nothing importable at %s", rawURL)
	}

	im.cfg.Logger.Info("webimport: imported page",
		"url", rawURL, "title", title, "bytes", len(doc))
	return Result{Title: title, Document: doc}, nil
}

// fetchRendered loads the page in a stealth page and captures the DOM after
// load, so client-rendered content survives the import.
func (im *Importer) fetchRendered(ctx context.Context, rawURL string) (string, error) {
	page, err := im.cfg.Manager.StealthPage()
	if err != nil {
		return "", err
	}
	defer page.Close()

	page = page.Context(ctx)
	if err := page.Navigate(rawURL); err != nil {
		return "", fmt.Errorf("webimport: navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("webimport: wait load: %w", err)
	}
	src, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("webimport: capture DOM: %w", err)
	}
	return src, nil
}

func (im *Importer) fetchHTTP(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("webimport: build request: %w", err)
	}
	resp, err := im.cfg.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("webimport: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("webimport: fetch %s: status %d", rawURL, resp.StatusCode)
	}
	data, err := netguard.LimitedReadAll(resp.Body, im.cfg.MaxBody)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
