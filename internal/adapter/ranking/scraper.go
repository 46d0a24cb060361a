// Package ranking extracts ranked universities from ranking web pages.
package ranking

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/couchcryptid/campus-climate-etl/internal/domain"
)

// Markup of one ranked item: a container whose first anchor holds the
// university name and whose first span holds the place label.
const (
	itemSelector  = "div.uni_name"
	nameSelector  = "a"
	placeSelector = "span"
)

// Scraper fetches ranking pages and extracts their entries in page order.
type Scraper struct {
	urls       []string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewScraper creates a Scraper for the given ranking page URLs.
func NewScraper(urls []string, httpClient *http.Client, logger *slog.Logger) *Scraper {
	return &Scraper{
		urls:       urls,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Scrape fetches every configured page and returns the ranked entries in
// document order across pages. A page answering with a non-200 status
// contributes no entries. Entries whose name was already seen are dropped.
func (s *Scraper) Scrape(ctx context.Context) ([]domain.RankedEntry, error) {
	var out []domain.RankedEntry
	seen := make(map[string]bool)

	for _, u := range s.urls {
		items, err := s.scrapePage(ctx, u)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			id := domain.NewEntryID(it.name)
			if seen[id] {
				s.logger.Warn("duplicate university skipped", "university", it.name, "url", u)
				continue
			}
			seen[id] = true
			out = append(out, domain.RankedEntry{
				ID:    id,
				Rank:  len(out) + 1,
				Name:  it.name,
				Place: it.place,
			})
		}
	}

	return out, nil
}

type item struct {
	name  string
	place string
}

func (s *Scraper) scrapePage(ctx context.Context, pageURL string) ([]item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch ranking page %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		s.logger.Warn("ranking page unavailable, no entries extracted", "url", pageURL, "status", resp.StatusCode)
		return nil, nil
	}

	items, err := parseItems(resp.Body, s.logger)
	if err != nil {
		return nil, fmt.Errorf("parse ranking page %s: %w", pageURL, err)
	}
	s.logger.Info("ranking page scraped", "url", pageURL, "entries", len(items))
	return items, nil
}

// parseItems extracts (name, place) pairs from a ranking document.
func parseItems(r io.Reader, logger *slog.Logger) ([]item, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var items []item
	doc.Find(itemSelector).Each(func(i int, sel *goquery.Selection) {
		name := strings.TrimSpace(sel.Find(nameSelector).First().Text())
		place := strings.TrimSpace(sel.Find(placeSelector).First().Text())
		if name == "" || place == "" {
			logger.Warn("ranked item missing name or place", "index", i, "name", name, "place", place)
			return
		}
		items = append(items, item{name: name, place: place})
	})
	return items, nil
}
