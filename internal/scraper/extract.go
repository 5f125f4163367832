package scraper

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/pervye-events/internal/event"
	"github.com/pfrederiksen/pervye-events/internal/logger"
)

// MaxCards caps how many candidate cards are turned into events
const MaxCards = 10

// cardSelectors are tried in order; the first one matching anything wins.
var cardSelectors = []string{
	"div.project-card",
	"div.event-card",
	"div.card",
	".project-item",
	".event-item",
	"article",
	`[class*="project"]`,
	`[class*="event"]`,
	`[class*="card"]`,
}

// fallbackCardSelector is used when none of cardSelectors match
const fallbackCardSelector = "article, div"

var (
	headingTags        = []string{"h1", "h2", "h3", "h4"}
	titleClassKeywords = []string{"title", "name", "heading"}
	descClassKeywords  = []string{"description", "text", "content", "summary"}
	dateClassKeywords  = []string{"date"}
)

// Extractor turns listing markup into events
type Extractor struct {
	baseURL  string
	maxCards int
	// parse turns one card into an event; tests replace it
	parse func(index int, card *goquery.Selection) *event.Event
}

// NewExtractor creates an Extractor resolving relative links against baseURL.
// A non-positive maxCards uses MaxCards.
func NewExtractor(baseURL string, maxCards int) *Extractor {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if maxCards <= 0 {
		maxCards = MaxCards
	}
	x := &Extractor{baseURL: baseURL, maxCards: maxCards}
	x.parse = x.parseCard
	return x
}

// ExtractBytes is Extract over an in-memory page
func (x *Extractor) ExtractBytes(markup []byte) ([]*event.Event, error) {
	return x.Extract(bytes.NewReader(markup))
}

// Extract parses markup and returns at most maxCards events in document order
func (x *Extractor) Extract(r io.Reader) ([]*event.Event, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	cards, selector := findCards(doc)
	logger.Debug("Candidate cards located", logger.Fields{
		"selector": selector,
		"count":    cards.Length(),
	})

	if cards.Length() > x.maxCards {
		cards = cards.Slice(0, x.maxCards)
	}

	events := make([]*event.Event, 0, cards.Length())
	cards.Each(func(i int, card *goquery.Selection) {
		evt, err := x.extractCard(i, card)
		if err != nil {
			logger.Warn("Skipping card", logger.Fields{"index": i, "error": err.Error()})
			return
		}
		events = append(events, evt)
	})

	return events, nil
}

// findCards returns the matches of the first selector that matches anything,
// or every article and div element when none do.
func findCards(doc *goquery.Document) (*goquery.Selection, string) {
	for _, selector := range cardSelectors {
		if cards := doc.Find(selector); cards.Length() > 0 {
			return cards, selector
		}
	}
	return doc.Find(fallbackCardSelector), fallbackCardSelector
}

// extractCard derives one event, converting a panic into an error so a
// single bad card cannot abort the page.
func (x *Extractor) extractCard(index int, card *goquery.Selection) (evt *event.Event, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extracting card %d: %v", index, r)
		}
	}()

	return x.parse(index, card), nil
}

// parseCard applies the per-field fallback chains to one card
func (x *Extractor) parseCard(index int, card *goquery.Selection) *event.Event {
	title := textOf(findTitle(card))
	link := x.findLink(card)
	description := textOf(findDescription(card))
	date := textOf(findDate(card))

	return event.NewEvent(index, title, link, description, date, x.baseURL)
}

func findTitle(card *goquery.Selection) *goquery.Selection {
	for _, tag := range headingTags {
		if sel := card.Find(tag).First(); sel.Length() > 0 {
			return sel
		}
	}
	return findDivByClass(card, titleClassKeywords)
}

func (x *Extractor) findLink(card *goquery.Selection) string {
	href, ok := card.Find("a").First().Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return x.baseURL
	}
	return ResolveLink(x.baseURL, href)
}

func findDescription(card *goquery.Selection) *goquery.Selection {
	if sel := card.Find("p").First(); sel.Length() > 0 {
		return sel
	}
	return findDivByClass(card, descClassKeywords)
}

func findDate(card *goquery.Selection) *goquery.Selection {
	if sel := card.Find("time").First(); sel.Length() > 0 {
		return sel
	}
	return findDivByClass(card, dateClassKeywords)
}

// findDivByClass returns the first div whose class attribute contains a keyword,
// trying keywords in order. The match is case-insensitive.
func findDivByClass(card *goquery.Selection, keywords []string) *goquery.Selection {
	divs := card.Find("div")
	for _, keyword := range keywords {
		sel := divs.FilterFunction(func(_ int, s *goquery.Selection) bool {
			class, ok := s.Attr("class")
			return ok && strings.Contains(strings.ToLower(class), keyword)
		}).First()
		if sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

// textOf returns the whitespace-normalized text of sel, or "" for nil.
func textOf(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	return strings.Join(strings.Fields(sel.Text()), " ")
}

// ResolveLink makes href absolute against baseURL. Hrefs already starting
// with "http" are returned unchanged.
func ResolveLink(baseURL, href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	base := strings.TrimRight(baseURL, "/")
	if strings.HasPrefix(href, "/") {
		return base + href
	}
	return base + "/" + href
}
