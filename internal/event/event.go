package event

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Placeholders substituted for fields the page does not provide.
const (
	NoDescription = "Description unavailable"
	NoDate        = "Date not specified"
	titleFormat   = "Event #%d"
)

// MaxDescriptionLength is the number of characters kept from a description.
const MaxDescriptionLength = 200

// MaxTitleLength is the number of characters of a title shown in a message.
// It keeps event messages well under the Telegram limit of 4096 characters.
const MaxTitleLength = 256

// Ellipsis is appended to descriptions cut at MaxDescriptionLength.
const Ellipsis = "..."

// Event represents a single event card from the listing page
type Event struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

// GenerateID creates a deterministic ID for an event from its title and link.
// Distinct postings sharing both title and link get the same ID.
func GenerateID(title, link string) string {
	h := sha1.New()
	h.Write([]byte(title + "|" + link))
	return fmt.Sprintf("event_%x", h.Sum(nil))
}

// PlaceholderTitle returns the title used for the card at zero-based position index.
func PlaceholderTitle(index int) string {
	return fmt.Sprintf(titleFormat, index+1)
}

// TruncateDescription cuts text to MaxDescriptionLength characters and appends
// Ellipsis when it was longer.
func TruncateDescription(text string) string {
	return truncate(text, MaxDescriptionLength)
}

// TruncateTitle cuts text to MaxTitleLength characters and appends Ellipsis
// when it was longer.
func TruncateTitle(text string) string {
	return truncate(text, MaxTitleLength)
}

func truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + Ellipsis
}

// HasDate reports whether the event carries a real date rather than the placeholder.
func (e *Event) HasDate() bool {
	return e.Date != "" && e.Date != NoDate
}

// NewEvent creates a new Event, filling placeholders for empty fields and
// deriving the ID from the full title and link. Title and description are
// truncated after the ID is derived.
func NewEvent(index int, title, link, description, date, baseURL string) *Event {
	title = strings.TrimSpace(title)
	if title == "" {
		title = PlaceholderTitle(index)
	}
	if link == "" {
		link = baseURL
	}
	description = strings.TrimSpace(description)
	if description == "" {
		description = NoDescription
	}
	date = strings.TrimSpace(date)
	if date == "" {
		date = NoDate
	}

	return &Event{
		ID:          GenerateID(title, link),
		Title:       TruncateTitle(title),
		Link:        link,
		Description: TruncateDescription(description),
		Date:        date,
	}
}
