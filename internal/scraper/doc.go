// Package scraper provides HTTP fetching and HTML parsing for the events listing page.
//
// Fetching issues a single GET with browser-like headers and a timeout. Extraction
// locates event cards by trying an ordered list of CSS selectors, stopping at the
// first one that matches anything, and then derives each card's title, link,
// description and date through per-field fallback chains. A card that fails to
// extract is skipped without aborting the rest of the page.
package scraper
