// Package scraper provides HTTP fetching and HTML parsing for waw4free listings.
//
// The scraper package fetches listing pages, splits them into cards and
// classifies each card. A card whose date line names a Warsaw district
// becomes an event with either a date interval ("12.01.2026 - 15.01.2026")
// or a single date and time; any other card is kept as free text. Category
// text is tokenized with prepositions merged into the following word.
package scraper
