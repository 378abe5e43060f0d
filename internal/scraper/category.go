package scraper

import (
	"strings"

	"github.com/geoportal-waw/waw-events/internal/vocab"
)

// ParseCategories splits a card's category text into tags.
//
// Words are separated on any whitespace and lose a trailing comma. A
// preposition followed by another word is merged with it into one tag
// ("dla dzieci"); a consumed word is never looked at again.
func ParseCategories(text string, v *vocab.Vocabulary) []string {
	raw := strings.Fields(vocab.Normalize(text))
	words := make([]string, 0, len(raw))
	for _, w := range raw {
		if w = strings.TrimRight(w, ","); w != "" {
			words = append(words, w)
		}
	}

	tags := make([]string, 0, len(words))
	for i := 0; i < len(words); {
		if v.IsPreposition(words[i]) && i+1 < len(words) {
			tags = append(tags, words[i]+" "+words[i+1])
			i += 2
			continue
		}
		tags = append(tags, words[i])
		i++
	}
	return tags
}
