package vocab

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// DefaultCity is the city token stripped from detail-page addresses.
const DefaultCity = "Warszawa"

// DefaultDistricts lists the Warsaw districts in matching order.
// The first entry that occurs in a text wins, so order matters.
var DefaultDistricts = []string{
	"Mokotów", "Praga-Południe", "Białołęka", "Wola", "Ursynów",
	"Bielany", "Śródmieście", "Wawer", "Ochota", "Ursus",
	"Praga-Północ", "Wesoła", "Żoliborz", "Wilanów", "Włochy", "Rembertów",
}

// DefaultPrepositions are merged with the following word when tokenizing categories.
var DefaultPrepositions = []string{"dla", "po", "w", "na", "z", "bez", "do", "od"}

// Vocabulary holds the locality word lists used by the text heuristics.
type Vocabulary struct {
	City         string   `yaml:"city"`
	Districts    []string `yaml:"districts"`
	Prepositions []string `yaml:"prepositions"`

	prepositions map[string]struct{}
}

// Default returns the built-in Warsaw vocabulary.
func Default() *Vocabulary {
	v := &Vocabulary{
		City:         DefaultCity,
		Districts:    append([]string(nil), DefaultDistricts...),
		Prepositions: append([]string(nil), DefaultPrepositions...),
	}
	v.index()
	return v
}

// Load reads a YAML vocabulary file. Lists missing from the file keep their defaults.
func Load(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vocabulary: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML vocabulary document.
func Parse(data []byte) (*Vocabulary, error) {
	var raw Vocabulary
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing vocabulary: %w", err)
	}

	v := Default()
	if strings.TrimSpace(raw.City) != "" {
		v.City = strings.TrimSpace(raw.City)
	}
	if len(raw.Districts) > 0 {
		v.Districts = cleanList(raw.Districts)
	}
	if len(raw.Prepositions) > 0 {
		v.Prepositions = cleanList(raw.Prepositions)
	}
	if len(v.Districts) == 0 {
		return nil, fmt.Errorf("vocabulary has no districts")
	}
	v.index()
	return v, nil
}

func (v *Vocabulary) index() {
	for i, d := range v.Districts {
		v.Districts[i] = Normalize(d)
	}
	v.City = Normalize(v.City)
	v.prepositions = make(map[string]struct{}, len(v.Prepositions))
	for _, p := range v.Prepositions {
		v.prepositions[strings.ToLower(Normalize(p))] = struct{}{}
	}
}

// District returns the first district (in list order) contained in text.
func (v *Vocabulary) District(text string) (string, bool) {
	text = Normalize(text)
	for _, d := range v.Districts {
		if strings.Contains(text, d) {
			return d, true
		}
	}
	return "", false
}

// IsPreposition reports whether word is a preposition, ignoring case.
func (v *Vocabulary) IsPreposition(word string) bool {
	_, ok := v.prepositions[strings.ToLower(Normalize(word))]
	return ok
}

// StripLocality removes the city name and every district name from text.
//
// Plain substring removal: a district embedded in a street name is removed too.
func (v *Vocabulary) StripLocality(text string) string {
	text = Normalize(text)
	if v.City != "" {
		text = strings.ReplaceAll(text, v.City, "")
	}
	for _, d := range v.Districts {
		text = strings.ReplaceAll(text, d, "")
	}
	return text
}

// Normalize converts text to Unicode NFC so decomposed diacritics compare equal.
func Normalize(s string) string {
	return norm.NFC.String(s)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
