package manacost

import (
	"strings"
)

// Colour letters in WUBRG order.
const (
	White = "W"
	Blue  = "U"
	Black = "B"
	Red   = "R"
	Green = "G"
)

// Colourless is the statistics key for cards with no colours.
const Colourless = "Colourless"

// Colors lists the five colours in WUBRG order.
var Colors = []string{White, Blue, Black, Red, Green}

// IsColor reports whether s is one of the five colour letters.
func IsColor(s string) bool {
	for _, c := range Colors {
		if strings.EqualFold(s, c) {
			return true
		}
	}
	return false
}

// Format names and size limits checked by deck analysis.
const (
	FormatCommander = "Commander"
	FormatStandard  = "Standard"
	FormatModern    = "Modern"

	CommanderDeckSize  = 100
	ConstructedMinimum = 60
	MaxSideboardSize   = 15
	MaxCopiesPerName   = 4
)

// CanonicalFormat returns the display name of a known format regardless of
// case, or format trimmed when it is not one of the checked formats.
func CanonicalFormat(format string) string {
	f := strings.TrimSpace(format)
	for _, known := range []string{FormatCommander, FormatStandard, FormatModern} {
		if strings.EqualFold(f, known) {
			return known
		}
	}
	return f
}

// IsCommander reports whether format names the Commander format.
func IsCommander(format string) bool {
	return strings.EqualFold(strings.TrimSpace(format), FormatCommander)
}

// RequiresConstructedMinimum reports whether format needs at least 60 main-list cards.
func RequiresConstructedMinimum(format string) bool {
	f := strings.TrimSpace(format)
	return strings.EqualFold(f, FormatStandard) || strings.EqualFold(f, FormatModern)
}

var basicLandWords = []string{"basic", "plains", "island", "swamp", "mountain", "forest"}

// IsBasicLand reports whether name looks like a basic land.
// It is a case-insensitive substring match, so "Snow-Covered Island" qualifies
// and so does anything else that happens to contain one of the words.
func IsBasicLand(name string) bool {
	lower := strings.ToLower(name)
	for _, w := range basicLandWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// IsLand reports whether a type line describes a land.
func IsLand(typeLine string) bool {
	return strings.Contains(strings.ToLower(typeLine), "land")
}

// Legality values reported by the card provider.
const (
	Legal      = "legal"
	NotLegal   = "not_legal"
	Restricted = "restricted"
	Banned     = "banned"
)

// LegalityIn returns the card's legality for format, or "" when the
// provider has no entry for it.
func LegalityIn(legalities map[string]string, format string) string {
	if len(legalities) == 0 {
		return ""
	}
	key := strings.ToLower(strings.TrimSpace(format))
	if v, ok := legalities[key]; ok {
		return v
	}
	return ""
}

// IsPlayable reports whether a legality value allows the card in a deck.
func IsPlayable(legality string) bool {
	return legality == Legal || legality == Restricted
}
