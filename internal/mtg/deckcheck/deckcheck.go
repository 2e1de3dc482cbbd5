// Package deckcheck validates a deck against its format's size and copy
// rules and summarizes ownership and mana curve.
//
// Analyze is pure: it works on entries whose cards are already resolved and
// never performs I/O or returns an error. Malformed entries are skipped.
package deckcheck

import (
	"fmt"

	"github.com/ramonehamilton/bulkbuddy/internal/mtg/manacost"
	"github.com/ramonehamilton/bulkbuddy/internal/storage/models"
)

// Options controls analysis behaviour.
type Options struct {
	CurveMode manacost.CurveMode
}

// Analysis is the result of analysing a deck.
type Analysis struct {
	TotalMainQuantity      int            `json:"total_main_quantity"`
	TotalSideboardQuantity int            `json:"total_sideboard_quantity"`
	Warnings               []string       `json:"warnings"`
	CardsOwned             int            `json:"cards_owned"`
	CardsMissing           int            `json:"cards_missing"`
	OwnershipComplete      bool           `json:"ownership_complete"`
	ManaCurve              manacost.Curve `json:"mana_curve"`

	// IllegalCards lists main and sideboard card names the provider marks as
	// not playable in the deck's format. Informational only.
	IllegalCards []string `json:"illegal_cards"`
}

// Analyze checks a deck's main list and sideboard against format.
func Analyze(format string, main, sideboard []*models.DeckEntry, opts Options) *Analysis {
	a := &Analysis{
		TotalMainQuantity:      totalQuantity(main),
		TotalSideboardQuantity: totalQuantity(sideboard),
		Warnings:               []string{},
		IllegalCards:           []string{},
	}

	if manacost.IsCommander(format) && a.TotalMainQuantity != manacost.CommanderDeckSize {
		a.Warnings = append(a.Warnings, fmt.Sprintf(
			"Commander decks must have exactly %d cards. You have %d.",
			manacost.CommanderDeckSize, a.TotalMainQuantity))
	}
	if manacost.RequiresConstructedMinimum(format) && a.TotalMainQuantity < manacost.ConstructedMinimum {
		a.Warnings = append(a.Warnings, fmt.Sprintf(
			"%s decks must have at least %d cards. You have %d.",
			manacost.CanonicalFormat(format), manacost.ConstructedMinimum, a.TotalMainQuantity))
	}
	if a.TotalSideboardQuantity > manacost.MaxSideboardSize {
		a.Warnings = append(a.Warnings, fmt.Sprintf(
			"Sideboard can only contain up to %d cards. You have %d.",
			manacost.MaxSideboardSize, a.TotalSideboardQuantity))
	}

	a.Warnings = append(a.Warnings, copyLimitWarnings(main)...)

	for _, e := range sideboard {
		if e == nil || e.Owned {
			continue
		}
		name := e.CardName()
		if name == "" {
			name = "Unknown card"
		}
		a.Warnings = append(a.Warnings, fmt.Sprintf("%s is in your sideboard but not owned.", name))
	}

	for _, list := range [][]*models.DeckEntry{main, sideboard} {
		for _, e := range list {
			if e == nil {
				continue
			}
			if e.Owned {
				a.CardsOwned += e.Quantity
			} else {
				a.CardsMissing += e.Quantity
			}
		}
	}
	a.OwnershipComplete = a.CardsMissing == 0

	a.ManaCurve = ManaCurve(main, opts.CurveMode)
	a.IllegalCards = illegalCards(format, main, sideboard)

	return a
}

// ManaCurve buckets the entries by mana cost, weighted by quantity.
// Entries without a resolved card fall into bucket "0".
func ManaCurve(entries []*models.DeckEntry, mode manacost.CurveMode) manacost.Curve {
	curve := manacost.NewCurve()
	for _, e := range entries {
		if e == nil {
			continue
		}
		var cost *string
		if e.Card != nil {
			cost = e.Card.ManaCost
		}
		curve[manacost.CurveBucket(cost, mode)] += e.Quantity
	}
	return curve
}

// copyLimitWarnings aggregates main-list quantities by card name and warns
// for every non-basic name above the copy limit, in first-appearance order.
func copyLimitWarnings(main []*models.DeckEntry) []string {
	counts := make(map[string]int)
	var order []string

	for _, e := range main {
		name := e.CardName()
		if name == "" {
			continue
		}
		if _, seen := counts[name]; !seen {
			order = append(order, name)
		}
		counts[name] += e.Quantity
	}

	var warnings []string
	for _, name := range order {
		if manacost.IsBasicLand(name) || counts[name] <= manacost.MaxCopiesPerName {
			continue
		}
		warnings = append(warnings, fmt.Sprintf(
			"%s appears %d times - most formats only allow %d.",
			name, counts[name], manacost.MaxCopiesPerName))
	}
	return warnings
}

func illegalCards(format string, main, sideboard []*models.DeckEntry) []string {
	names := []string{}
	seen := make(map[string]bool)

	for _, list := range [][]*models.DeckEntry{main, sideboard} {
		for _, e := range list {
			if e == nil || e.Card == nil || seen[e.Card.Name] {
				continue
			}
			legality := manacost.LegalityIn(e.Card.Legalities, format)
			if legality == "" || manacost.IsPlayable(legality) {
				continue
			}
			seen[e.Card.Name] = true
			names = append(names, e.Card.Name)
		}
	}
	return names
}

func totalQuantity(entries []*models.DeckEntry) int {
	total := 0
	for _, e := range entries {
		if e != nil {
			total += e.Quantity
		}
	}
	return total
}
