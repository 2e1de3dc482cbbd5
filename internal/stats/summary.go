// Package stats aggregates collection and deck card lists into counts,
// colour and rarity breakdowns and estimated value.
package stats

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ramonehamilton/bulkbuddy/internal/mtg/manacost"
	"github.com/ramonehamilton/bulkbuddy/internal/storage/models"
)

// UnknownRarity is the rarity key for cards without a rarity.
const UnknownRarity = "unknown"

// Item is one (card, quantity) pair. Card may be nil when the reference
// could not be resolved.
type Item struct {
	Card     *models.Card
	Quantity int
}

// Summary is the aggregate over a list of items.
type Summary struct {
	TotalQuantity    int            `json:"total_quantity"`
	UniqueCount      int            `json:"unique_count"`
	ColorCounts      map[string]int `json:"color_counts"`
	RarityCounts     map[string]int `json:"rarity_counts"`
	ValueUSD         float64        `json:"value_usd"`
	ValueUSDFoil     float64        `json:"value_usd_foil"`
	AverageManaValue float64        `json:"average_mana_value"`
	ManaCurve        manacost.Curve `json:"mana_curve,omitempty"`
}

// Summarize aggregates items. It never fails: unresolved cards count toward
// the totals and the unknown rarity only, and unparsable prices count as zero.
func Summarize(items []Item) *Summary {
	s := &Summary{
		UniqueCount:  len(items),
		ColorCounts:  newColorCounts(),
		RarityCounts: make(map[string]int),
	}

	value := decimal.Zero
	foilValue := decimal.Zero
	manaTotal := 0
	nonLandQuantity := 0

	for _, item := range items {
		s.TotalQuantity += item.Quantity

		c := item.Card
		if c == nil {
			s.RarityCounts[UnknownRarity] += item.Quantity
			continue
		}

		rarity := c.Rarity
		if rarity == "" {
			rarity = UnknownRarity
		}
		s.RarityCounts[rarity] += item.Quantity

		addColors(s.ColorCounts, c.Colors, item.Quantity)

		qty := decimal.NewFromInt(int64(item.Quantity))
		value = value.Add(parsePrice(c.Prices.USD).Mul(qty))
		foilValue = foilValue.Add(parsePrice(c.Prices.USDFoil).Mul(qty))

		if !manacost.IsLand(c.TypeLine) {
			manaTotal += manacost.Value(c.ManaCost) * item.Quantity
			nonLandQuantity += item.Quantity
		}
	}

	s.ValueUSD = value.Round(2).InexactFloat64()
	s.ValueUSDFoil = foilValue.Round(2).InexactFloat64()
	if nonLandQuantity > 0 {
		s.AverageManaValue = decimal.NewFromInt(int64(manaTotal)).
			Div(decimal.NewFromInt(int64(nonLandQuantity))).
			Round(2).InexactFloat64()
	}

	return s
}

// SummarizeDeck aggregates a deck's main list and adds its mana curve.
func SummarizeDeck(entries []*models.DeckEntry, mode manacost.CurveMode) *Summary {
	items := make([]Item, 0, len(entries))
	curve := manacost.NewCurve()
	for _, e := range entries {
		if e == nil {
			continue
		}
		items = append(items, Item{Card: e.Card, Quantity: e.Quantity})

		var cost *string
		if e.Card != nil {
			cost = e.Card.ManaCost
		}
		curve[manacost.CurveBucket(cost, mode)] += e.Quantity
	}

	s := Summarize(items)
	s.ManaCurve = curve
	return s
}

// FromCollection converts collection entries into items.
func FromCollection(entries []*models.CollectionEntry) []Item {
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		items = append(items, Item{Card: e.Card, Quantity: e.Quantity})
	}
	return items
}

func newColorCounts() map[string]int {
	counts := make(map[string]int, len(manacost.Colors)+1)
	for _, c := range manacost.Colors {
		counts[c] = 0
	}
	counts[manacost.Colourless] = 0
	return counts
}

func addColors(counts map[string]int, colors []string, qty int) {
	added := false
	for _, color := range colors {
		if !manacost.IsColor(color) {
			continue
		}
		counts[strings.ToUpper(color)] += qty
		added = true
	}
	if !added {
		counts[manacost.Colourless] += qty
	}
}

func parsePrice(p *string) decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(*p)
	if err != nil {
		return decimal.Zero
	}
	return d
}
