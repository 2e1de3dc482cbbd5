package stats

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ramonehamilton/bulkbuddy/internal/mtg/manacost"
	"github.com/ramonehamilton/bulkbuddy/internal/storage/models"
)

func strPtr(s string) *string { return &s }

func TestSummarize_ColorCounts(t *testing.T) {
	items := []Item{
		{Card: &models.Card{Name: "Azorius Charm", Colors: []string{"W", "U"}, Rarity: "uncommon"}, Quantity: 3},
		{Card: &models.Card{Name: "Sol Ring", Colors: []string{}, Rarity: "uncommon"}, Quantity: 1},
		{Card: &models.Card{Name: "Lightning Bolt", Colors: []string{"r"}, Rarity: "common"}, Quantity: 4},
	}

	s := Summarize(items)

	want := map[string]int{"W": 3, "U": 3, "B": 0, "R": 4, "G": 0, "Colourless": 1}
	if diff := cmp.Diff(want, s.ColorCounts); diff != "" {
		t.Errorf("color counts mismatch (-want +got):\n%s", diff)
	}
	if s.TotalQuantity != 8 {
		t.Errorf("TotalQuantity = %d, want 8", s.TotalQuantity)
	}
	if s.UniqueCount != 3 {
		t.Errorf("UniqueCount = %d, want 3", s.UniqueCount)
	}
}

func TestSummarize_RarityCounts(t *testing.T) {
	items := []Item{
		{Card: &models.Card{Rarity: "rare"}, Quantity: 2},
		{Card: &models.Card{Rarity: ""}, Quantity: 1},
		{Card: nil, Quantity: 5},
		{Card: &models.Card{Rarity: "mythic"}, Quantity: 1},
		{Card: &models.Card{Rarity: "rare"}, Quantity: 1},
	}

	s := Summarize(items)

	want := map[string]int{"rare": 3, "unknown": 6, "mythic": 1}
	if diff := cmp.Diff(want, s.RarityCounts); diff != "" {
		t.Errorf("rarity counts mismatch (-want +got):\n%s", diff)
	}
	if s.TotalQuantity != 10 {
		t.Errorf("TotalQuantity = %d, want 10", s.TotalQuantity)
	}
	// Unresolved cards have no colour data and are left out of the colour map.
	if s.ColorCounts[manacost.Colourless] != 5 {
		t.Errorf("Colourless = %d, want 5", s.ColorCounts[manacost.Colourless])
	}
}

func TestSummarize_Value(t *testing.T) {
	items := []Item{
		{Card: &models.Card{Prices: models.Prices{USD: strPtr("0.10"), USDFoil: strPtr("0.25")}}, Quantity: 3},
		{Card: &models.Card{Prices: models.Prices{USD: strPtr("12.99")}}, Quantity: 2},
		{Card: &models.Card{Prices: models.Prices{USD: strPtr("n/a"), USDFoil: strPtr("")}}, Quantity: 7},
	}

	s := Summarize(items)

	if s.ValueUSD != 26.28 {
		t.Errorf("ValueUSD = %v, want 26.28", s.ValueUSD)
	}
	if s.ValueUSDFoil != 0.75 {
		t.Errorf("ValueUSDFoil = %v, want 0.75", s.ValueUSDFoil)
	}
}

func TestSummarize_AverageManaValue(t *testing.T) {
	items := []Item{
		{Card: &models.Card{TypeLine: "Creature — Elf", ManaCost: strPtr("{G}")}, Quantity: 4},
		{Card: &models.Card{TypeLine: "Sorcery", ManaCost: strPtr("{3}{G}{G}")}, Quantity: 2},
		{Card: &models.Card{TypeLine: "Basic Land — Forest"}, Quantity: 18},
	}

	s := Summarize(items)

	// (4*1 + 2*5) / 6
	if s.AverageManaValue != 2.33 {
		t.Errorf("AverageManaValue = %v, want 2.33", s.AverageManaValue)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)

	want := &Summary{
		ColorCounts:  map[string]int{"W": 0, "U": 0, "B": 0, "R": 0, "G": 0, "Colourless": 0},
		RarityCounts: map[string]int{},
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarizeDeck(t *testing.T) {
	entries := []*models.DeckEntry{
		{Quantity: 2, Card: &models.Card{ManaCost: strPtr("{3}{U}{U}"), Colors: []string{"U"}, Rarity: "rare"}},
		{Quantity: 1, Card: &models.Card{ManaCost: strPtr("{10}"), Rarity: "mythic"}},
		{Quantity: 3, Card: nil},
		nil,
	}

	s := SummarizeDeck(entries, manacost.CurveModeDigits)

	wantCurve := manacost.Curve{"0": 3, "1": 0, "2": 0, "3": 2, "4": 0, "5+": 1}
	if diff := cmp.Diff(wantCurve, s.ManaCurve); diff != "" {
		t.Errorf("curve mismatch (-want +got):\n%s", diff)
	}
	if s.UniqueCount != 3 {
		t.Errorf("UniqueCount = %d, want 3", s.UniqueCount)
	}
	if s.RarityCounts["unknown"] != 3 {
		t.Errorf("unknown rarity = %d, want 3", s.RarityCounts["unknown"])
	}
}

func TestFromCollection(t *testing.T) {
	c := &models.Card{Name: "Opt"}
	items := FromCollection([]*models.CollectionEntry{{Quantity: 2, Card: c}, nil})
	if len(items) != 1 || items[0].Card != c || items[0].Quantity != 2 {
		t.Errorf("FromCollection() = %+v", items)
	}
}
