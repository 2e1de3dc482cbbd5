package deckexport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ramonehamilton/bulkbuddy/internal/storage/models"
)

// ExportFormat represents the format to export the deck in.
type ExportFormat string

const (
	FormatText  ExportFormat = "text"  // "4 Card Name", then a "Sideboard:" section
	FormatCSV   ExportFormat = "csv"   // One row per main-list entry
	FormatArena ExportFormat = "arena" // "4 Card Name (SET)" with Deck/Sideboard headers
	FormatMTGO  ExportFormat = "mtgo"  // Sideboard lines prefixed with "SB:"
)

// Content types for the export formats.
const (
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeCSV  = "text/csv; charset=utf-8"
)

// CollectionFilename is the download name for collection exports.
const CollectionFilename = "my_collection.txt"

// ErrEmptyCollection is returned when there is nothing to export.
var ErrEmptyCollection = errors.New("no cards in collection")

// csvHeader is the column order of deck CSV exports.
var csvHeader = []string{"Name", "Set", "Quantity", "ManaCost", "Type", "Rarity", "OracleText"}

// DeckExport represents an exported deck or collection.
type DeckExport struct {
	Content     string       // The exported text
	Format      ExportFormat // The format used
	Filename    string       // Suggested filename for download
	ContentType string
}

// ParseFormat resolves a format name. Empty means FormatText.
func ParseFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatCSV, FormatArena, FormatMTGO:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", s)
	}
}

// Export exports a deck to the specified format.
// Entries whose card could not be resolved are left out.
func Export(deck *models.Deck, main, sideboard []*models.DeckEntry, format ExportFormat) (*DeckExport, error) {
	if deck == nil {
		return nil, fmt.Errorf("deck is nil")
	}

	base := Filename(deck.Name)

	switch format {
	case FormatText, "":
		return &DeckExport{
			Content:     exportText(main, sideboard),
			Format:      FormatText,
			Filename:    base + ".txt",
			ContentType: ContentTypeText,
		}, nil
	case FormatCSV:
		content, err := exportCSV(main)
		if err != nil {
			return nil, err
		}
		return &DeckExport{
			Content:     content,
			Format:      FormatCSV,
			Filename:    base + ".csv",
			ContentType: ContentTypeCSV,
		}, nil
	case FormatArena:
		return &DeckExport{
			Content:     exportArena(main, sideboard),
			Format:      FormatArena,
			Filename:    base + ".txt",
			ContentType: ContentTypeText,
		}, nil
	case FormatMTGO:
		return &DeckExport{
			Content:     exportMTGO(main, sideboard),
			Format:      FormatMTGO,
			Filename:    base + ".dek",
			ContentType: ContentTypeText,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// ExportCollection renders a collection as "qty Name (Set Name)" lines.
func ExportCollection(entries []*models.CollectionEntry) (*DeckExport, error) {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Card == nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%d %s (%s)", entry.Quantity, entry.Card.Name, entry.Card.SetName))
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCollection
	}

	return &DeckExport{
		Content:     strings.Join(lines, "\n"),
		Format:      FormatText,
		Filename:    CollectionFilename,
		ContentType: ContentTypeText,
	}, nil
}

// exportText produces "qty Name" lines joined by newlines, followed by a
// blank line and a "Sideboard:" section when the sideboard is not empty.
func exportText(main, sideboard []*models.DeckEntry) string {
	lines := entryLines(main, "%d %s")

	side := entryLines(sideboard, "%d %s")
	if len(side) > 0 {
		lines = append(lines, "", "Sideboard:")
		lines = append(lines, side...)
	}

	return strings.Join(lines, "\n")
}

// exportArena exports in the Arena import format.
// Format: "4 Lightning Bolt (M11)"
func exportArena(main, sideboard []*models.DeckEntry) string {
	var sb strings.Builder

	sb.WriteString("Deck\n")
	for _, entry := range resolved(main) {
		sb.WriteString(arenaLine(entry))
	}

	side := resolved(sideboard)
	if len(side) > 0 {
		sb.WriteString("\nSideboard\n")
		for _, entry := range side {
			sb.WriteString(arenaLine(entry))
		}
	}

	return sb.String()
}

func arenaLine(entry *models.DeckEntry) string {
	line := fmt.Sprintf("%d %s", entry.Quantity, entry.Card.Name)
	if entry.Card.SetCode != "" {
		line += fmt.Sprintf(" (%s)", strings.ToUpper(entry.Card.SetCode))
	}
	return line + "\n"
}

// exportMTGO exports in MTGO format.
// MTGO uses quantity on the left, no 'x', and sideboard is marked with "SB:" prefix
func exportMTGO(main, sideboard []*models.DeckEntry) string {
	var sb strings.Builder

	for _, line := range entryLines(main, "%d %s") {
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	side := entryLines(sideboard, "SB: %d %s")
	if len(side) > 0 {
		sb.WriteString("\n")
		for _, line := range side {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func exportCSV(main []*models.DeckEntry) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, entry := range resolved(main) {
		card := entry.Card
		manaCost := ""
		if card.ManaCost != nil {
			manaCost = *card.ManaCost
		}
		record := []string{
			card.Name,
			card.SetName,
			strconv.Itoa(entry.Quantity),
			manaCost,
			card.TypeLine,
			card.Rarity,
			card.OracleText,
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to write CSV row for %s: %w", card.Name, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV: %w", err)
	}

	return buf.String(), nil
}

func entryLines(entries []*models.DeckEntry, format string) []string {
	lines := make([]string, 0, len(entries))
	for _, entry := range resolved(entries) {
		lines = append(lines, fmt.Sprintf(format, entry.Quantity, entry.Card.Name))
	}
	return lines
}

// resolved returns the entries whose card is known.
func resolved(entries []*models.DeckEntry) []*models.DeckEntry {
	filtered := make([]*models.DeckEntry, 0, len(entries))
	for _, entry := range entries {
		if entry != nil && entry.Card != nil {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

var (
	whitespace   = regexp.MustCompile(`\s`)
	invalidChars = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
)

// Filename turns a deck name into a download filename without extension.
// Whitespace becomes underscores and path-hostile characters are replaced.
func Filename(name string) string {
	result := strings.TrimSpace(name)
	result = whitespace.ReplaceAllString(result, "_")
	result = invalidChars.Replace(result)
	if len(result) > 100 {
		result = result[:100]
	}
	if result == "" {
		result = "deck"
	}
	return result
}
