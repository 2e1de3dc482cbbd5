// Package decklist parses pasted deck lists. It understands the plain text,
// Arena and MTGO layouts produced by the deck exporter and by other tools.
package decklist

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ramonehamilton/bulkbuddy/internal/storage/models"
)

// Parse errors.
var (
	ErrEmpty   = errors.New("empty deck list")
	ErrNoCards = errors.New("no cards found in deck list")
)

// Line is one card line of a deck list.
type Line struct {
	Quantity int
	Name     string
	SetCode  string // Lower-cased; empty when the line names no set
	Board    string // models.BoardMain or models.BoardSideboard
}

// List is a parsed deck list. Lines that could not be read are reported in
// Warnings and otherwise ignored.
type List struct {
	Main      []Line
	Sideboard []Line
	Warnings  []string
}

// Count returns the number of card lines on both boards.
func (l *List) Count() int {
	return len(l.Main) + len(l.Sideboard)
}

var (
	// "4 Lightning Bolt", "4x Lightning Bolt", "4 Lightning Bolt (M11) 146"
	quantityFirst = regexp.MustCompile(`^(\d+)x?\s+(.+?)(?:\s+\(([A-Za-z0-9]+)\)(?:\s+\S+)?)?$`)
	// "Lightning Bolt x4"
	quantityLast = regexp.MustCompile(`^(.+?)\s+x(\d+)$`)
)

const mtgoSideboardPrefix = "sb:"

// Parse reads input line by line. A "Sideboard" header or an "SB:" prefix
// moves lines to the sideboard. Lists with neither marker use the Arena
// convention where the first blank line after the main cards starts the
// sideboard. "Deck" headers and comment lines starting with // or # are skipped.
func Parse(input string) (*List, error) {
	input = strings.TrimSpace(strings.ReplaceAll(input, "\r\n", "\n"))
	if input == "" {
		return nil, ErrEmpty
	}

	lines := strings.Split(input, "\n")
	blankSplits := !hasSideboardMarker(lines)

	list := &List{}
	board := models.BoardMain
	for i, raw := range lines {
		line := strings.TrimSpace(raw)

		switch {
		case line == "":
			if blankSplits && board == models.BoardMain && len(list.Main) > 0 {
				board = models.BoardSideboard
			}
			continue
		case strings.HasPrefix(line, "//"), strings.HasPrefix(line, "#"):
			continue
		case isHeader(line, "deck"), isHeader(line, "main"), isHeader(line, "mainboard"):
			board = models.BoardMain
			continue
		case isHeader(line, "sideboard"):
			board = models.BoardSideboard
			continue
		}

		lineBoard := board
		if strings.HasPrefix(strings.ToLower(line), mtgoSideboardPrefix) {
			lineBoard = models.BoardSideboard
			line = strings.TrimSpace(line[len(mtgoSideboardPrefix):])
		}

		parsed, ok := parseLine(line)
		if !ok {
			list.Warnings = append(list.Warnings, fmt.Sprintf("Line %d: could not parse %q", i+1, line))
			continue
		}
		if parsed.Quantity < 1 {
			list.Warnings = append(list.Warnings, fmt.Sprintf("Line %d: quantity must be at least 1", i+1))
			continue
		}

		parsed.Board = lineBoard
		if lineBoard == models.BoardSideboard {
			list.Sideboard = append(list.Sideboard, parsed)
		} else {
			list.Main = append(list.Main, parsed)
		}
	}

	if list.Count() == 0 {
		return list, ErrNoCards
	}
	return list, nil
}

func parseLine(line string) (Line, bool) {
	if m := quantityFirst.FindStringSubmatch(line); m != nil {
		qty, err := strconv.Atoi(m[1])
		if err == nil {
			return Line{Quantity: qty, Name: strings.TrimSpace(m[2]), SetCode: strings.ToLower(m[3])}, true
		}
	}
	if m := quantityLast.FindStringSubmatch(line); m != nil {
		qty, err := strconv.Atoi(m[2])
		if err == nil {
			return Line{Quantity: qty, Name: strings.TrimSpace(m[1])}, true
		}
	}
	return Line{}, false
}

// isHeader reports whether line is the section header name, with or without
// a trailing colon.
func isHeader(line, name string) bool {
	return strings.EqualFold(strings.TrimSuffix(line, ":"), name)
}

func hasSideboardMarker(lines []string) bool {
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if isHeader(line, "sideboard") || strings.HasPrefix(strings.ToLower(line), mtgoSideboardPrefix) {
			return true
		}
	}
	return false
}
