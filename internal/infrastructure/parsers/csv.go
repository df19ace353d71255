package parsers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CSVParser parses cards from CSV format.
// With a header row, the "front" and "back" columns are used and any other
// named column goes to Extra. Without one, the first two columns are front and back.
type CSVParser struct {
	// Comma is the field delimiter. Defaults to ','.
	Comma rune
}

// Parse reads CSV from the reader and returns parsed cards.
func (p *CSVParser) Parse(r io.Reader) ([]RawCard, error) {
	reader := csv.NewReader(r)
	if p.Comma != 0 {
		reader.Comma = p.Comma
	}
	reader.FieldsPerRecord = -1

	first, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex, isHeader := p.readHeader(first)
	var cards []RawCard
	lineNum := 1
	if !isHeader {
		cards = append(cards, p.parseRecord(first, colIndex, lineNum))
	}

	rest, err := p.readRecords(reader, colIndex, lineNum)
	if err != nil {
		return nil, err
	}
	return append(cards, rest...), nil
}

// readHeader returns column positions and whether the row is a header.
func (p *CSVParser) readHeader(row []string) (map[string]int, bool) {
	colIndex := make(map[string]int)
	for i, col := range row {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}
	_, hasFront := colIndex["front"]
	_, hasBack := colIndex["back"]
	if hasFront && hasBack {
		return colIndex, true
	}
	return map[string]int{"front": 0, "back": 1}, false
}

// readRecords reads all remaining rows and converts them to RawCards.
func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int, lineNum int) ([]RawCard, error) {
	var cards []RawCard
	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		cards = append(cards, p.parseRecord(record, colIndex, lineNum))
	}
	return cards, nil
}

// parseRecord converts a CSV record to a RawCard.
func (p *CSVParser) parseRecord(record []string, colIndex map[string]int, lineNum int) RawCard {
	card := RawCard{
		Front:   getColumn(record, colIndex, "front"),
		Back:    getColumn(record, colIndex, "back"),
		LineNum: lineNum,
	}
	for name, idx := range colIndex {
		if name == "front" || name == "back" || name == "" || idx >= len(record) {
			continue
		}
		if card.Extra == nil {
			card.Extra = make(map[string]string)
		}
		card.Extra[name] = record[idx]
	}
	return card
}

// getColumn safely retrieves a column value from a record.
func getColumn(record []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(record) {
		return record[idx]
	}
	return ""
}
