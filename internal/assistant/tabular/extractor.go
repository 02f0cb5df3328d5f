// Package tabular pulls a pipe-delimited table out of free-form answer
// text. The upstream text is generated by a third-party system, so the
// parse is deliberately lenient: malformed fragments degrade to prose
// instead of failing.
package tabular

import "strings"

// Table is a parsed pipe-delimited grid. Every row has exactly
// len(Headers) cells; rows with a different cell count were dropped.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Extract scans text for the first contiguous block of pipe-delimited
// lines. On success it returns the parsed table and the text with that
// block removed. When no usable table exists (no block, header only, or
// every data row ragged) it returns nil and the text unchanged.
func Extract(text string) (*Table, string) {
	lines := strings.Split(text, "\n")

	start, end := findTableBlock(lines)
	if start < 0 {
		return nil, text
	}

	block := lines[start:end]

	var cellRows [][]string
	for _, line := range block {
		if isSeparatorLine(line) {
			continue
		}
		cellRows = append(cellRows, splitCells(line))
	}

	if len(cellRows) < 2 {
		return nil, text
	}

	headers := cellRows[0]
	var rows [][]string
	for _, row := range cellRows[1:] {
		if len(row) != len(headers) {
			// Ragged row, drop it rather than fail the whole parse.
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, text
	}

	remainder := strings.Join(append(append([]string{}, lines[:start]...), lines[end:]...), "\n")

	return &Table{Headers: headers, Rows: rows}, remainder
}

// findTableBlock returns the [start, end) bounds of the first contiguous
// run of table lines, or -1 when none exists. A blank or non-delimited
// line terminates the run.
func findTableBlock(lines []string) (int, int) {
	start := -1
	for i, line := range lines {
		if isTableLine(line) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			return start, i
		}
	}
	if start < 0 {
		return -1, -1
	}
	return start, len(lines)
}

// A table line contains the delimiter and splits into at least 2 non-empty
// cells.
func isTableLine(line string) bool {
	if !strings.Contains(line, "|") {
		return false
	}
	return len(splitCells(line)) >= 2
}

func splitCells(line string) []string {
	var cells []string
	for _, cell := range strings.Split(line, "|") {
		cell = strings.TrimSpace(cell)
		if cell != "" {
			cells = append(cells, cell)
		}
	}
	return cells
}

// The conventional header/body divider: every cell is only '-' characters.
func isSeparatorLine(line string) bool {
	cells := splitCells(line)
	if len(cells) == 0 {
		return false
	}
	for _, cell := range cells {
		if strings.Trim(cell, "-") != "" {
			return false
		}
	}
	return true
}
