package leads

import (
	"strings"

	"github.com/google/uuid"
)

// minCells is the fewest cells a row may carry and still be accepted. The
// backend sometimes omits the trailing optional columns (rating, maps URL),
// so rows with 5 or 6 cells are kept and missing columns become empty.
const minCells = 5

// ParseTable converts a raw backend reply into records. The reply is
// expected to be a markdown table but often arrives with leading or
// trailing commentary, an inexactly phrased header, or short rows;
// parsing is tolerant of all of that. "No recognizable rows" is a valid
// empty result, not an error: from text alone a garbled reply is
// indistinguishable from a well-formed "nothing found" one.
func ParseTable(text string) []Business {
	var records []Business
	headerSeen := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "|") {
			continue
		}

		// The |---|---| separator also marks that the header is behind us.
		if isSeparatorRow(trimmed) {
			headerSeen = true
			continue
		}

		// Before the separator, guess the header by keyword: the backend
		// does not always phrase column titles exactly.
		if !headerSeen {
			lower := strings.ToLower(trimmed)
			if strings.Contains(lower, "name") && strings.Contains(lower, "phone") {
				headerSeen = true
				continue
			}
		}

		cells := splitRow(trimmed)
		if len(cells) < minCells {
			// Deliberate leniency: short rows are dropped, not reported.
			continue
		}

		records = append(records, Business{
			ID:      uuid.New().String(),
			Name:    NormalizeCell(cell(cells, 0)),
			Phone:   NormalizeCell(cell(cells, 1)),
			Email:   NormalizeCell(cell(cells, 2)),
			Address: NormalizeCell(cell(cells, 3)),
			Website: NormalizeURL(cell(cells, 4)),
			Rating:  NormalizeCell(cell(cells, 5)),
			MapsURL: NormalizeURL(cell(cells, 6)),
		})
	}

	return records
}

// isSeparatorRow reports whether a trimmed table line is the header
// separator, i.e. composed only of pipes, dashes, colons and spaces.
func isSeparatorRow(trimmed string) bool {
	if !strings.Contains(trimmed, "---") {
		return false
	}
	for _, r := range trimmed {
		switch r {
		case '|', '-', ':', ' ':
		default:
			return false
		}
	}
	return true
}

// splitRow splits a table line on pipes, trims each cell, and discards
// only the artifact empties produced by the leading/trailing pipe.
// Interior empty cells are meaningful missing values and are kept.
func splitRow(trimmed string) []string {
	parts := strings.Split(trimmed, "|")
	cells := make([]string, 0, len(parts))
	for i, p := range parts {
		c := strings.TrimSpace(p)
		if c == "" && (i == 0 || i == len(parts)-1) {
			continue
		}
		cells = append(cells, c)
	}
	return cells
}

func cell(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}
