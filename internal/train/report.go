package train

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Report renders a training result as a markdown progress table: one row
// per validation event, one column per metric score, padded to display
// width so the table reads cleanly in a terminal.
func Report(result *Result) string {
	if len(result.Validations) == 0 {
		return "no validations recorded\n"
	}

	columns := scoreColumns(result.Validations[0].Scores)
	header := append([]string{"step", "loss"}, columns...)

	var table [][]string

	table = append(table, header)

	for _, validation := range result.Validations {
		row := []string{
			fmt.Sprintf("%d", validation.Step),
			fmt.Sprintf("%.4f", validation.Loss),
		}

		for _, column := range columns {
			row = append(row, formatScore(validation.Scores, column))
		}

		table = append(table, row)
	}

	var sb strings.Builder

	sb.WriteString(renderTable(table))

	if result.LastScores != nil {
		sb.WriteString("\nfinal checkpoint scores\n")

		final := [][]string{header[2:]}

		row := make([]string, 0, len(columns))
		for _, column := range columns {
			row = append(row, formatScore(result.LastScores, column))
		}

		final = append(final, row)
		sb.WriteString(renderTable(final))
	}

	return sb.String()
}

// scoreColumns flattens nested metric scores into "metric/key" column
// names with a stable order.
func scoreColumns(scores map[string]map[string]float64) []string {
	var columns []string

	for metric, values := range scores {
		for key := range values {
			columns = append(columns, metric+"/"+key)
		}
	}

	sort.Strings(columns)

	return columns
}

func formatScore(scores map[string]map[string]float64, column string) string {
	metric, key, found := strings.Cut(column, "/")
	if !found {
		return ""
	}

	values, ok := scores[metric]
	if !ok {
		return ""
	}

	return fmt.Sprintf("%.4f", values[key])
}

// renderTable lays out rows as a markdown table, padding each cell to
// the widest display width of its column.
func renderTable(table [][]string) string {
	if len(table) == 0 {
		return ""
	}

	colCount := len(table[0])
	colWidths := make([]int, colCount)

	for _, row := range table {
		for i := 0; i < len(row) && i < colCount; i++ {
			width := runewidth.StringWidth(row[i])
			if width > colWidths[i] {
				colWidths[i] = width
			}
		}
	}

	for i := range colWidths {
		if colWidths[i] < 3 {
			colWidths[i] = 3
		}
	}

	var sb strings.Builder

	for rIdx, row := range table {
		sb.WriteString("|")

		for j := 0; j < colCount; j++ {
			sb.WriteString(" ")

			content := ""
			if j < len(row) {
				content = row[j]
			}

			sb.WriteString(content)

			padding := colWidths[j] - runewidth.StringWidth(content)
			if padding > 0 {
				sb.WriteString(strings.Repeat(" ", padding))
			}

			sb.WriteString(" |")
		}

		sb.WriteString("\n")

		// Separator under the header row.
		if rIdx == 0 {
			sb.WriteString("|")

			for j := 0; j < colCount; j++ {
				sb.WriteString(" ")
				sb.WriteString(strings.Repeat("-", colWidths[j]))
				sb.WriteString(" |")
			}

			sb.WriteString("\n")
		}
	}

	return sb.String()
}
