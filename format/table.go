// Copyright 2024 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package format

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"zombiezen.com/go/mdformat"
)

// minColumnWidth is the width of the shortest delimiter cell (":-:").
const minColumnWidth = 3

// tableState collects the cells of a table
// so that its columns can be aligned.
type tableState struct {
	alignments []mdformat.Alignment
	// rows holds the formatted cells. The first row is the header.
	rows [][]string
}

func (t *tableState) addCell(b *inlineBuilder) {
	cell := escapeEdges(joinLines(b.layout(softSpace, 0)))
	last := len(t.rows) - 1
	t.rows[last] = append(t.rows[last], cell)
}

// columns returns the number of columns in the table.
func (t *tableState) columns() int {
	n := len(t.alignments)
	if n == 0 && len(t.rows) > 0 {
		n = len(t.rows[0])
	}
	return n
}

func (t *tableState) widths() []int {
	widths := make([]int, t.columns())
	for i := range widths {
		widths[i] = minColumnWidth
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(cell))
			}
		}
	}
	return widths
}

func (t *tableState) alignment(col int) mdformat.Alignment {
	if col < len(t.alignments) {
		return t.alignments[col]
	}
	return mdformat.AlignNone
}

func (r *renderer) writeTable() {
	t := r.table
	if len(t.rows) == 0 {
		return
	}
	widths := t.widths()
	r.writeLine(t.formatRow(t.rows[0], widths))

	delims := make([]string, len(widths))
	for i, w := range widths {
		delims[i] = delimiterCell(t.alignment(i), w)
	}
	r.writeLine("| " + strings.Join(delims, " | ") + " |")

	for _, row := range t.rows[1:] {
		r.writeLine(t.formatRow(row, widths))
	}
}

// formatRow pads or truncates row to the table's columns.
func (t *tableState) formatRow(row []string, widths []int) string {
	cells := make([]string, len(widths))
	for i, w := range widths {
		var cell string
		if i < len(row) {
			cell = row[i]
		}
		cells[i] = padCell(cell, w, t.alignment(i))
	}
	return "| " + strings.Join(cells, " | ") + " |"
}

func padCell(cell string, width int, align mdformat.Alignment) string {
	gap := width - runewidth.StringWidth(cell)
	if gap <= 0 {
		return cell
	}
	switch align {
	case mdformat.AlignRight:
		return strings.Repeat(" ", gap) + cell
	case mdformat.AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + cell + strings.Repeat(" ", gap-left)
	default:
		return cell + strings.Repeat(" ", gap)
	}
}

func delimiterCell(align mdformat.Alignment, width int) string {
	switch align {
	case mdformat.AlignLeft:
		return ":" + strings.Repeat("-", width-1)
	case mdformat.AlignCenter:
		return ":" + strings.Repeat("-", width-2) + ":"
	case mdformat.AlignRight:
		return strings.Repeat("-", width-1) + ":"
	default:
		return strings.Repeat("-", width)
	}
}
