package spreadsheet

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"chalet_booking/internal/domain"
)

// metaRows is the number of leading rows (title and legend) every
// availability workbook carries before the node-id header.
const metaRows = 2

// unavailableMark blocks a date when a cell holds exactly this letter after
// trimming, in either case.
const unavailableMark = "X"

// Grid is the raw cell matrix of an availability sheet, row-major, as
// produced by ReadWorkbook. Short rows are treated as padded with blanks.
type Grid [][]string

// Parsed is the outcome of walking a grid: the node columns seen in the
// header and the contiguous blocked runs found under them.
type Parsed struct {
	Nodes       []string // node ids in header column order
	Ranges      []domain.BlockedRange
	SkippedRows int // data rows dropped for a non-numeric date cell
}

type column struct {
	node string
	idx  int
}

// ParseGrid turns a day-by-node availability grid into half-open blocked
// ranges per node. The layout is fixed: metaRows leading rows are ignored,
// the next row is a header with node identifiers from column 1 onward, and
// each following row is one calendar date: an Excel serial in column 0 and
// per-node occupancy marks in the node columns.
//
// Rows whose date cell is not numeric are skipped rather than aborting the
// batch; columns with a blank header are ignored. A run still open at the
// bottom of the sheet closes on the day after the last valid date. The whole
// grid is rejected with ErrMalformedSheet when fewer than two rows remain
// after the metadata skip, so a structurally broken file never emits
// partial data.
func ParseGrid(grid Grid) (Parsed, error) {
	if len(grid) < metaRows+2 {
		return Parsed{}, fmt.Errorf("%w: need a header row and at least one date row after %d metadata rows, got %d rows",
			domain.ErrMalformedSheet, metaRows, len(grid))
	}
	rows := grid[metaRows:]

	header := rows[0]
	var cols []column
	for i := 1; i < len(header); i++ {
		node := strings.TrimSpace(header[i])
		if node == "" {
			continue
		}
		cols = append(cols, column{node: node, idx: i})
	}

	out := Parsed{}
	for _, c := range cols {
		out.Nodes = append(out.Nodes, c.node)
	}

	// Decode the date column once; marks are then read per node column.
	type day struct {
		date  time.Time
		cells []string
	}
	var days []day
	for _, row := range rows[1:] {
		var dateCell string
		if len(row) > 0 {
			dateCell = strings.TrimSpace(row[0])
		}
		serial, err := strconv.ParseFloat(dateCell, 64)
		if err != nil {
			out.SkippedRows++
			continue
		}
		days = append(days, day{date: DateFromSerial(serial), cells: row})
	}
	if len(days) == 0 {
		return out, nil
	}

	cellAt := func(d day, idx int) string {
		if idx < len(d.cells) {
			return d.cells[idx]
		}
		return ""
	}

	for _, c := range cols {
		var blockStart *time.Time
		for _, d := range days {
			unavailable := strings.EqualFold(strings.TrimSpace(cellAt(d, c.idx)), unavailableMark)
			if unavailable {
				if blockStart == nil {
					start := d.date
					blockStart = &start
				}
				continue
			}
			if blockStart != nil {
				// End is exclusive: the first free day closes the run.
				out.Ranges = append(out.Ranges, domain.BlockedRange{
					NodeID: c.node,
					Start:  *blockStart,
					End:    d.date,
				})
				blockStart = nil
			}
		}
		if blockStart != nil {
			out.Ranges = append(out.Ranges, domain.BlockedRange{
				NodeID: c.node,
				Start:  *blockStart,
				End:    days[len(days)-1].date.AddDate(0, 0, 1),
			})
		}
	}
	return out, nil
}
