package spreadsheet

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
)

// ReadWorkbook extracts the cell grid of the first sheet of an .xlsx stream.
// Cells are read raw, so date cells come back as their serial numbers rather
// than locale-formatted strings.
func ReadWorkbook(r io.Reader) (Grid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return Grid(rows), nil
}

// OpenWorkbook reads the grid of the first sheet of an .xlsx file on disk.
func OpenWorkbook(path string) (Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadWorkbook(f)
}
