package spreadsheet_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/xuri/excelize/v2"

	"chalet_booking/internal/adapters/spreadsheet"
)

func TestReadWorkbook_RoundTripsThroughParser(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	// Two metadata rows, header, three date rows with node "A" blocked on
	// the middle day.
	_ = f.SetCellStr(sheet, "A1", "Disponibilidad")
	_ = f.SetCellStr(sheet, "A2", "X = ocupado")
	_ = f.SetCellStr(sheet, "B3", "A")
	for i := 0; i < 3; i++ {
		_ = f.SetCellInt(sheet, fmt.Sprintf("A%d", 4+i), int(baseSerial)+i)
	}
	_ = f.SetCellStr(sheet, "B5", "X")

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	grid, err := spreadsheet.ReadWorkbook(&buf)
	if err != nil {
		t.Fatalf("ReadWorkbook: %v", err)
	}
	parsed, err := spreadsheet.ParseGrid(grid)
	if err != nil {
		t.Fatalf("ParseGrid: %v", err)
	}
	if len(parsed.Ranges) != 1 {
		t.Fatalf("expected 1 range, got %+v", parsed.Ranges)
	}
	r := parsed.Ranges[0]
	if r.NodeID != "A" || !r.Start.Equal(gridDate(1)) || !r.End.Equal(gridDate(2)) {
		t.Fatalf("unexpected range: %+v", r)
	}
}
