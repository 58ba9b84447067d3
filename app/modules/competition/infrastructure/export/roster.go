// Package competitionexport renders round rosters as spreadsheets for
// organizers to print or share.
package competitionexport

import (
	"bytes"
	"fmt"
	"strconv"

	competitiondb "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/repositories"
	"github.com/xuri/excelize/v2"
)

const (
	// SheetName is the worksheet holding the roster.
	SheetName = "Roster"
	// ContentType is the media type of the rendered workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// RosterRow is one competitor line of an exported roster.
type RosterRow struct {
	Position *int
	UserID   string
	Solves   []int
}

// Roster renders the results of a round, in the order given, as an XLSX workbook.
func Roster(round *competitiondb.Round, results []*competitiondb.Result) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("failed to name roster sheet: %w", err)
	}

	solveColumns := 0
	for _, res := range results {
		solveColumns = max(solveColumns, len(res.Solves))
	}

	header := []any{"Position", "Competitor"}
	for i := range solveColumns {
		header = append(header, "Solve "+strconv.Itoa(i+1))
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write roster header: %w", err)
	}

	for i, res := range results {
		row := make([]any, 0, 2+len(res.Solves))
		if res.Position != nil {
			row = append(row, *res.Position)
		} else {
			row = append(row, "")
		}
		row = append(row, res.UserID)
		for _, solve := range res.Solves {
			row = append(row, solve)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write roster row %d: %w", i+1, err)
		}
	}

	title := round.Title
	if round.IsEventRound() {
		title = fmt.Sprintf("%s round %d (%s)", round.Event(), round.NthRound+1, round.RoundCode)
	}
	if err := f.SetDocProps(&excelize.DocProperties{Title: title, Creator: "comp-rounds"}); err != nil {
		return nil, fmt.Errorf("failed to set roster properties: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render roster: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadRoster parses a workbook produced by Roster.
func ReadRoster(data []byte) ([]RosterRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", SheetName, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", SheetName)
	}

	out := make([]RosterRow, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		if len(cells) < 2 {
			return nil, fmt.Errorf("row %d: expected position and competitor", i+2)
		}
		row := RosterRow{UserID: cells[1]}
		if cells[0] != "" {
			p, err := strconv.Atoi(cells[0])
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid position %q", i+2, cells[0])
			}
			row.Position = &p
		}
		for _, cell := range cells[2:] {
			solve, err := strconv.Atoi(cell)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid solve %q", i+2, cell)
			}
			row.Solves = append(row.Solves, solve)
		}
		out = append(out, row)
	}
	return out, nil
}
