package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ugel06/registry/internal/store"
	"github.com/ugel06/registry/types"
	"github.com/xuri/excelize/v2"
)

const (
	SpreadsheetContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	exportSheet = "Instituciones"
)

// ErrEmptyWorkbook is returned when an uploaded workbook has no data rows
// or none of the expected columns.
var ErrEmptyWorkbook = errors.New("workbook is empty or has no recognised columns")

type column struct {
	header string
	width  float64
	// aliases are folded header spellings accepted on import.
	aliases []string
}

var exportColumns = []column{
	{header: "N°", width: 5},
	{header: "Institución Educativa", width: 40, aliases: []string{"institucion educativa"}},
	{header: "Director", width: 30, aliases: []string{"director"}},
	{header: "DNI", width: 12, aliases: []string{"dni"}},
	{header: "Situación", width: 15, aliases: []string{"situacion"}},
	{header: "Aula", width: 20, aliases: []string{"aula"}},
	{header: "Teléfono", width: 15, aliases: []string{"telefono"}},
	{header: "Correo Electrónico", width: 35, aliases: []string{"correo electronico", "correo"}},
}

const (
	colName = iota + 1
	colDirector
	colNationalID
	colAppointment
	colClassroom
	colPhone
	colEmail
)

// ExportFilename returns the download name for an export taken at t.
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("Instituciones_UGEL06_%s.xlsx", t.Format("2006-01-02"))
}

// Export writes the institutions matching term as an xlsx workbook.
func (s *InstitutionService) Export(ctx context.Context, term string, w io.Writer) (int, error) {
	institutions, err := s.Search(ctx, term)
	if err != nil {
		return 0, err
	}
	if err := WriteWorkbook(w, institutions); err != nil {
		return 0, err
	}
	return len(institutions), nil
}

// WriteWorkbook renders institutions into a single-sheet workbook.
func WriteWorkbook(w io.Writer, institutions []types.Institution) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return err
	}

	header := make([]any, 0, len(exportColumns))
	for i, col := range exportColumns {
		header = append(header, col.header)
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(exportSheet, name, name, col.width); err != nil {
			return err
		}
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return err
	}

	for i, institution := range institutions {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			i + 1,
			institution.Name,
			institution.DirectorName,
			institution.NationalID,
			string(institution.Appointment),
			string(institution.Classroom),
			institution.Phone,
			institution.Email,
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return err
		}
	}

	return f.Write(w)
}

// RowError describes why one spreadsheet row was not imported.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportResult summarises a bulk import.
type ImportResult struct {
	Imported int        `json:"imported"`
	Failed   int        `json:"failed"`
	Errors   []RowError `json:"errors"`
}

// Import creates one institution per data row of the first sheet of the
// workbook in r. A failing row is recorded and the import continues.
// Storage failures abort the import.
func (s *InstitutionService) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	rows, err := readWorkbook(r)
	if err != nil {
		return ImportResult{}, err
	}

	result := ImportResult{Errors: make([]RowError, 0)}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, err := s.Create(ctx, row.institution); err != nil {
			if store.IsStorageError(err) {
				return result, err
			}
			result.Failed++
			result.Errors = append(result.Errors, RowError{Row: row.number, Error: importErrorMessage(err)})
			continue
		}
		result.Imported++
	}
	return result, nil
}

type workbookRow struct {
	number      int
	institution types.Institution
}

func readWorkbook(r io.Reader) ([]workbookRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}
	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(grid) < 2 {
		return nil, ErrEmptyWorkbook
	}

	index := headerIndex(grid[0])
	if len(index) == 0 {
		return nil, ErrEmptyWorkbook
	}

	rows := make([]workbookRow, 0, len(grid)-1)
	for i, cells := range grid[1:] {
		if isBlankRow(cells) {
			continue
		}
		cell := func(col int) string {
			pos, ok := index[col]
			if !ok || pos >= len(cells) {
				return ""
			}
			return strings.TrimSpace(cells[pos])
		}
		rows = append(rows, workbookRow{
			number: i + 2,
			institution: types.Institution{
				Name:         cell(colName),
				DirectorName: cell(colDirector),
				NationalID:   cell(colNationalID),
				Appointment:  types.AppointmentStatus(cell(colAppointment)),
				Classroom:    types.ClassroomStatus(cell(colClassroom)),
				Phone:        cell(colPhone),
				Email:        cell(colEmail),
			},
		})
	}
	if len(rows) == 0 {
		return nil, ErrEmptyWorkbook
	}
	return rows, nil
}

// headerIndex maps column constants to their position in the header row.
func headerIndex(header []string) map[int]int {
	index := make(map[int]int)
	for pos, raw := range header {
		folded := fold(raw)
		for col, def := range exportColumns {
			for _, alias := range def.aliases {
				if folded == alias {
					if _, seen := index[col]; !seen {
						index[col] = pos
					}
				}
			}
		}
	}
	return index
}

func isBlankRow(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func importErrorMessage(err error) string {
	switch {
	case errors.Is(err, store.ErrConflict):
		return "national id already registered"
	default:
		return err.Error()
	}
}
