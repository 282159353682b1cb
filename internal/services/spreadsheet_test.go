package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ugel06/registry/internal/store"
	"github.com/xuri/excelize/v2"
)

func TestExportFilename(t *testing.T) {
	got := ExportFilename(time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC))
	if got != "Instituciones_UGEL06_2025-03-07.xlsx" {
		t.Fatalf("filename = %q", got)
	}
}

func TestExportWritesHeaderAndRows(t *testing.T) {
	svc := NewInstitutionService(newBackend(t).Institutions())
	ctx := context.Background()
	for _, nid := range []string{"11111111", "22222222"} {
		if _, err := svc.Create(ctx, validInstitution(nid)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	var buf bytes.Buffer
	n, err := svc.Export(ctx, "", &buf)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n != 2 {
		t.Fatalf("exported %d rows, want 2", n)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != "Instituciones" {
		t.Fatalf("sheets = %v", sheets)
	}
	rows, err := f.GetRows("Instituciones")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0][1] != "Institución Educativa" || rows[0][7] != "Correo Electrónico" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	// Newest first.
	if rows[1][0] != "1" || rows[1][3] != "22222222" || rows[2][3] != "11111111" {
		t.Fatalf("unexpected data rows %v", rows[1:])
	}
}

func TestExportHonoursSearchTerm(t *testing.T) {
	svc := NewInstitutionService(newBackend(t).Institutions())
	ctx := context.Background()
	for _, nid := range []string{"11111111", "22222222"} {
		if _, err := svc.Create(ctx, validInstitution(nid)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	var buf bytes.Buffer
	n, err := svc.Export(ctx, "2222", &buf)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n != 1 {
		t.Fatalf("exported %d rows, want 1", n)
	}
}

func TestImportReportsRowFailures(t *testing.T) {
	svc := NewInstitutionService(newBackend(t).Institutions())

	data := workbook(t, "Hoja1", [][]any{
		{"INSTITUCION EDUCATIVA", "director", "Dni", "SITUACIÓN", "Aula", "Telefono", "Correo"},
		{"I.E. 1192", "María González", "12345678", "Designado", "Con aula a cargo", "987654321", "a@b.edu.pe"},
		{},
		{"I.E. 2000", "Juan Pérez", "1234", "Encargado", "Sin aula a cargo", "987654321", "j@b.edu.pe"},
		{"I.E. 3000", "Rosa Díaz", "12345678", "Encargado", "Sin aula a cargo", "912345678", "r@b.edu.pe"},
		{"I.E. 4000", "Luis Soto", "87654321", "Encargado", "Sin aula a cargo", "912345678", "l@b.edu.pe"},
	})

	result, err := svc.Import(context.Background(), bytes.NewReader(data))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Imported != 2 || result.Failed != 2 {
		t.Fatalf("result = %+v, want 2 imported and 2 failed", result)
	}
	if result.Errors[0].Row != 4 || result.Errors[1].Row != 5 {
		t.Fatalf("unexpected failing rows %+v", result.Errors)
	}
	if result.Errors[1].Error != "national id already registered" {
		t.Fatalf("unexpected conflict message %q", result.Errors[1].Error)
	}
}

func TestImportOfExportCreatesNothing(t *testing.T) {
	svc := NewInstitutionService(newBackend(t).Institutions())
	ctx := context.Background()
	for _, nid := range []string{"11111111", "22222222"} {
		if _, err := svc.Create(ctx, validInstitution(nid)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	var buf bytes.Buffer
	if _, err := svc.Export(ctx, "", &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	result, err := svc.Import(ctx, &buf)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Imported != 0 || result.Failed != 2 {
		t.Fatalf("result = %+v, want every row rejected", result)
	}

	items, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("list length = %d, want 2", len(items))
	}
}

func TestImportRejectsEmptyWorkbook(t *testing.T) {
	svc := NewInstitutionService(newBackend(t).Institutions())

	headerOnly := workbook(t, "Sheet1", [][]any{{"DNI", "Director"}})
	if _, err := svc.Import(context.Background(), bytes.NewReader(headerOnly)); !errors.Is(err, ErrEmptyWorkbook) {
		t.Fatalf("expected empty workbook error, got %v", err)
	}

	unknown := workbook(t, "Sheet1", [][]any{{"foo", "bar"}, {"1", "2"}})
	if _, err := svc.Import(context.Background(), bytes.NewReader(unknown)); !errors.Is(err, ErrEmptyWorkbook) {
		t.Fatalf("expected unrecognised columns error, got %v", err)
	}
}

func TestImportRejectsNonWorkbook(t *testing.T) {
	svc := NewInstitutionService(newBackend(t).Institutions())

	_, err := svc.Import(context.Background(), bytes.NewReader([]byte("not a workbook")))
	if err == nil {
		t.Fatalf("expected error for invalid workbook")
	}
	if store.IsStorageError(err) {
		t.Fatalf("workbook error reported as storage error: %v", err)
	}
}

func workbook(t *testing.T, sheet string, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}
