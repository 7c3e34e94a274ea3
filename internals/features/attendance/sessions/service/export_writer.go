// file: internals/features/attendance/sessions/service/export_writer.go
package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"absensiku_backend/internals/helpers/apperror"

	"github.com/xuri/excelize/v2"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	xlsxSheet = "Attendance"
)

// RowWriter menulis tabel export baris demi baris. Close wajib dipanggil
// (termasuk saat error) supaya resource writer dilepas.
type RowWriter interface {
	WriteHeader(cols []string) error
	WriteRow(values []string) error
	Close() error
}

// NormalizeFormat: "" → csv; format lain di luar csv/xlsx ditolak.
func NormalizeFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", apperror.Validation("unsupported export format %q", format)
	}
}

func ContentType(format string) string {
	if format == FormatXLSX {
		return ContentTypeXLSX
	}
	return ContentTypeCSV
}

func NewRowWriter(format string, w io.Writer) (RowWriter, error) {
	f, err := NormalizeFormat(format)
	if err != nil {
		return nil, err
	}
	if f == FormatXLSX {
		return newXLSXWriter(w)
	}
	return &csvWriter{w: csv.NewWriter(w)}, nil
}

/* ===================== CSV ===================== */

type csvWriter struct {
	w *csv.Writer
}

func (c *csvWriter) WriteHeader(cols []string) error { return c.w.Write(cols) }

func (c *csvWriter) WriteRow(values []string) error {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = escapeFormula(v)
	}
	if err := c.w.Write(out); err != nil {
		return err
	}
	// flush per baris: data langsung mengalir ke client
	c.w.Flush()
	return c.w.Error()
}

func (c *csvWriter) Close() error {
	c.w.Flush()
	return c.w.Error()
}

// escapeFormula mencegah sel dibaca sebagai rumus oleh spreadsheet.
func escapeFormula(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + v
	}
	return v
}

/* ===================== XLSX ===================== */

type xlsxWriter struct {
	out  io.Writer
	file *excelize.File
	sw   *excelize.StreamWriter
	row  int
}

func newXLSXWriter(out io.Writer) (*xlsxWriter, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("xlsx rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(xlsxSheet)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("xlsx stream writer: %w", err)
	}
	return &xlsxWriter{out: out, file: f, sw: sw}, nil
}

func (x *xlsxWriter) WriteHeader(cols []string) error { return x.WriteRow(cols) }

func (x *xlsxWriter) WriteRow(values []string) error {
	x.row++
	cell, err := excelize.CoordinatesToCellName(1, x.row)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return x.sw.SetRow(cell, row)
}

// Close flush stream ke workbook lalu tulis workbook ke out.
func (x *xlsxWriter) Close() error {
	defer x.file.Close()
	if err := x.sw.Flush(); err != nil {
		return fmt.Errorf("xlsx flush: %w", err)
	}
	if err := x.file.Write(x.out); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
