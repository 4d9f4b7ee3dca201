// Package csvfile writes the export table as a CSV file.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"groupledger/internal/sheets"
)

// File rewrites the CSV at Path on every export. "-" writes to Out instead.
type File struct {
	Path string
	Out  io.Writer
}

var _ sheets.RowWriter = (*File)(nil)

func New(path string) *File {
	return &File{Path: path, Out: os.Stdout}
}

func (f *File) WriteRows(ctx context.Context, header []string, rows [][]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Path == "" || f.Path == "-" {
		if err := writeCSV(f.Out, header, rows); err != nil {
			return "", err
		}
		return "-", nil
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".export-*.csv")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeCSV(tmp, header, rows); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return "", fmt.Errorf("replace %s: %w", f.Path, err)
	}
	return f.Path, nil
}

func writeCSV(w io.Writer, header []string, rows [][]any) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, 0, len(header))
	for _, row := range rows {
		record = record[:0]
		for _, cell := range row {
			record = append(record, cellString(cell))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
