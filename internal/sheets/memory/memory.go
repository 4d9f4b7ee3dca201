package memory

import (
	"context"
	"fmt"
	"sync"

	"groupledger/internal/sheets"
)

// Sheet is an in-memory export target. It keeps the last table written.
type Sheet struct {
	mu     sync.Mutex
	name   string
	header []string
	rows   [][]any
	writes int
}

var _ sheets.RowWriter = (*Sheet)(nil)

func New(name string) *Sheet {
	if name == "" {
		name = "Ledger"
	}
	return &Sheet{name: name}
}

// WriteRows replaces the stored table and returns a synthetic range reference.
func (s *Sheet) WriteRows(_ context.Context, header []string, rows [][]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.header = append([]string(nil), header...)
	s.rows = make([][]any, len(rows))
	for i, r := range rows {
		s.rows[i] = append([]any(nil), r...)
	}
	s.writes++
	return fmt.Sprintf("mem:%s!A1:%s%d", s.name, sheets.ColumnName(len(header)), len(rows)+1), nil
}

// Table returns copies of the last header and rows written.
func (s *Sheet) Table() ([]string, [][]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	header := append([]string(nil), s.header...)
	rows := make([][]any, len(s.rows))
	for i, r := range s.rows {
		rows[i] = append([]any(nil), r...)
	}
	return header, rows
}

// Writes returns how many times the sheet was rewritten.
func (s *Sheet) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
