package sheets

import "context"

// Ports for outbound export adapters.
type (
	// RowWriter replaces the contents of an export target with a header row
	// followed by rows. The returned reference identifies what was written.
	RowWriter interface {
		WriteRows(ctx context.Context, header []string, rows [][]any) (ref string, err error)
	}
)
