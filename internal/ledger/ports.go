package ledger

import (
	"context"
	"errors"

	"groupledger/internal/core"
)

// Ports for the storage collaborator.
type (
	// Store persists records. Create assigns ID and Timestamp and always
	// starts the record unpaid.
	Store interface {
		Create(ctx context.Context, in core.Input) (core.Record, error)
		Update(ctx context.Context, id string, p core.Patch) error
		Delete(ctx context.Context, id string) error
		List(ctx context.Context) ([]core.Record, error)
	}

	// Feed delivers a full snapshot on subscribe and after every change.
	// The channel is closed once ctx is done or the feed fails.
	Feed interface {
		Subscribe(ctx context.Context) (<-chan core.Snapshot, error)
	}
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrRecordSettled  = errors.New("record already settled")
	ErrFeedClosed     = errors.New("snapshot feed closed")
)
