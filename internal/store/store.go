package store

import (
	"context"

	"github.com/SamuelRomaoF/lanchonete-oficial/internal/domain"
	"github.com/SamuelRomaoF/lanchonete-oficial/internal/sequencer"
)

// Store persists the full QueueState snapshot. Save must be atomic with
// respect to any concurrent Load: a reader observes either the previous
// snapshot or the new one, never a torn write. Load never fails on a
// missing or unreadable snapshot; it self-heals to a fresh state so a
// cold start (or a corrupted artifact) cannot take order intake down.
type Store interface {
	Load(ctx context.Context) (domain.QueueState, error)
	Save(ctx context.Context, st domain.QueueState) error

	// Archive moves finished orders out of the live queue on day reset.
	// date is the business day being closed (YYYY-MM-DD).
	Archive(ctx context.Context, date string, orders []domain.Order) error
}

// Fresh is the state a brand-new queue starts from.
func Fresh() domain.QueueState {
	return domain.QueueState{
		Orders:        []domain.Order{},
		CurrentPrefix: sequencer.DefaultPrefix,
		CurrentNumber: 1,
	}
}
