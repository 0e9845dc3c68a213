package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/couchcryptid/fault-render-etl/internal/domain"
)

// Store holds the current dataset of each folder slot. Replace swaps the whole
// dataset pointer, so readers see either the previous or the next dataset and
// never a partially built one. Datasets are treated as immutable once stored.
type Store struct {
	slots [2]atomic.Pointer[domain.ProjectedDataset]
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current dataset of slot.
func (s *Store) Get(slot domain.Slot) (*domain.ProjectedDataset, error) {
	if !slot.Valid() {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownSlot, slot)
	}
	ds := s.slots[slot.Index()].Load()
	if ds == nil {
		return nil, fmt.Errorf("%w %d", domain.ErrSlotEmpty, slot)
	}
	return ds, nil
}

// Replace installs ds as the dataset of its slot and returns the previous one (nil if none).
func (s *Store) Replace(ds *domain.ProjectedDataset) (*domain.ProjectedDataset, error) {
	if ds == nil {
		return nil, errors.New("replace slot: nil dataset")
	}
	if !ds.Slot.Valid() {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownSlot, ds.Slot)
	}
	return s.slots[ds.Slot.Index()].Swap(ds), nil
}

// CheckReadiness returns nil once any slot holds a dataset.
func (s *Store) CheckReadiness(_ context.Context) error {
	for i := range s.slots {
		if s.slots[i].Load() != nil {
			return nil
		}
	}
	return errors.New("no dataset has been loaded yet")
}
