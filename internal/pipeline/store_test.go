package pipeline_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/couchcryptid/fault-render-etl/internal/domain"
	"github.com/couchcryptid/fault-render-etl/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// markedDataset builds a dataset whose every station carries the same marker,
// so a reader can tell whether it observed a consistent snapshot.
func markedDataset(slot domain.Slot, marker int, stations int) *domain.ProjectedDataset {
	ds := &domain.ProjectedDataset{
		ID:       fmt.Sprintf("slot%d-%d", slot, marker),
		Slot:     slot,
		Folder:   fmt.Sprintf("run-%d", marker),
		Stations: make([]domain.ProjectedStation, stations),
	}
	for i := range ds.Stations {
		ds.Stations[i].Lon = float64(marker)
	}
	return ds
}

func TestStore_GetReplace(t *testing.T) {
	store := pipeline.NewStore()

	_, err := store.Get(domain.SlotOne)
	require.ErrorIs(t, err, domain.ErrSlotEmpty)

	first := markedDataset(domain.SlotOne, 1, 1)
	prev, err := store.Replace(first)
	require.NoError(t, err)
	assert.Nil(t, prev)

	got, err := store.Get(domain.SlotOne)
	require.NoError(t, err)
	assert.Same(t, first, got)

	second := markedDataset(domain.SlotOne, 2, 1)
	prev, err = store.Replace(second)
	require.NoError(t, err)
	assert.Same(t, first, prev)

	_, err = store.Get(domain.SlotTwo)
	require.ErrorIs(t, err, domain.ErrSlotEmpty, "slots are independent")
}

func TestStore_UnknownSlot(t *testing.T) {
	store := pipeline.NewStore()

	_, err := store.Get(domain.Slot(0))
	require.ErrorIs(t, err, domain.ErrUnknownSlot)

	_, err = store.Replace(&domain.ProjectedDataset{Slot: 3})
	require.ErrorIs(t, err, domain.ErrUnknownSlot)

	_, err = store.Replace(nil)
	require.Error(t, err)
}

func TestStore_CheckReadiness(t *testing.T) {
	store := pipeline.NewStore()
	require.Error(t, store.CheckReadiness(context.Background()))

	_, err := store.Replace(markedDataset(domain.SlotTwo, 1, 0))
	require.NoError(t, err)
	assert.NoError(t, store.CheckReadiness(context.Background()))
}

func TestStore_ReadersNeverSeeMixedDatasets(t *testing.T) {
	store := pipeline.NewStore()
	_, err := store.Replace(markedDataset(domain.SlotOne, 0, 50))
	require.NoError(t, err)

	const writes = 200
	var wg sync.WaitGroup
	done := make(chan struct{})

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				ds, err := store.Get(domain.SlotOne)
				if !assert.NoError(t, err) {
					return
				}
				marker := ds.Stations[0].Lon
				for _, s := range ds.Stations {
					if !assert.Equal(t, marker, s.Lon, "dataset %s mixes snapshots", ds.ID) {
						return
					}
				}
			}
		}()
	}

	for i := 1; i <= writes; i++ {
		_, err := store.Replace(markedDataset(domain.SlotOne, i, 50))
		require.NoError(t, err)
	}
	close(done)
	wg.Wait()

	got, err := store.Get(domain.SlotOne)
	require.NoError(t, err)
	assert.Equal(t, float64(writes), got.Stations[0].Lon)
}
