package tracking

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitetrack-service/internal/domain"
)

func TestRegistryUpsertKeepsLatestPerDriver(t *testing.T) {
	r := NewRegistry()

	r.Upsert("D1", domain.TrackedVehicle{Latitude: 1, Status: domain.StatusEnRoute})
	r.Upsert("D2", domain.TrackedVehicle{Latitude: 2, Status: domain.StatusEnRoute})
	r.Upsert("D1", domain.TrackedVehicle{Latitude: 3, Status: domain.StatusDeviation})

	snap := r.Snapshot()
	require.Len(t, snap, 2)

	byID := map[string]domain.TrackedVehicle{}
	for _, v := range snap {
		_, dup := byID[v.DriverID]
		require.False(t, dup, "duplicate entry for %s", v.DriverID)
		byID[v.DriverID] = v
	}

	assert.Equal(t, 3.0, byID["D1"].Latitude)
	assert.Equal(t, domain.StatusDeviation, byID["D1"].Status)
	assert.Equal(t, 2.0, byID["D2"].Latitude)
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	r.Upsert("D1", domain.TrackedVehicle{})

	assert.True(t, r.Remove("D1"))
	assert.False(t, r.Remove("D1"))

	for _, v := range r.Snapshot() {
		assert.NotEqual(t, "D1", v.DriverID)
	}
	_, ok := r.Get("D1")
	assert.False(t, ok)
}

func TestRegistrySnapshotIsACopy(t *testing.T) {
	r := NewRegistry()
	r.Upsert("D1", domain.TrackedVehicle{Alerts: []domain.Alert{{ID: "a1"}}})

	snap := r.Snapshot()
	snap[0].Alerts[0].ID = "mutated"
	snap[0].Latitude = 99

	v, ok := r.Get("D1")
	require.True(t, ok)
	assert.Equal(t, "a1", v.Alerts[0].ID)
	assert.Equal(t, 0.0, v.Latitude)
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("D%d", i%10)
			for j := 0; j < 100; j++ {
				r.Upsert(id, domain.TrackedVehicle{Speed: float64(j)})
				_ = r.Snapshot()
				if j%25 == 0 {
					r.Remove(id)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, r.Len(), 10)
}
