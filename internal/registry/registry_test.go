package registry

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quakepredict/quakepredict-go/internal/datastore"
)

func TestListReturnsFullCatalog(t *testing.T) {
	t.Parallel()

	reg := New()
	regions := reg.List()

	assert.Len(t, regions, 20)
	assert.Equal(t, reg.Len(), len(regions))

	names := make(map[string]bool, len(regions))
	for _, r := range regions {
		names[r.Name] = true
		assert.NotEmpty(t, r.Province, "region %s has no province", r.Name)
		assert.NotZero(t, r.Latitude, "region %s has no latitude", r.Name)
		assert.NotZero(t, r.Longitude, "region %s has no longitude", r.Name)
	}
	assert.Len(t, names, 20, "region names must be unique")
}

func TestListReturnsCopy(t *testing.T) {
	t.Parallel()

	reg := New()
	regions := reg.List()
	regions[0].Name = "mutated"

	fresh := reg.List()
	assert.NotEqual(t, "mutated", fresh[0].Name)
}

func TestListByNameIsSorted(t *testing.T) {
	t.Parallel()

	reg := New()
	regions := reg.ListByName()
	require.Len(t, regions, reg.Len())

	names := make([]string, len(regions))
	for i := range regions {
		names[i] = regions[i].Name
	}
	assert.True(t, sort.StringsAreSorted(names), "got %v", names)
}

func TestFind(t *testing.T) {
	t.Parallel()

	reg := New()

	quito, err := reg.Find("Quito")
	require.NoError(t, err)
	assert.Equal(t, "Pichincha", quito.Province)
	assert.InDelta(t, -0.2299, quito.Latitude, 1e-9)
	assert.InDelta(t, -78.5249, quito.Longitude, 1e-9)

	_, err = reg.Find("Atlantis")
	assert.ErrorIs(t, err, ErrRegionNotFound)
}

// recordingStore captures upserted regions.
type recordingStore struct {
	datastore.Interface
	upserted []datastore.Region
}

func (r *recordingStore) UpsertRegion(region *datastore.Region) error {
	r.upserted = append(r.upserted, *region)
	return nil
}

func TestReconcileUpsertsEveryRegion(t *testing.T) {
	t.Parallel()

	reg := New()
	store := &recordingStore{}
	require.NoError(t, reg.Reconcile(store))

	assert.Len(t, store.upserted, reg.Len())
	assert.Equal(t, "Esmeraldas", store.upserted[0].Name)
}
