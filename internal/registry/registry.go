// Package registry holds the static catalog of monitored regions.
package registry

import (
	"log/slog"
	"sort"

	"github.com/quakepredict/quakepredict-go/internal/datastore"
	"github.com/quakepredict/quakepredict-go/internal/errors"
	"github.com/quakepredict/quakepredict-go/internal/logging"
)

// Region is a monitored administrative area with fixed geodetic coordinates,
// the unit of risk assessment.
type Region struct {
	Name      string  `json:"name"`
	Province  string  `json:"province"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// ErrRegionNotFound is returned by Find for unknown region names.
var ErrRegionNotFound = errors.Newf("region not found in registry").
	Component("registry").
	Category(errors.CategoryNotFound).
	Build()

// monitoredRegions is the fixed list of Ecuadorian cantons covered by the
// risk map, grouped by macro-zone.
var monitoredRegions = []Region{
	// Costa
	{Name: "Esmeraldas", Province: "Esmeraldas", Latitude: 0.9682, Longitude: -79.6517},
	{Name: "Atacames", Province: "Esmeraldas", Latitude: 0.8667, Longitude: -79.8333},
	{Name: "Muisne", Province: "Esmeraldas", Latitude: 0.6000, Longitude: -80.0167},
	{Name: "Pedernales", Province: "Manabí", Latitude: 0.0718, Longitude: -80.0532},
	{Name: "Manta", Province: "Manabí", Latitude: -0.9538, Longitude: -80.7208},
	{Name: "Portoviejo", Province: "Manabí", Latitude: -1.0546, Longitude: -80.4544},
	{Name: "Puerto López", Province: "Manabí", Latitude: -1.5542, Longitude: -80.8115},
	{Name: "Guayaquil", Province: "Guayas", Latitude: -2.1709, Longitude: -79.9223},
	{Name: "Salinas", Province: "Santa Elena", Latitude: -2.2145, Longitude: -80.9515},
	{Name: "Machala", Province: "El Oro", Latitude: -3.2586, Longitude: -79.9605},

	// Sierra
	{Name: "Quito", Province: "Pichincha", Latitude: -0.2299, Longitude: -78.5249},
	{Name: "Latacunga", Province: "Cotopaxi", Latitude: -0.9352, Longitude: -78.6155},
	{Name: "Ambato", Province: "Tungurahua", Latitude: -1.2491, Longitude: -78.6168},
	{Name: "Riobamba", Province: "Chimborazo", Latitude: -1.6635, Longitude: -78.6546},
	{Name: "Cuenca", Province: "Azuay", Latitude: -2.9001, Longitude: -79.0059},
	{Name: "Tulcán", Province: "Carchi", Latitude: 0.8119, Longitude: -77.7173},
	{Name: "Loja", Province: "Loja", Latitude: -3.9931, Longitude: -79.2042},

	// Oriente
	{Name: "Puyo", Province: "Pastaza", Latitude: -1.4924, Longitude: -77.9992},
	{Name: "Tena", Province: "Napo", Latitude: -0.9938, Longitude: -77.8129},
	{Name: "Nueva Loja", Province: "Sucumbíos", Latitude: 0.0847, Longitude: -76.8828},
}

// Registry provides read access to the monitored region catalog.
type Registry struct {
	regions []Region
	byName  map[string]Region
	logger  *slog.Logger
}

// New builds a registry from the fixed region list.
func New() *Registry {
	byName := make(map[string]Region, len(monitoredRegions))
	for _, r := range monitoredRegions {
		byName[r.Name] = r
	}
	return &Registry{
		regions: monitoredRegions,
		byName:  byName,
		logger:  logging.ForService("registry"),
	}
}

// List returns all monitored regions in catalog order.
func (r *Registry) List() []Region {
	out := make([]Region, len(r.regions))
	copy(out, r.regions)
	return out
}

// ListByName returns all monitored regions sorted by name, matching the
// ordering of the persistent region table.
func (r *Registry) ListByName() []Region {
	out := r.List()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Find returns the region with the given name, or ErrRegionNotFound.
func (r *Registry) Find(name string) (Region, error) {
	region, ok := r.byName[name]
	if !ok {
		return Region{}, ErrRegionNotFound
	}
	return region, nil
}

// Len returns the number of monitored regions.
func (r *Registry) Len() int {
	return len(r.regions)
}

// Reconcile upserts the catalog into the persistent region table, refreshing
// province and coordinates for rows that already exist.
func (r *Registry) Reconcile(ds datastore.Interface) error {
	for i := range r.regions {
		region := &r.regions[i]
		err := ds.UpsertRegion(&datastore.Region{
			Name:      region.Name,
			Province:  region.Province,
			Latitude:  region.Latitude,
			Longitude: region.Longitude,
		})
		if err != nil {
			return err
		}
	}
	if r.logger != nil {
		r.logger.Info("Region catalog reconciled", "regions", len(r.regions))
	}
	return nil
}
