package domain

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownRegion is returned when a region ID has no coordinates.
var ErrUnknownRegion = errors.New("unknown region")

// RegionRegistry is an immutable RegionLocator backed by a static table.
type RegionRegistry struct {
	regions map[string]Region
}

// NewRegionRegistry indexes regions by ID.
func NewRegionRegistry(regions ...Region) *RegionRegistry {
	m := make(map[string]Region, len(regions))
	for _, r := range regions {
		m[r.ID] = r
	}
	return &RegionRegistry{regions: m}
}

// Region implements RegionLocator.
func (r *RegionRegistry) Region(regionID string) (Region, error) {
	reg, ok := r.regions[regionID]
	if !ok {
		return Region{}, fmt.Errorf("%w: %q", ErrUnknownRegion, regionID)
	}
	return reg, nil
}

// IDs returns the registered region IDs in sorted order.
func (r *RegionRegistry) IDs() []string {
	ids := make([]string, 0, len(r.regions))
	for id := range r.regions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var defaultRegions = NewRegionRegistry(
	// Southeast
	Region{ID: "indian_river", Name: "Indian River, FL", State: "FL", Lat: 27.6, Lon: -80.4},
	Region{ID: "central_florida", Name: "Central Florida", State: "FL", Lat: 28.5, Lon: -81.4},
	Region{ID: "south_florida", Name: "South Florida", State: "FL", Lat: 25.5, Lon: -80.4},
	Region{ID: "georgia_piedmont", Name: "Georgia Piedmont", State: "GA", Lat: 32.8, Lon: -83.6},
	Region{ID: "georgia_peach", Name: "Georgia Peach Belt", State: "GA", Lat: 32.5, Lon: -83.5},
	// Texas
	Region{ID: "texas_rgv", Name: "Rio Grande Valley, TX", State: "TX", Lat: 26.2, Lon: -98.2},
	Region{ID: "texas_hill_country", Name: "Texas Hill Country", State: "TX", Lat: 30.3, Lon: -98.5},
	// California
	Region{ID: "california_central_valley", Name: "Central Valley, CA", State: "CA", Lat: 36.7, Lon: -119.8},
	Region{ID: "california_coastal", Name: "Central Coast, CA", State: "CA", Lat: 36.9, Lon: -121.8},
	// Pacific Northwest
	Region{ID: "pacific_nw_yakima", Name: "Yakima Valley, WA", State: "WA", Lat: 46.6, Lon: -120.5},
	Region{ID: "pacific_nw_wenatchee", Name: "Wenatchee, WA", State: "WA", Lat: 47.4, Lon: -120.3},
	Region{ID: "pacific_nw_hood_river", Name: "Hood River, OR", State: "OR", Lat: 45.7, Lon: -121.5},
	// Midwest
	Region{ID: "michigan_west", Name: "Traverse City, MI", State: "MI", Lat: 44.8, Lon: -85.6},
	Region{ID: "michigan_southwest", Name: "Southwest Michigan", State: "MI", Lat: 42.0, Lon: -86.5},
	// Northeast
	Region{ID: "new_york_hudson_valley", Name: "Hudson Valley, NY", State: "NY", Lat: 41.7, Lon: -73.9},
	Region{ID: "new_york_finger_lakes", Name: "Finger Lakes, NY", State: "NY", Lat: 42.5, Lon: -76.5},
	Region{ID: "pennsylvania_adams_county", Name: "Adams County, PA", State: "PA", Lat: 39.8, Lon: -77.2},
	Region{ID: "new_jersey_pine_barrens", Name: "South Jersey", State: "NJ", Lat: 39.8, Lon: -74.5},
)

// DefaultRegions returns the built-in region table.
func DefaultRegions() *RegionRegistry {
	return defaultRegions
}
