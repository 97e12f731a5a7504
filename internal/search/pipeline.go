// Package search filters, orders and pins property listings. Everything here
// is a pure function over an in-memory slice; the input is never modified.
package search

import (
	"sort"
	"strings"

	"github.com/Urdemonlord/atlasproject/internal/models"
)

// Apply runs the full pipeline: filter, then sort, then pin premium listings
// to the front. Filters are assumed to have passed SearchFilters.Validate.
func Apply(props []models.Property, f models.SearchFilters) []models.Property {
	out := Filter(props, f)
	Sort(out, f.SortBy, f.Origin)
	PinPremium(out)
	return out
}

// Filter returns a new slice with the properties matching every set field of f.
// Facilities match when the property has at least one of the requested tags.
// Location is not applied here; see MatchText.
func Filter(props []models.Property, f models.SearchFilters) []models.Property {
	out := make([]models.Property, 0, len(props))
	for _, p := range props {
		if f.PropertyType != nil && p.PropertyType != *f.PropertyType {
			continue
		}
		if f.MinPrice != nil && p.Pricing.MonthlyRent < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && p.Pricing.MonthlyRent > *f.MaxPrice {
			continue
		}
		if len(f.Facilities) > 0 && !p.HasAnyFacility(f.Facilities) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Sort orders props in place. Ties keep their prior relative order.
// SortDistance without an origin leaves the order unchanged.
func Sort(props []models.Property, by models.SortOption, origin *models.Coordinates) {
	switch by {
	case models.SortPriceLow:
		sort.SliceStable(props, func(i, j int) bool {
			return props[i].Pricing.MonthlyRent < props[j].Pricing.MonthlyRent
		})
	case models.SortPriceHigh:
		sort.SliceStable(props, func(i, j int) bool {
			return props[i].Pricing.MonthlyRent > props[j].Pricing.MonthlyRent
		})
	case models.SortRating:
		sort.SliceStable(props, func(i, j int) bool {
			return props[i].RatingOrZero() > props[j].RatingOrZero()
		})
	case models.SortDistance:
		if origin == nil {
			return
		}
		dist := make(map[string]float64, len(props))
		for _, p := range props {
			dist[p.ID] = DistanceKm(*origin, p.Coordinates)
		}
		sort.SliceStable(props, func(i, j int) bool {
			return dist[props[i].ID] < dist[props[j].ID]
		})
	}
}

// PinPremium stably moves premium listings ahead of the rest.
func PinPremium(props []models.Property) {
	sort.SliceStable(props, func(i, j int) bool {
		return props[i].IsPremium && !props[j].IsPremium
	})
}

// MatchText is the free-text location match used by the HTTP layer: a
// case-insensitive substring test against title, district and city.
// An empty query matches everything.
func MatchText(p models.Property, q string) bool {
	q = strings.TrimSpace(strings.ToLower(q))
	if q == "" {
		return true
	}
	for _, field := range []string{p.Title, p.Address.District, p.Address.City} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// FilterText keeps the properties for which MatchText holds.
func FilterText(props []models.Property, q string) []models.Property {
	if strings.TrimSpace(q) == "" {
		return props
	}
	out := make([]models.Property, 0, len(props))
	for _, p := range props {
		if MatchText(p, q) {
			out = append(out, p)
		}
	}
	return out
}

// Narrow applies the free-text matches that sit outside the pipeline: the
// filters' location first, then q.
func Narrow(props []models.Property, f *models.SearchFilters, q string) []models.Property {
	if f != nil && f.Location != nil {
		props = FilterText(props, *f.Location)
	}
	return FilterText(props, q)
}
