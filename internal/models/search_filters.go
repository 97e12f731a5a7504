package models

// SortOption selects the ordering applied after filtering.
type SortOption string

const (
	SortNone      SortOption = ""
	SortPriceLow  SortOption = "price_low"
	SortPriceHigh SortOption = "price_high"
	SortRating    SortOption = "rating"
	SortDistance  SortOption = "distance"
)

func (s SortOption) Valid() bool {
	switch s {
	case SortNone, SortPriceLow, SortPriceHigh, SortRating, SortDistance:
		return true
	}
	return false
}

// SearchFilters is an ephemeral query over the listing set. Every field is
// optional and an absent field means no constraint.
type SearchFilters struct {
	Location     *string       `json:"location,omitempty"`
	PropertyType *PropertyType `json:"property_type,omitempty"`
	MinPrice     *int64        `json:"min_price,omitempty"`
	MaxPrice     *int64        `json:"max_price,omitempty"`
	Facilities   []string      `json:"facilities,omitempty"`
	SortBy       SortOption    `json:"sort_by,omitempty"`
	// Origin is the reference point for SortDistance and is required by it.
	Origin *Coordinates `json:"origin,omitempty"`
}

// Validate rejects bounds and options the pipeline cannot honour.
func (f SearchFilters) Validate() error {
	if f.PropertyType != nil && !f.PropertyType.Valid() {
		return Validation("unknown property_type %q", *f.PropertyType)
	}
	if f.MinPrice != nil && *f.MinPrice < 0 {
		return Validation("min_price must not be negative")
	}
	if f.MaxPrice != nil && *f.MaxPrice < 0 {
		return Validation("max_price must not be negative")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return Validation("min_price %d is greater than max_price %d", *f.MinPrice, *f.MaxPrice)
	}
	if !f.SortBy.Valid() {
		return Validation("unknown sort_by %q", f.SortBy)
	}
	if f.SortBy == SortDistance && f.Origin == nil {
		return Validation("sort_by distance requires an origin")
	}
	return nil
}
