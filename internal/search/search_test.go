package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Urdemonlord/atlasproject/internal/models"
	"github.com/Urdemonlord/atlasproject/internal/repository"
)

func ids(props []models.Property) []string {
	out := make([]string, len(props))
	for i, p := range props {
		out[i] = p.ID
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func TestApply_SeedScenarios(t *testing.T) {
	seed := repository.SeedProperties()

	tests := []struct {
		name    string
		filters models.SearchFilters
		want    []string
	}{
		{"no filters keeps insertion order with premium first", models.SearchFilters{}, []string{"1", "4", "6", "2", "3", "5"}},
		{"putri only", models.SearchFilters{PropertyType: ptr(models.PropertyTypePutri)}, []string{"1", "4"}},
		{"price band", models.SearchFilters{MinPrice: ptr(int64(700000)), MaxPrice: ptr(int64(1000000))}, []string{"1", "4"}},
		{"price low then pinned", models.SearchFilters{SortBy: models.SortPriceLow}, []string{"1", "4", "6", "3", "5", "2"}},
		{"price high then pinned", models.SearchFilters{SortBy: models.SortPriceHigh}, []string{"6", "4", "1", "2", "5", "3"}},
		{"rating then pinned", models.SearchFilters{SortBy: models.SortRating}, []string{"6", "4", "1", "2", "5", "3"}},
		{"gym", models.SearchFilters{Facilities: []string{"gym"}}, []string{"4", "6", "2"}},
		{"nothing matches", models.SearchFilters{MinPrice: ptr(int64(5000000))}, []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Apply(seed, tc.filters)
			assert.Equal(t, tc.want, ids(got))
		})
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	seed := repository.SeedProperties()
	before := ids(seed)
	_ = Apply(seed, models.SearchFilters{SortBy: models.SortPriceLow})
	assert.Equal(t, before, ids(seed))
}

func TestApply_Idempotent(t *testing.T) {
	f := models.SearchFilters{SortBy: models.SortRating, Facilities: []string{"ac"}}
	once := Apply(repository.SeedProperties(), f)
	twice := Apply(once, f)
	assert.Equal(t, ids(once), ids(twice))
}

func TestApply_ResultIsSubsetMatchingFilters(t *testing.T) {
	seed := repository.SeedProperties()
	f := models.SearchFilters{
		PropertyType: ptr(models.PropertyTypePutra),
		MaxPrice:     ptr(int64(1200000)),
		Facilities:   []string{"jemuran", "rooftop"},
	}
	got := Apply(seed, f)
	require.NotEmpty(t, got)
	for _, p := range got {
		assert.Equal(t, models.PropertyTypePutra, p.PropertyType)
		assert.LessOrEqual(t, p.Pricing.MonthlyRent, int64(1200000))
		assert.True(t, p.HasAnyFacility(f.Facilities))
	}
	assert.Equal(t, []string{"2", "5"}, ids(got))
}

func TestPinPremium_StableWithinGroups(t *testing.T) {
	props := []models.Property{
		{ID: "a"}, {ID: "b", IsPremium: true}, {ID: "c"}, {ID: "d", IsPremium: true},
	}
	PinPremium(props)
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids(props))
}

func TestSort_RatingTreatsMissingAsZero(t *testing.T) {
	props := []models.Property{{ID: "none"}, {ID: "low", Rating: ptr(1.0)}, {ID: "high", Rating: ptr(4.0)}}
	Sort(props, models.SortRating, nil)
	assert.Equal(t, []string{"high", "low", "none"}, ids(props))
}

func TestSort_Distance(t *testing.T) {
	seed := repository.SeedProperties()
	undip := models.Coordinates{Lat: -7.0490, Lng: 110.4380}

	got := Apply(seed, models.SearchFilters{SortBy: models.SortDistance, Origin: &undip})
	assert.Equal(t, []string{"1", "4", "6", "5", "2", "3"}, ids(got))

	unchanged := Filter(seed, models.SearchFilters{})
	Sort(unchanged, models.SortDistance, nil)
	assert.Equal(t, ids(seed), ids(unchanged))
}

func TestDistanceKm(t *testing.T) {
	a := models.Coordinates{Lat: -7.0505, Lng: 110.4375}
	assert.InDelta(t, 0, DistanceKm(a, a), 1e-9)

	// Tembalang to Semarang Tengah is roughly 10 km.
	b := models.Coordinates{Lat: -6.9667, Lng: 110.4167}
	assert.InDelta(t, 9.6, DistanceKm(a, b), 0.5)
	assert.InDelta(t, DistanceKm(a, b), DistanceKm(b, a), 1e-9)
}

func TestMatchText(t *testing.T) {
	seed := repository.SeedProperties()
	assert.True(t, MatchText(seed[0], ""))
	assert.True(t, MatchText(seed[0], "undip"))
	assert.True(t, MatchText(seed[0], "  TEMBALANG "))
	assert.True(t, MatchText(seed[0], "semarang"))
	assert.False(t, MatchText(seed[0], "jakarta"))

	assert.Equal(t, []string{"3"}, ids(FilterText(seed, "ngaliyan")))
	assert.Len(t, FilterText(seed, ""), len(seed))
}

func TestNarrow(t *testing.T) {
	seed := repository.SeedProperties()
	loc := "Ngaliyan"
	assert.Equal(t, []string{"3"}, ids(Narrow(seed, &models.SearchFilters{Location: &loc}, "")))

	loc = "semarang"
	assert.Equal(t, []string{"4"}, ids(Narrow(seed, &models.SearchFilters{Location: &loc}, "banyumanik")))
	assert.Empty(t, Narrow(seed, &models.SearchFilters{Location: &loc}, "jakarta"))

	assert.Len(t, Narrow(seed, nil, ""), len(seed))
	assert.Len(t, Narrow(seed, &models.SearchFilters{}, ""), len(seed))
}
