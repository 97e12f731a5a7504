package models

import (
	"time"
)

// PropertyType is the occupancy class of a kos.
type PropertyType string

const (
	PropertyTypePutra  PropertyType = "putra"  // male only
	PropertyTypePutri  PropertyType = "putri"  // female only
	PropertyTypeCampur PropertyType = "campur" // mixed
)

func (t PropertyType) Valid() bool {
	switch t {
	case PropertyTypePutra, PropertyTypePutri, PropertyTypeCampur:
		return true
	}
	return false
}

// PropertyStatus is the listing lifecycle state. There is no hard delete;
// owners deactivate a listing by moving it to inactive.
type PropertyStatus string

const (
	PropertyStatusActive   PropertyStatus = "active"
	PropertyStatusInactive PropertyStatus = "inactive"
	PropertyStatusPending  PropertyStatus = "pending"
)

func (s PropertyStatus) Valid() bool {
	switch s {
	case PropertyStatusActive, PropertyStatusInactive, PropertyStatusPending:
		return true
	}
	return false
}

type Address struct {
	Street     string `bson:"street" json:"street"`
	District   string `bson:"district" json:"district"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postal_code" json:"postal_code"`
}

// Coordinates are decimal degrees.
type Coordinates struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// Pricing amounts are whole rupiah.
type Pricing struct {
	MonthlyRent int64 `bson:"monthly_rent" json:"monthly_rent"`
	Deposit     int64 `bson:"deposit" json:"deposit"`
	Utilities   int64 `bson:"utilities" json:"utilities"`
}

func (p Pricing) Validate() error {
	if p.MonthlyRent < 0 || p.Deposit < 0 || p.Utilities < 0 {
		return Validation("prices must not be negative")
	}
	return nil
}

// Property is a kos rental listing.
type Property struct {
	ID             string         `bson:"_id" json:"id"`
	OwnerID        string         `bson:"owner_id" json:"owner_id"`
	Title          string         `bson:"title" json:"title"`
	Description    string         `bson:"description" json:"description"`
	Address        Address        `bson:"address" json:"address"`
	Coordinates    Coordinates    `bson:"coordinates" json:"coordinates"`
	PropertyType   PropertyType   `bson:"property_type" json:"property_type"`
	Facilities     []string       `bson:"facilities" json:"facilities"`
	Pricing        Pricing        `bson:"pricing" json:"pricing"`
	RoomCount      int            `bson:"room_count" json:"room_count"`
	AvailableRooms int            `bson:"available_rooms" json:"available_rooms"`
	Images         []string       `bson:"images" json:"images"`
	Status         PropertyStatus `bson:"status" json:"status"`
	Rating         *float64       `bson:"rating,omitempty" json:"rating,omitempty"`
	ReviewCount    int            `bson:"review_count" json:"review_count"`
	IsPremium      bool           `bson:"is_premium" json:"is_premium"`
	CreatedAt      time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `bson:"updated_at" json:"updated_at"`
}

// Validate checks the capacity, pricing and classification invariants.
func (p *Property) Validate() error {
	if p.Title == "" {
		return Validation("title is required")
	}
	if !p.PropertyType.Valid() {
		return Validation("unknown property type %q", p.PropertyType)
	}
	if !p.Status.Valid() {
		return Validation("unknown property status %q", p.Status)
	}
	if p.RoomCount <= 0 {
		return Validation("room_count must be positive")
	}
	if p.AvailableRooms < 0 || p.AvailableRooms > p.RoomCount {
		return Validation("available_rooms must be between 0 and room_count (%d)", p.RoomCount)
	}
	if err := p.Pricing.Validate(); err != nil {
		return err
	}
	if p.Rating != nil && (*p.Rating < 0 || *p.Rating > 5) {
		return Validation("rating must be between 0 and 5")
	}
	if p.ReviewCount < 0 {
		return Validation("review_count must not be negative")
	}
	return nil
}

// HasAnyFacility reports whether the property offers at least one of tags.
func (p Property) HasAnyFacility(tags []string) bool {
	for _, want := range tags {
		for _, have := range p.Facilities {
			if have == want {
				return true
			}
		}
	}
	return false
}

// RatingOrZero treats an unrated property as 0.
func (p Property) RatingOrZero() float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

func (p Property) OccupiedRooms() int {
	return p.RoomCount - p.AvailableRooms
}

// Clone returns a deep copy so stored records are never aliased by callers.
func (p Property) Clone() Property {
	c := p
	if p.Facilities != nil {
		c.Facilities = append([]string(nil), p.Facilities...)
	}
	if p.Images != nil {
		c.Images = append([]string(nil), p.Images...)
	}
	if p.Rating != nil {
		r := *p.Rating
		c.Rating = &r
	}
	return c
}

// PropertyInput is what an owner supplies when listing a new property.
type PropertyInput struct {
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Address        Address      `json:"address"`
	Coordinates    Coordinates  `json:"coordinates"`
	PropertyType   PropertyType `json:"property_type"`
	Facilities     []string     `json:"facilities"`
	Pricing        Pricing      `json:"pricing"`
	RoomCount      int          `json:"room_count"`
	AvailableRooms int          `json:"available_rooms"`
}
