package models

import (
	"time"
)

// BookingStatus is the booking workflow state. pending is the only initial
// state; the other three are terminal.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusRejected  BookingStatus = "rejected"
	BookingStatusCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusRejected, BookingStatusCancelled:
		return true
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingStatusConfirmed, BookingStatusRejected, BookingStatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether the workflow allows moving from s to next.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	return s == BookingStatusPending && next.Terminal()
}

// Booking is a tenant's request to rent a room in a property. MonthlyRent and
// Deposit are captured when the booking is made and never follow later
// changes to the property's pricing.
type Booking struct {
	ID          string        `bson:"_id" json:"id"`
	TenantID    string        `bson:"tenant_id" json:"tenant_id"`
	RoomID      string        `bson:"room_id" json:"room_id"`
	StartDate   Date          `bson:"start_date" json:"start_date"`
	EndDate     Date          `bson:"end_date" json:"end_date"`
	MonthlyRent int64         `bson:"monthly_rent" json:"monthly_rent"`
	Deposit     int64         `bson:"deposit" json:"deposit"`
	Status      BookingStatus `bson:"status" json:"status"`
	Notes       string        `bson:"booking_notes,omitempty" json:"booking_notes,omitempty"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at" json:"updated_at"`
}

// BookingRequest is the tenant-supplied part of a new booking.
type BookingRequest struct {
	RoomID      string `json:"room_id"`
	StartDate   Date   `json:"start_date"`
	EndDate     Date   `json:"end_date"`
	MonthlyRent int64  `json:"monthly_rent"`
	Deposit     int64  `json:"deposit"`
	Notes       string `json:"booking_notes,omitempty"`
}

func (r BookingRequest) Validate() error {
	if r.RoomID == "" {
		return Validation("room_id is required")
	}
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return Validation("start_date and end_date are required")
	}
	if !r.StartDate.Before(r.EndDate) {
		return Validation("start_date %s must be before end_date %s", r.StartDate, r.EndDate)
	}
	if r.MonthlyRent < 0 || r.Deposit < 0 {
		return Validation("monthly_rent and deposit must not be negative")
	}
	return nil
}
