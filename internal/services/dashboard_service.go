package services

import (
	"context"

	"github.com/Urdemonlord/atlasproject/internal/models"
	"github.com/Urdemonlord/atlasproject/internal/repository"
)

type IDashboardService interface {
	// OwnerStats summarises the owner's listings and the bookings made against them.
	OwnerStats(ctx context.Context, ownerID string) (*models.OwnerStats, error)
}

type dashboardService struct {
	props    repository.PropertyRepository
	bookings repository.BookingRepository
}

func NewDashboardService(props repository.PropertyRepository, bookings repository.BookingRepository) IDashboardService {
	return &dashboardService{props: props, bookings: bookings}
}

func (s *dashboardService) OwnerStats(ctx context.Context, ownerID string) (*models.OwnerStats, error) {
	if ownerID == "" {
		return nil, models.Unauthenticated("log in to see your dashboard")
	}
	props, err := s.props.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeErr(err, "failed to load owner properties")
	}

	stats := &models.OwnerStats{TotalProperties: len(props)}
	if len(props) == 0 {
		return stats, nil
	}

	var ratingSum float64
	ids := make([]string, len(props))
	for i, p := range props {
		ids[i] = p.ID
		occupied := p.OccupiedRooms()
		stats.TotalRooms += p.RoomCount
		stats.OccupiedRooms += occupied
		stats.MonthlyRevenue += int64(occupied) * p.Pricing.MonthlyRent
		ratingSum += p.RatingOrZero()
	}
	stats.AverageRating = ratingSum / float64(len(props))

	bookings, err := s.bookings.ListByRoomIDs(ctx, ids)
	if err != nil {
		return nil, storeErr(err, "failed to load bookings")
	}
	stats.TotalBookings = len(bookings)
	for _, b := range bookings {
		switch b.Status {
		case models.BookingStatusPending:
			stats.PendingBookings++
		case models.BookingStatusConfirmed:
			stats.ConfirmedBookings++
		}
	}
	return stats, nil
}
