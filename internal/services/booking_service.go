package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Urdemonlord/atlasproject/internal/models"
	"github.com/Urdemonlord/atlasproject/internal/repository"
	"github.com/Urdemonlord/atlasproject/internal/session"
	"github.com/Urdemonlord/atlasproject/internal/tasks"
)

// IBookingService records bookings and runs their status workflow.
//
// Creating or confirming a booking does not change the property's
// available_rooms; owners keep availability up to date themselves.
type IBookingService interface {
	// FetchBookings returns the tenant's own bookings, newest first.
	FetchBookings(ctx context.Context, userID string) ([]models.Booking, error)
	// FetchBookingsForSession is FetchBookings for the session's user. It fails
	// with session.ErrStale if the session changed identity meanwhile.
	FetchBookingsForSession(ctx context.Context, s *session.Session) ([]models.Booking, error)
	CreateBooking(ctx context.Context, userID string, req models.BookingRequest) (*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, actor models.Actor, bookingID string, status models.BookingStatus) (*models.Booking, error)
	// ListOwnerBookings returns the bookings made against the owner's properties.
	ListOwnerBookings(ctx context.Context, ownerID string) ([]models.Booking, error)
}

type bookingService struct {
	bookings repository.BookingRepository
	props    repository.PropertyRepository
	enqueuer tasks.Enqueuer
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewBookingService(bookings repository.BookingRepository, props repository.PropertyRepository, enqueuer tasks.Enqueuer, log logrus.FieldLogger) IBookingService {
	return &bookingService{
		bookings: bookings,
		props:    props,
		enqueuer: enqueuer,
		log:      log.WithField("service", "booking"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *bookingService) FetchBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	if userID == "" {
		return nil, models.Unauthenticated("log in to see your bookings")
	}
	list, err := s.bookings.ListByTenant(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "failed to load bookings")
	}
	if list == nil {
		list = []models.Booking{}
	}
	return list, nil
}

func (s *bookingService) FetchBookingsForSession(ctx context.Context, sess *session.Session) ([]models.Booking, error) {
	epoch := sess.Epoch()
	list, err := s.FetchBookings(ctx, sess.UserID())
	if staleErr := sess.Current(epoch); staleErr != nil {
		return nil, staleErr
	}
	return list, err
}

func (s *bookingService) CreateBooking(ctx context.Context, userID string, req models.BookingRequest) (*models.Booking, error) {
	if userID == "" {
		return nil, models.Unauthenticated("log in to make a booking")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	property, err := s.props.FindByID(ctx, req.RoomID)
	if err != nil {
		return nil, storeErr(err, "failed to load property")
	}
	if property.Status != models.PropertyStatusActive {
		return nil, models.Validation("property %s is not accepting bookings", property.ID)
	}

	now := s.now()
	b := &models.Booking{
		TenantID:    userID,
		RoomID:      req.RoomID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		MonthlyRent: req.MonthlyRent,
		Deposit:     req.Deposit,
		Status:      models.BookingStatusPending,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, storeErr(err, "failed to create booking")
	}
	s.log.WithFields(logrus.Fields{"booking_id": b.ID, "tenant_id": userID, "property_id": b.RoomID}).Info("booking created")
	s.notify(ctx, b.ID, tasks.BookingCreated)
	return b, nil
}

// notify enqueues a booking email. Failure is logged, not returned: the
// booking itself has already been recorded.
func (s *bookingService) notify(ctx context.Context, bookingID string, event tasks.BookingEvent) {
	log := s.log.WithFields(logrus.Fields{"booking_id": bookingID, "event": event})
	task, err := tasks.NewBookingNotifyTask(bookingID, event)
	if err != nil {
		log.WithError(err).Error("failed to build booking notification")
		return
	}
	if _, err := s.enqueuer.EnqueueContext(ctx, task); err != nil {
		log.WithError(err).Warn("failed to enqueue booking notification")
	}
}

func (s *bookingService) UpdateBookingStatus(ctx context.Context, actor models.Actor, bookingID string, status models.BookingStatus) (*models.Booking, error) {
	if !actor.Authenticated() {
		return nil, models.Unauthenticated("log in to update a booking")
	}
	if !status.Valid() {
		return nil, models.Validation("unknown booking status %q", status)
	}
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, storeErr(err, "failed to load booking")
	}
	if !b.Status.CanTransition(status) {
		return nil, models.InvalidTransition("booking %s cannot move from %s to %s", b.ID, b.Status, status)
	}
	if err := s.authorizeTransition(ctx, actor, b, status); err != nil {
		return nil, err
	}

	updated, err := s.bookings.UpdateStatus(ctx, b.ID, b.Status, status, s.now())
	if err != nil {
		return nil, storeErr(err, "failed to update booking")
	}
	s.log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"from":       b.Status,
		"to":         status,
		"actor_id":   actor.UserID,
	}).Info("booking status updated")
	if event, ok := tasks.EventForStatus(status); ok {
		s.notify(ctx, b.ID, event)
	}
	return updated, nil
}

// authorizeTransition: tenants cancel their own bookings, the property's
// owner confirms or rejects, admins may do either.
func (s *bookingService) authorizeTransition(ctx context.Context, actor models.Actor, b *models.Booking, status models.BookingStatus) error {
	if actor.IsAdmin() {
		return nil
	}
	switch status {
	case models.BookingStatusCancelled:
		if actor.UserID == b.TenantID {
			return nil
		}
		return models.Forbidden("only the tenant can cancel booking %s", b.ID)
	case models.BookingStatusConfirmed, models.BookingStatusRejected:
		property, err := s.props.FindByID(ctx, b.RoomID)
		if err != nil {
			return storeErr(err, "failed to load property")
		}
		if property.OwnerID == actor.UserID {
			return nil
		}
		return models.Forbidden("only the owner of property %s can %s booking %s", property.ID, verb(status), b.ID)
	}
	return models.Forbidden("booking %s cannot be set to %s", b.ID, status)
}

func verb(status models.BookingStatus) string {
	if status == models.BookingStatusConfirmed {
		return "confirm"
	}
	return "reject"
}

func (s *bookingService) ListOwnerBookings(ctx context.Context, ownerID string) ([]models.Booking, error) {
	if ownerID == "" {
		return nil, models.Unauthenticated("log in to see bookings for your properties")
	}
	props, err := s.props.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeErr(err, "failed to load owner properties")
	}
	if len(props) == 0 {
		return []models.Booking{}, nil
	}
	ids := make([]string, len(props))
	for i, p := range props {
		ids[i] = p.ID
	}
	list, err := s.bookings.ListByRoomIDs(ctx, ids)
	if err != nil {
		return nil, storeErr(err, "failed to load bookings")
	}
	if list == nil {
		list = []models.Booking{}
	}
	return list, nil
}
