package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Urdemonlord/atlasproject/internal/models"
	"github.com/Urdemonlord/atlasproject/internal/services"
	"github.com/Urdemonlord/atlasproject/internal/session"
)

// --- Mocks ---

// MockUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, input services.RegisterInput) (*services.AuthResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AuthResult), args.Error(1)
}
func (m *MockUserService) Login(ctx context.Context, email, password string) (*services.AuthResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AuthResult), args.Error(1)
}
func (m *MockUserService) FindByID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *MockUserService) UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) (*models.User, error) {
	args := m.Called(ctx, userID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockPropertyService
type MockPropertyService struct {
	mock.Mock
}

func (m *MockPropertyService) FetchProperties(ctx context.Context, filters *models.SearchFilters) ([]models.Property, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Property), args.Error(1)
}
func (m *MockPropertyService) FetchProperty(ctx context.Context, id string) (*models.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}
func (m *MockPropertyService) CreateProperty(ctx context.Context, actor models.Actor, input models.PropertyInput) (*models.Property, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}
func (m *MockPropertyService) UpdatePricing(ctx context.Context, actor models.Actor, id string, pricing models.Pricing) (*models.Property, error) {
	args := m.Called(ctx, actor, id, pricing)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}
func (m *MockPropertyService) UpdateAvailability(ctx context.Context, actor models.Actor, id string, availableRooms int) (*models.Property, error) {
	args := m.Called(ctx, actor, id, availableRooms)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}
func (m *MockPropertyService) UpdateStatus(ctx context.Context, actor models.Actor, id string, status models.PropertyStatus) (*models.Property, error) {
	args := m.Called(ctx, actor, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}
func (m *MockPropertyService) ListOwnerProperties(ctx context.Context, ownerID string) ([]models.Property, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Property), args.Error(1)
}
func (m *MockPropertyService) RequestImageUpload(ctx context.Context, actor models.Actor, propertyID, filename, contentType string) (*services.ImageUpload, error) {
	args := m.Called(ctx, actor, propertyID, filename, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ImageUpload), args.Error(1)
}
func (m *MockPropertyService) ConfirmImageUpload(ctx context.Context, actor models.Actor, propertyID, key string) error {
	return m.Called(ctx, actor, propertyID, key).Error(0)
}
func (m *MockPropertyService) AddImage(ctx context.Context, propertyID, key string) error {
	return m.Called(ctx, propertyID, key).Error(0)
}

// MockBookingService
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) FetchBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}
func (m *MockBookingService) FetchBookingsForSession(ctx context.Context, s *session.Session) ([]models.Booking, error) {
	args := m.Called(ctx, s.UserID())
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}
func (m *MockBookingService) CreateBooking(ctx context.Context, userID string, req models.BookingRequest) (*models.Booking, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *MockBookingService) UpdateBookingStatus(ctx context.Context, actor models.Actor, bookingID string, status models.BookingStatus) (*models.Booking, error) {
	args := m.Called(ctx, actor, bookingID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *MockBookingService) ListOwnerBookings(ctx context.Context, ownerID string) ([]models.Booking, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

// MockDashboardService
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) OwnerStats(ctx context.Context, ownerID string) (*models.OwnerStats, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OwnerStats), args.Error(1)
}
