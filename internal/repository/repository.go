// Package repository holds the listing store and the booking recorder.
// Implementations: in-memory (default), MongoDB, plus Redis caching and
// circuit-breaker decorators for the networked store.
package repository

import (
	"context"
	"time"

	"github.com/Urdemonlord/atlasproject/internal/models"
)

// PropertyRepository is the listing store. List returns listings in insertion order.
type PropertyRepository interface {
	List(ctx context.Context) ([]models.Property, error)
	FindByID(ctx context.Context, id string) (*models.Property, error)
	FindByOwner(ctx context.Context, ownerID string) ([]models.Property, error)
	// Create stores p, assigning an id when p.ID is empty.
	Create(ctx context.Context, p *models.Property) error
	// Update replaces the stored record with the same id.
	Update(ctx context.Context, p *models.Property) error
	AddImage(ctx context.Context, id, image string) error
}

// BookingRepository is the booking recorder. Lists are newest first.
type BookingRepository interface {
	ListByTenant(ctx context.Context, tenantID string) ([]models.Booking, error)
	ListByRoomIDs(ctx context.Context, roomIDs []string) ([]models.Booking, error)
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	Create(ctx context.Context, b *models.Booking) error
	// UpdateStatus moves a booking from one status to another only if it is
	// still in from; otherwise it fails with models.ErrInvalidTransition.
	UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus, at time.Time) (*models.Booking, error)
}

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	Update(ctx context.Context, u *models.User) error
}
