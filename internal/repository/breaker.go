package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/Urdemonlord/atlasproject/internal/models"
)

// BreakerSettings tunes the circuit breakers around a networked store.
type BreakerSettings struct {
	MaxFailures uint32
	Timeout     time.Duration
}

// NewCircuitBreaker opens after more than MaxFailures consecutive
// infrastructure failures and half-opens after Timeout.
func NewCircuitBreaker(name string, s BreakerSettings, log logrus.FieldLogger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > s.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
		IsSuccessful: isStoreHealthy,
	})
}

// isStoreHealthy treats domain outcomes as healthy; only infrastructure
// failures count toward opening the circuit.
func isStoreHealthy(err error) bool {
	return err == nil ||
		errors.Is(err, models.ErrNotFound) ||
		errors.Is(err, models.ErrValidation) ||
		errors.Is(err, models.ErrForbidden) ||
		errors.Is(err, context.Canceled)
}

func execute[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	res, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, asTransient(cb.Name(), err)
	}
	return res.(T), nil
}

func executeErr(cb *gobreaker.CircuitBreaker, fn func() error) error {
	_, err := execute(cb, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

func asTransient(name string, err error) error {
	if isStoreHealthy(err) {
		return err
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return models.Transient("%s is unavailable, try again later", name)
	}
	return fmt.Errorf("%s: %w: %w", name, models.ErrTransient, err)
}

type breakerPropertyRepository struct {
	inner PropertyRepository
	cb    *gobreaker.CircuitBreaker
}

func NewBreakerPropertyRepository(inner PropertyRepository, cb *gobreaker.CircuitBreaker) PropertyRepository {
	return &breakerPropertyRepository{inner: inner, cb: cb}
}

func (r *breakerPropertyRepository) List(ctx context.Context) ([]models.Property, error) {
	return execute(r.cb, func() ([]models.Property, error) { return r.inner.List(ctx) })
}

func (r *breakerPropertyRepository) FindByID(ctx context.Context, id string) (*models.Property, error) {
	return execute(r.cb, func() (*models.Property, error) { return r.inner.FindByID(ctx, id) })
}

func (r *breakerPropertyRepository) FindByOwner(ctx context.Context, ownerID string) ([]models.Property, error) {
	return execute(r.cb, func() ([]models.Property, error) { return r.inner.FindByOwner(ctx, ownerID) })
}

func (r *breakerPropertyRepository) Create(ctx context.Context, p *models.Property) error {
	return executeErr(r.cb, func() error { return r.inner.Create(ctx, p) })
}

func (r *breakerPropertyRepository) Update(ctx context.Context, p *models.Property) error {
	return executeErr(r.cb, func() error { return r.inner.Update(ctx, p) })
}

func (r *breakerPropertyRepository) AddImage(ctx context.Context, id, image string) error {
	return executeErr(r.cb, func() error { return r.inner.AddImage(ctx, id, image) })
}

type breakerBookingRepository struct {
	inner BookingRepository
	cb    *gobreaker.CircuitBreaker
}

func NewBreakerBookingRepository(inner BookingRepository, cb *gobreaker.CircuitBreaker) BookingRepository {
	return &breakerBookingRepository{inner: inner, cb: cb}
}

func (r *breakerBookingRepository) ListByTenant(ctx context.Context, tenantID string) ([]models.Booking, error) {
	return execute(r.cb, func() ([]models.Booking, error) { return r.inner.ListByTenant(ctx, tenantID) })
}

func (r *breakerBookingRepository) ListByRoomIDs(ctx context.Context, roomIDs []string) ([]models.Booking, error) {
	return execute(r.cb, func() ([]models.Booking, error) { return r.inner.ListByRoomIDs(ctx, roomIDs) })
}

func (r *breakerBookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	return execute(r.cb, func() (*models.Booking, error) { return r.inner.FindByID(ctx, id) })
}

func (r *breakerBookingRepository) Create(ctx context.Context, b *models.Booking) error {
	return executeErr(r.cb, func() error { return r.inner.Create(ctx, b) })
}

func (r *breakerBookingRepository) UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus, at time.Time) (*models.Booking, error) {
	return execute(r.cb, func() (*models.Booking, error) { return r.inner.UpdateStatus(ctx, id, from, to, at) })
}
