package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Urdemonlord/atlasproject/internal/models"
	"github.com/Urdemonlord/atlasproject/internal/utils"
)

func seededMongo(t *testing.T) (PropertyRepository, BookingRepository, UserRepository) {
	t.Helper()
	database := utils.SetupTestDB(t, "kos_repository_test", propertiesCollection, bookingsCollection, usersCollection)
	ctx := context.Background()
	require.NoError(t, EnsureIndexes(ctx, database))

	props := NewMongoPropertyRepository(database)
	bookings := NewMongoBookingRepository(database)
	users := NewMongoUserRepository(database)
	require.NoError(t, Seed(ctx, props, bookings, users))
	return props, bookings, users
}

func TestMongo_SeedRoundTrip(t *testing.T) {
	ctx := context.Background()
	props, bookings, users := seededMongo(t)

	all, err := props.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(SeedProperties()))
	for i, p := range all {
		assert.Equal(t, SeedProperties()[i].ID, p.ID, "insertion order is kept")
	}

	mine, err := bookings.ListByTenant(ctx, "1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "2", mine[0].ID)
	assert.Equal(t, models.NewDate(2024, time.March, 1), mine[0].StartDate)

	_, err = users.FindByEmail(ctx, "OWNER1@example.com")
	require.NoError(t, err)

	_, err = props.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMongo_BookingCompareAndSet(t *testing.T) {
	ctx := context.Background()
	_, bookings, _ := seededMongo(t)
	at := time.Date(2024, time.February, 1, 8, 0, 0, 0, time.UTC)

	updated, err := bookings.UpdateStatus(ctx, "2", models.BookingStatusPending, models.BookingStatusRejected, at)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusRejected, updated.Status)

	_, err = bookings.UpdateStatus(ctx, "2", models.BookingStatusPending, models.BookingStatusConfirmed, at)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = bookings.UpdateStatus(ctx, "nope", models.BookingStatusPending, models.BookingStatusConfirmed, at)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMongo_UserEmailUnique(t *testing.T) {
	ctx := context.Background()
	_, _, users := seededMongo(t)

	err := users.Create(ctx, &models.User{Email: "John@Example.com", Role: models.RoleTenant})
	assert.ErrorIs(t, err, models.ErrValidation)

	fresh := &models.User{Email: "siti@example.com", Role: models.RoleTenant}
	require.NoError(t, users.Create(ctx, fresh))
	assert.NotEmpty(t, fresh.ID)
}
