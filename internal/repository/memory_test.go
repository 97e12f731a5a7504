package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Urdemonlord/atlasproject/internal/auth"
	"github.com/Urdemonlord/atlasproject/internal/models"
)

func seededMemory(t *testing.T) (PropertyRepository, BookingRepository, UserRepository) {
	t.Helper()
	props, bookings, users := NewMemoryPropertyRepository(), NewMemoryBookingRepository(), NewMemoryUserRepository()
	require.NoError(t, Seed(context.Background(), props, bookings, users))
	return props, bookings, users
}

func TestSeed_MemoryStore(t *testing.T) {
	ctx := context.Background()
	props, bookings, users := seededMemory(t)

	all, err := props.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 6)
	for i, p := range all {
		assert.Equal(t, SeedProperties()[i].ID, p.ID)
		assert.NoError(t, p.Validate())
	}

	mine, err := bookings.ListByTenant(ctx, "1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "2", mine[0].ID)
	assert.Equal(t, "1", mine[1].ID)

	john, err := users.FindByEmail(ctx, "JOHN@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTenant, john.Role)
	assert.True(t, auth.CheckPasswordHash(DemoPassword, john.PasswordHash))

	owner, err := users.FindByID(ctx, all[0].OwnerID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, owner.Role)
}

func TestMemoryProperty_CopiesOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	props, _, _ := seededMemory(t)

	p, err := props.FindByID(ctx, "1")
	require.NoError(t, err)
	p.Facilities[0] = "mutated"
	p.Title = "mutated"

	again, err := props.FindByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "wifi", again.Facilities[0])
	assert.Equal(t, "Kos Putri Premium Dekat UNDIP", again.Title)
}

func TestMemoryProperty_CreateUpdateAddImage(t *testing.T) {
	ctx := context.Background()
	props := NewMemoryPropertyRepository()

	p := &models.Property{OwnerID: "101", Title: "Kos Baru", PropertyType: models.PropertyTypeCampur, Status: models.PropertyStatusPending}
	require.NoError(t, props.Create(ctx, p))
	assert.NotEmpty(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())

	dup := &models.Property{ID: p.ID}
	assert.ErrorIs(t, props.Create(ctx, dup), models.ErrValidation)

	p.Status = models.PropertyStatusActive
	require.NoError(t, props.Update(ctx, p))
	require.NoError(t, props.AddImage(ctx, p.ID, "uploads/a.jpg"))

	got, err := props.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PropertyStatusActive, got.Status)
	assert.Equal(t, []string{"uploads/a.jpg"}, got.Images)

	owned, err := props.FindByOwner(ctx, "101")
	require.NoError(t, err)
	assert.Len(t, owned, 1)

	assert.ErrorIs(t, props.Update(ctx, &models.Property{ID: "missing"}), models.ErrNotFound)
	assert.ErrorIs(t, props.AddImage(ctx, "missing", "x"), models.ErrNotFound)
	_, err = props.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemoryBooking_NewestFirstAndRoomLookup(t *testing.T) {
	ctx := context.Background()
	_, bookings, _ := seededMemory(t)

	b := &models.Booking{TenantID: "1", RoomID: "4", Status: models.BookingStatusPending}
	require.NoError(t, bookings.Create(ctx, b))
	assert.NotEmpty(t, b.ID)

	mine, err := bookings.ListByTenant(ctx, "1")
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, b.ID, mine[0].ID)

	byRoom, err := bookings.ListByRoomIDs(ctx, []string{"1", "4"})
	require.NoError(t, err)
	assert.Len(t, byRoom, 2)

	none, err := bookings.ListByTenant(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryBooking_UpdateStatusCompareAndSet(t *testing.T) {
	ctx := context.Background()
	_, bookings, _ := seededMemory(t)
	at := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	updated, err := bookings.UpdateStatus(ctx, "2", models.BookingStatusPending, models.BookingStatusConfirmed, at)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, updated.Status)
	assert.Equal(t, at, updated.UpdatedAt)

	_, err = bookings.UpdateStatus(ctx, "2", models.BookingStatusPending, models.BookingStatusCancelled, at)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = bookings.UpdateStatus(ctx, "missing", models.BookingStatusPending, models.BookingStatusCancelled, at)
	assert.ErrorIs(t, err, models.ErrNotFound)

	stored, err := bookings.FindByID(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, stored.Status)
}

func TestMemoryUser_EmailUniqueness(t *testing.T) {
	ctx := context.Background()
	_, _, users := seededMemory(t)

	err := users.Create(ctx, &models.User{Email: " John@Example.com ", Role: models.RoleTenant})
	assert.ErrorIs(t, err, models.ErrValidation)

	u := &models.User{Email: "new@example.com", Role: models.RoleTenant}
	require.NoError(t, users.Create(ctx, u))
	assert.NotEmpty(t, u.ID)

	u.Email = "john@example.com"
	assert.ErrorIs(t, users.Update(ctx, u), models.ErrValidation)

	u.Email = "renamed@example.com"
	require.NoError(t, users.Update(ctx, u))
	_, err = users.FindByEmail(ctx, "new@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
	found, err := users.FindByEmail(ctx, "renamed@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
}
