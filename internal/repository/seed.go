package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Urdemonlord/atlasproject/internal/auth"
	"github.com/Urdemonlord/atlasproject/internal/models"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password123"

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func rating(r float64) *float64 {
	return &r
}

// SeedProperties returns the six reference listings in Semarang.
func SeedProperties() []models.Property {
	return []models.Property{
		{
			ID:          "1",
			OwnerID:     "101",
			Title:       "Kos Putri Premium Dekat UNDIP",
			Description: "Kos nyaman dan aman khusus putri, dekat dengan kampus UNDIP. Fasilitas lengkap dengan WiFi, AC, dapur bersama, dan keamanan 24 jam.",
			Address: models.Address{
				Street: "Jl. Prof. Soedarto No. 15", District: "Tembalang", City: "Semarang", PostalCode: "50275",
			},
			Coordinates:    models.Coordinates{Lat: -7.0505, Lng: 110.4375},
			PropertyType:   models.PropertyTypePutri,
			Facilities:     []string{"wifi", "ac", "parking", "dapur_bersama", "laundry", "security_24jam", "cctv", "jemuran"},
			Pricing:        models.Pricing{MonthlyRent: 800000, Deposit: 800000, Utilities: 100000},
			RoomCount:      20,
			AvailableRooms: 5,
			Images: []string{
				"https://images.pexels.com/photos/1571460/pexels-photo-1571460.jpeg",
				"https://images.pexels.com/photos/1571468/pexels-photo-1571468.jpeg",
			},
			Status:      models.PropertyStatusActive,
			Rating:      rating(4.5),
			ReviewCount: 12,
			IsPremium:   true,
			CreatedAt:   ts("2024-01-15T10:00:00Z"),
			UpdatedAt:   ts("2024-01-15T10:00:00Z"),
		},
		{
			ID:          "2",
			OwnerID:     "102",
			Title:       "Kos Putra Strategis Pleburan",
			Description: "Lokasi strategis di Pleburan, dekat dengan berbagai kampus dan pusat kota. Kamar luas dengan gym dan rooftop.",
			Address: models.Address{
				Street: "Jl. Pleburan Raya No. 88", District: "Semarang Selatan", City: "Semarang", PostalCode: "50241",
			},
			Coordinates:    models.Coordinates{Lat: -7.0051, Lng: 110.4381},
			PropertyType:   models.PropertyTypePutra,
			Facilities:     []string{"wifi", "ac", "parking", "gym", "rooftop", "cctv", "dapur_bersama", "laundry"},
			Pricing:        models.Pricing{MonthlyRent: 1200000, Deposit: 1200000, Utilities: 150000},
			RoomCount:      15,
			AvailableRooms: 3,
			Images: []string{
				"https://images.pexels.com/photos/1571467/pexels-photo-1571467.jpeg",
			},
			Status:      models.PropertyStatusActive,
			Rating:      rating(4.2),
			ReviewCount: 8,
			CreatedAt:   ts("2024-01-10T08:30:00Z"),
			UpdatedAt:   ts("2024-01-10T08:30:00Z"),
		},
		{
			ID:          "3",
			OwnerID:     "103",
			Title:       "Kos Campur Ekonomis Ngaliyan",
			Description: "Kos dengan harga terjangkau di daerah Ngaliyan, dekat dengan transportasi umum.",
			Address: models.Address{
				Street: "Jl. Ngaliyan Raya No. 45", District: "Ngaliyan", City: "Semarang", PostalCode: "50185",
			},
			Coordinates:    models.Coordinates{Lat: -7.0611, Lng: 110.3539},
			PropertyType:   models.PropertyTypeCampur,
			Facilities:     []string{"wifi", "parking", "dapur_bersama", "jemuran", "laundry"},
			Pricing:        models.Pricing{MonthlyRent: 500000, Deposit: 500000, Utilities: 75000},
			RoomCount:      25,
			AvailableRooms: 8,
			Images: []string{
				"https://images.pexels.com/photos/1571452/pexels-photo-1571452.jpeg",
			},
			Status:      models.PropertyStatusActive,
			Rating:      rating(3.8),
			ReviewCount: 15,
			CreatedAt:   ts("2024-01-05T14:20:00Z"),
			UpdatedAt:   ts("2024-01-05T14:20:00Z"),
		},
		{
			ID:          "4",
			OwnerID:     "104",
			Title:       "Kos Putri Modern Banyumanik",
			Description: "Kos modern dengan desain kontemporer di Banyumanik, dekat kampus dan pusat perbelanjaan.",
			Address: models.Address{
				Street: "Jl. Banyumanik Raya No. 123", District: "Banyumanik", City: "Semarang", PostalCode: "50264",
			},
			Coordinates:    models.Coordinates{Lat: -7.0625, Lng: 110.4056},
			PropertyType:   models.PropertyTypePutri,
			Facilities:     []string{"wifi", "ac", "parking", "dapur_bersama", "laundry", "security_24jam", "cctv", "gym", "rooftop"},
			Pricing:        models.Pricing{MonthlyRent: 950000, Deposit: 950000, Utilities: 120000},
			RoomCount:      18,
			AvailableRooms: 4,
			Images: []string{
				"https://images.pexels.com/photos/1571455/pexels-photo-1571455.jpeg",
			},
			Status:      models.PropertyStatusActive,
			Rating:      rating(4.7),
			ReviewCount: 20,
			IsPremium:   true,
			CreatedAt:   ts("2024-01-20T09:15:00Z"),
			UpdatedAt:   ts("2024-01-20T09:15:00Z"),
		},
		{
			ID:          "5",
			OwnerID:     "105",
			Title:       "Kos Putra Dekat UNNES",
			Description: "Kos strategis dekat kampus UNNES dengan lingkungan yang tenang.",
			Address: models.Address{
				Street: "Jl. Sekaran Raya No. 67", District: "Gunungpati", City: "Semarang", PostalCode: "50229",
			},
			Coordinates:    models.Coordinates{Lat: -7.0500, Lng: 110.4000},
			PropertyType:   models.PropertyTypePutra,
			Facilities:     []string{"wifi", "ac", "parking", "dapur_bersama", "laundry", "cctv", "jemuran"},
			Pricing:        models.Pricing{MonthlyRent: 650000, Deposit: 650000, Utilities: 90000},
			RoomCount:      22,
			AvailableRooms: 6,
			Images: []string{
				"https://images.pexels.com/photos/1571461/pexels-photo-1571461.jpeg",
			},
			Status:      models.PropertyStatusActive,
			Rating:      rating(4.0),
			ReviewCount: 10,
			CreatedAt:   ts("2024-01-12T11:30:00Z"),
			UpdatedAt:   ts("2024-01-12T11:30:00Z"),
		},
		{
			ID:          "6",
			OwnerID:     "106",
			Title:       "Kos Campur Premium Semarang Tengah",
			Description: "Kos premium di pusat kota Semarang dengan akses mudah ke tempat wisata dan pusat perbelanjaan.",
			Address: models.Address{
				Street: "Jl. Pemuda No. 89", District: "Semarang Tengah", City: "Semarang", PostalCode: "50132",
			},
			Coordinates:    models.Coordinates{Lat: -6.9667, Lng: 110.4167},
			PropertyType:   models.PropertyTypeCampur,
			Facilities:     []string{"wifi", "ac", "parking", "dapur_bersama", "laundry", "security_24jam", "cctv", "gym", "rooftop", "jemuran"},
			Pricing:        models.Pricing{MonthlyRent: 1500000, Deposit: 1500000, Utilities: 200000},
			RoomCount:      12,
			AvailableRooms: 2,
			Images: []string{
				"https://images.pexels.com/photos/1571463/pexels-photo-1571463.jpeg",
			},
			Status:      models.PropertyStatusActive,
			Rating:      rating(4.8),
			ReviewCount: 25,
			IsPremium:   true,
			CreatedAt:   ts("2024-01-18T14:45:00Z"),
			UpdatedAt:   ts("2024-01-18T14:45:00Z"),
		},
	}
}

// SeedBookings returns the two reference bookings of tenant "1", newest first.
func SeedBookings() []models.Booking {
	return []models.Booking{
		{
			ID:          "2",
			TenantID:    "1",
			RoomID:      "2",
			StartDate:   models.NewDate(2024, 3, 1),
			EndDate:     models.NewDate(2024, 9, 1),
			MonthlyRent: 1200000,
			Deposit:     1200000,
			Status:      models.BookingStatusPending,
			Notes:       "Ingin pindah ke lokasi yang lebih dekat dengan kampus",
			CreatedAt:   ts("2024-01-22T14:30:00Z"),
			UpdatedAt:   ts("2024-01-22T14:30:00Z"),
		},
		{
			ID:          "1",
			TenantID:    "1",
			RoomID:      "1",
			StartDate:   models.NewDate(2024, 2, 1),
			EndDate:     models.NewDate(2024, 8, 1),
			MonthlyRent: 800000,
			Deposit:     800000,
			Status:      models.BookingStatusConfirmed,
			Notes:       "Mahasiswa semester 4, butuh tempat yang tenang untuk belajar",
			CreatedAt:   ts("2024-01-20T10:00:00Z"),
			UpdatedAt:   ts("2024-01-21T09:00:00Z"),
		},
	}
}

// SeedUsers returns the demo tenant, one owner per seeded property and an admin.
// All of them log in with DemoPassword.
func SeedUsers() ([]models.User, error) {
	hash, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return nil, err
	}
	created := ts("2024-01-01T00:00:00Z")
	users := []models.User{
		{
			Base:  models.Base{ID: "1"},
			Email: "john@example.com",
			Role:  models.RoleTenant,
			Profile: models.Profile{
				Name: "John Doe",
				StudentInfo: &models.StudentInfo{
					University: "Universitas Diponegoro", StudentID: "21120119130001", Year: 2021,
				},
			},
		},
		{
			Base:    models.Base{ID: "900"},
			Email:   "admin@example.com",
			Role:    models.RoleAdmin,
			Profile: models.Profile{Name: "Admin", IdentityVerified: true},
		},
	}
	for i := 1; i <= 6; i++ {
		users = append(users, models.User{
			Base:    models.Base{ID: fmt.Sprintf("10%d", i)},
			Email:   fmt.Sprintf("owner%d@example.com", i),
			Role:    models.RoleOwner,
			Profile: models.Profile{Name: fmt.Sprintf("Pemilik Kos %d", i), IdentityVerified: true},
		})
	}
	for i := range users {
		users[i].PasswordHash = hash
		users[i].IsActive = true
		users[i].CreatedAt = created
		users[i].UpdatedAt = created
	}
	return users, nil
}

// Seed loads the reference data into the given repositories.
func Seed(ctx context.Context, props PropertyRepository, bookings BookingRepository, users UserRepository) error {
	for _, p := range SeedProperties() {
		p := p
		if err := props.Create(ctx, &p); err != nil {
			return fmt.Errorf("failed to seed property %s: %w", p.ID, err)
		}
	}
	// Inserted oldest first so newest-first listing holds.
	seedBookings := SeedBookings()
	for i := len(seedBookings) - 1; i >= 0; i-- {
		b := seedBookings[i]
		if err := bookings.Create(ctx, &b); err != nil {
			return fmt.Errorf("failed to seed booking %s: %w", b.ID, err)
		}
	}
	seedUsers, err := SeedUsers()
	if err != nil {
		return fmt.Errorf("failed to prepare seed users: %w", err)
	}
	for _, u := range seedUsers {
		u := u
		if err := users.Create(ctx, &u); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.ID, err)
		}
	}
	return nil
}
