package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Urdemonlord/atlasproject/internal/models"
	"github.com/Urdemonlord/atlasproject/internal/utils"
)

// memoryPropertyRepository keeps listings in process. Records are copied on
// the way in and out so callers never share state with the store.
type memoryPropertyRepository struct {
	mu    sync.RWMutex
	byID  map[string]*models.Property
	order []string
}

func NewMemoryPropertyRepository() PropertyRepository {
	return &memoryPropertyRepository{byID: make(map[string]*models.Property)}
}

func (r *memoryPropertyRepository) List(ctx context.Context) ([]models.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Property, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id].Clone())
	}
	return out, nil
}

func (r *memoryPropertyRepository) FindByID(ctx context.Context, id string) (*models.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, models.NotFound("property %s not found", id)
	}
	c := p.Clone()
	return &c, nil
}

func (r *memoryPropertyRepository) FindByOwner(ctx context.Context, ownerID string) ([]models.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Property
	for _, id := range r.order {
		if p := r.byID[id]; p.OwnerID == ownerID {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (r *memoryPropertyRepository) Create(ctx context.Context, p *models.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		for {
			p.ID = utils.NewID()
			if _, taken := r.byID[p.ID]; !taken {
				break
			}
		}
	} else if _, taken := r.byID[p.ID]; taken {
		return models.Validation("property %s already exists", p.ID)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
		p.UpdatedAt = p.CreatedAt
	}
	c := p.Clone()
	r.byID[p.ID] = &c
	r.order = append(r.order, p.ID)
	return nil
}

func (r *memoryPropertyRepository) Update(ctx context.Context, p *models.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[p.ID]; !ok {
		return models.NotFound("property %s not found", p.ID)
	}
	c := p.Clone()
	r.byID[p.ID] = &c
	return nil
}

func (r *memoryPropertyRepository) AddImage(ctx context.Context, id, image string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return models.NotFound("property %s not found", id)
	}
	p.Images = append(p.Images, image)
	p.UpdatedAt = time.Now().UTC()
	return nil
}

type memoryBookingRepository struct {
	mu       sync.RWMutex
	bookings []*models.Booking // newest first
}

func NewMemoryBookingRepository() BookingRepository {
	return &memoryBookingRepository{}
}

func (r *memoryBookingRepository) ListByTenant(ctx context.Context, tenantID string) ([]models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.TenantID == tenantID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memoryBookingRepository) ListByRoomIDs(ctx context.Context, roomIDs []string) ([]models.Booking, error) {
	want := make(map[string]bool, len(roomIDs))
	for _, id := range roomIDs {
		want[id] = true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if want[b.RoomID] {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memoryBookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b := r.find(id); b != nil {
		c := *b
		return &c, nil
	}
	return nil, models.NotFound("booking %s not found", id)
}

func (r *memoryBookingRepository) find(id string) *models.Booking {
	for _, b := range r.bookings {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func (r *memoryBookingRepository) Create(ctx context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == "" {
		for {
			b.ID = utils.NewID()
			if r.find(b.ID) == nil {
				break
			}
		}
	} else if r.find(b.ID) != nil {
		return models.Validation("booking %s already exists", b.ID)
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
		b.UpdatedAt = b.CreatedAt
	}
	c := *b
	r.bookings = append([]*models.Booking{&c}, r.bookings...)
	return nil
}

func (r *memoryBookingRepository) UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus, at time.Time) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.find(id)
	if b == nil {
		return nil, models.NotFound("booking %s not found", id)
	}
	if b.Status != from {
		return nil, models.InvalidTransition("booking %s is %s, not %s", id, b.Status, from)
	}
	b.Status = to
	b.UpdatedAt = at
	c := *b
	return &c, nil
}

type memoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *memoryUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, models.NotFound("user %s not found", id)
	}
	c := cloneUser(u)
	return &c, nil
}

func (r *memoryUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, models.NotFound("user with email %s not found", email)
	}
	c := cloneUser(r.byID[id])
	return &c, nil
}

func (r *memoryUserRepository) Create(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := normalizeEmail(u.Email)
	if _, taken := r.byEmail[key]; taken {
		return models.Validation("email %s is already registered", u.Email)
	}
	if u.ID == "" {
		for {
			u.GenID()
			if _, taken := r.byID[u.ID]; !taken {
				break
			}
		}
	} else if _, taken := r.byID[u.ID]; taken {
		return models.Validation("user %s already exists", u.ID)
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
		u.UpdatedAt = u.CreatedAt
	}
	c := cloneUser(u)
	r.byID[u.ID] = &c
	r.byEmail[key] = u.ID
	return nil
}

func (r *memoryUserRepository) Update(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.byID[u.ID]
	if !ok {
		return models.NotFound("user %s not found", u.ID)
	}
	newKey := normalizeEmail(u.Email)
	if oldKey := normalizeEmail(old.Email); oldKey != newKey {
		if _, taken := r.byEmail[newKey]; taken {
			return models.Validation("email %s is already registered", u.Email)
		}
		delete(r.byEmail, oldKey)
		r.byEmail[newKey] = u.ID
	}
	c := cloneUser(u)
	r.byID[u.ID] = &c
	return nil
}

func cloneUser(u *models.User) models.User {
	c := *u
	if u.Profile.StudentInfo != nil {
		si := *u.Profile.StudentInfo
		c.Profile.StudentInfo = &si
	}
	return c
}
