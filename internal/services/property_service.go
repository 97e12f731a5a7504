package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Urdemonlord/atlasproject/internal/models"
	"github.com/Urdemonlord/atlasproject/internal/repository"
	"github.com/Urdemonlord/atlasproject/internal/search"
	"github.com/Urdemonlord/atlasproject/internal/storage"
	"github.com/Urdemonlord/atlasproject/internal/tasks"
)

// ImageUpload is a presigned slot an owner uploads a photo into.
type ImageUpload struct {
	URL string `json:"upload_url"`
	Key string `json:"key"`
}

// IPropertyService is the listing store as seen by the API.
type IPropertyService interface {
	// FetchProperties runs the query pipeline over the active listings.
	FetchProperties(ctx context.Context, filters *models.SearchFilters) ([]models.Property, error)
	FetchProperty(ctx context.Context, id string) (*models.Property, error)
	CreateProperty(ctx context.Context, actor models.Actor, input models.PropertyInput) (*models.Property, error)
	UpdatePricing(ctx context.Context, actor models.Actor, id string, pricing models.Pricing) (*models.Property, error)
	UpdateAvailability(ctx context.Context, actor models.Actor, id string, availableRooms int) (*models.Property, error)
	UpdateStatus(ctx context.Context, actor models.Actor, id string, status models.PropertyStatus) (*models.Property, error)
	ListOwnerProperties(ctx context.Context, ownerID string) ([]models.Property, error)
	RequestImageUpload(ctx context.Context, actor models.Actor, propertyID, filename, contentType string) (*ImageUpload, error)
	ConfirmImageUpload(ctx context.Context, actor models.Actor, propertyID, key string) error
	AddImage(ctx context.Context, propertyID, key string) error
}

type propertyService struct {
	props    repository.PropertyRepository
	storage  storage.IS3Storage
	enqueuer tasks.Enqueuer
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewPropertyService creates a PropertyService. s3 may be nil when image
// uploads are not configured.
func NewPropertyService(props repository.PropertyRepository, s3 storage.IS3Storage, enqueuer tasks.Enqueuer, log logrus.FieldLogger) IPropertyService {
	return &propertyService{
		props:    props,
		storage:  s3,
		enqueuer: enqueuer,
		log:      log.WithField("service", "property"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *propertyService) FetchProperties(ctx context.Context, filters *models.SearchFilters) ([]models.Property, error) {
	var f models.SearchFilters
	if filters != nil {
		f = *filters
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	all, err := s.props.List(ctx)
	if err != nil {
		return nil, storeErr(err, "failed to load properties")
	}
	active := make([]models.Property, 0, len(all))
	for _, p := range all {
		if p.Status == models.PropertyStatusActive {
			active = append(active, p)
		}
	}
	return search.Apply(active, f), nil
}

func (s *propertyService) FetchProperty(ctx context.Context, id string) (*models.Property, error) {
	if id == "" {
		return nil, models.Validation("property id is required")
	}
	p, err := s.props.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "failed to load property")
	}
	return p, nil
}

func (s *propertyService) CreateProperty(ctx context.Context, actor models.Actor, input models.PropertyInput) (*models.Property, error) {
	if !actor.Authenticated() {
		return nil, models.Unauthenticated("log in to list a property")
	}
	if actor.Role != models.RoleOwner && !actor.IsAdmin() {
		return nil, models.Forbidden("only owners can list properties")
	}

	now := s.now()
	p := &models.Property{
		OwnerID:        actor.UserID,
		Title:          input.Title,
		Description:    input.Description,
		Address:        input.Address,
		Coordinates:    input.Coordinates,
		PropertyType:   input.PropertyType,
		Facilities:     input.Facilities,
		Pricing:        input.Pricing,
		RoomCount:      input.RoomCount,
		AvailableRooms: input.AvailableRooms,
		Images:         []string{},
		Status:         models.PropertyStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if p.Facilities == nil {
		p.Facilities = []string{}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.props.Create(ctx, p); err != nil {
		return nil, storeErr(err, "failed to create property")
	}
	s.log.WithFields(logrus.Fields{"property_id": p.ID, "owner_id": p.OwnerID}).Info("property created")
	return p, nil
}

// modify loads a property the actor may manage, applies change, re-validates
// and stores it.
func (s *propertyService) modify(ctx context.Context, actor models.Actor, id string, change func(p *models.Property) error) (*models.Property, error) {
	p, err := s.ownedProperty(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := change(p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now()
	if err := s.props.Update(ctx, p); err != nil {
		return nil, storeErr(err, "failed to update property")
	}
	return p, nil
}

func (s *propertyService) ownedProperty(ctx context.Context, actor models.Actor, id string) (*models.Property, error) {
	if !actor.Authenticated() {
		return nil, models.Unauthenticated("log in to manage properties")
	}
	p, err := s.props.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "failed to load property")
	}
	if p.OwnerID != actor.UserID && !actor.IsAdmin() {
		return nil, models.Forbidden("property %s belongs to another owner", id)
	}
	return p, nil
}

func (s *propertyService) UpdatePricing(ctx context.Context, actor models.Actor, id string, pricing models.Pricing) (*models.Property, error) {
	return s.modify(ctx, actor, id, func(p *models.Property) error {
		p.Pricing = pricing
		return nil
	})
}

func (s *propertyService) UpdateAvailability(ctx context.Context, actor models.Actor, id string, availableRooms int) (*models.Property, error) {
	return s.modify(ctx, actor, id, func(p *models.Property) error {
		p.AvailableRooms = availableRooms
		return nil
	})
}

func (s *propertyService) UpdateStatus(ctx context.Context, actor models.Actor, id string, status models.PropertyStatus) (*models.Property, error) {
	return s.modify(ctx, actor, id, func(p *models.Property) error {
		if !status.Valid() {
			return models.Validation("unknown property status %q", status)
		}
		p.Status = status
		return nil
	})
}

func (s *propertyService) ListOwnerProperties(ctx context.Context, ownerID string) ([]models.Property, error) {
	if ownerID == "" {
		return nil, models.Validation("owner id is required")
	}
	props, err := s.props.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeErr(err, "failed to load owner properties")
	}
	if props == nil {
		props = []models.Property{}
	}
	return props, nil
}

func (s *propertyService) RequestImageUpload(ctx context.Context, actor models.Actor, propertyID, filename, contentType string) (*ImageUpload, error) {
	if s.storage == nil {
		return nil, models.Transient("image uploads are not configured")
	}
	p, err := s.ownedProperty(ctx, actor, propertyID)
	if err != nil {
		return nil, err
	}
	url, key, err := s.storage.GeneratePresignedPutURL(ctx, p.OwnerID, p.ID, filename, contentType)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			return nil, models.Validation("%v", err)
		}
		return nil, fmt.Errorf("failed to prepare upload: %w: %w", models.ErrTransient, err)
	}
	return &ImageUpload{URL: url, Key: key}, nil
}

func (s *propertyService) ConfirmImageUpload(ctx context.Context, actor models.Actor, propertyID, key string) error {
	if s.storage == nil {
		return models.Transient("image uploads are not configured")
	}
	p, err := s.ownedProperty(ctx, actor, propertyID)
	if err != nil {
		return err
	}
	if !s.storage.OwnsKey(p.OwnerID, p.ID, key) {
		return models.Validation("key %q is not an upload of property %s", key, p.ID)
	}
	task, err := tasks.NewImageProcessTask(key, p.ID)
	if err != nil {
		return err
	}
	if _, err := s.enqueuer.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue image processing: %w: %w", models.ErrTransient, err)
	}
	s.log.WithFields(logrus.Fields{"property_id": p.ID, "key": key}).Info("image processing enqueued")
	return nil
}

func (s *propertyService) AddImage(ctx context.Context, propertyID, key string) error {
	if err := s.props.AddImage(ctx, propertyID, key); err != nil {
		return storeErr(err, "failed to add image")
	}
	return nil
}
