package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Urdemonlord/atlasproject/internal/db"
	"github.com/Urdemonlord/atlasproject/internal/models"
	"github.com/Urdemonlord/atlasproject/internal/utils"
)

const (
	propertiesCollection = "properties"
	bookingsCollection   = "bookings"
	usersCollection      = "users"
)

// EnsureIndexes creates the indexes the Mongo repositories rely on.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	_, err := database.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create users email index: %w", err)
	}
	_, err = database.Collection(bookingsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "room_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create bookings indexes: %w", err)
	}
	_, err = database.Collection(propertiesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create properties owner index: %w", err)
	}
	return nil
}

type mongoPropertyRepository struct {
	db *mongo.Database
}

func NewMongoPropertyRepository(database *mongo.Database) PropertyRepository {
	return &mongoPropertyRepository{db: database}
}

func (r *mongoPropertyRepository) List(ctx context.Context) ([]models.Property, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cursor, err := r.db.Collection(propertiesCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing properties: %w", err)
	}
	var out []models.Property
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding properties: %w", err)
	}
	return out, nil
}

func (r *mongoPropertyRepository) FindByID(ctx context.Context, id string) (*models.Property, error) {
	var p models.Property
	err := r.db.Collection(propertiesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NotFound("property %s not found", id)
		}
		return nil, fmt.Errorf("error finding property %s: %w", id, err)
	}
	return &p, nil
}

func (r *mongoPropertyRepository) FindByOwner(ctx context.Context, ownerID string) ([]models.Property, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cursor, err := r.db.Collection(propertiesCollection).Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing properties of owner %s: %w", ownerID, err)
	}
	var out []models.Property
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding properties of owner %s: %w", ownerID, err)
	}
	return out, nil
}

// propertyDoc adds an insertion sequence so List can return insertion order.
type propertyDoc struct {
	models.Property `bson:",inline"`
	Seq             int64 `bson:"seq"`
}

func (r *mongoPropertyRepository) Create(ctx context.Context, p *models.Property) error {
	collection := r.db.Collection(propertiesCollection)
	generateID := p.ID == ""
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
		p.UpdatedAt = p.CreatedAt
	}

	operation := func() error {
		if generateID {
			p.ID = utils.NewID()
		}
		_, err := collection.InsertOne(ctx, propertyDoc{Property: *p, Seq: time.Now().UnixNano()})
		return err
	}
	if generateID {
		err := db.Try(operation)
		if err != nil {
			return fmt.Errorf("failed to insert property (last attempted ID: %s) after retries: %w", p.ID, err)
		}
		return nil
	}
	if err := operation(); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return models.Validation("property %s already exists", p.ID)
		}
		return fmt.Errorf("failed to insert property %s: %w", p.ID, err)
	}
	return nil
}

func (r *mongoPropertyRepository) Update(ctx context.Context, p *models.Property) error {
	res, err := r.db.Collection(propertiesCollection).UpdateOne(ctx,
		bson.M{"_id": p.ID},
		bson.M{"$set": p},
	)
	if err != nil {
		return fmt.Errorf("failed to update property %s: %w", p.ID, err)
	}
	if res.MatchedCount == 0 {
		return models.NotFound("property %s not found", p.ID)
	}
	return nil
}

func (r *mongoPropertyRepository) AddImage(ctx context.Context, id, image string) error {
	res, err := r.db.Collection(propertiesCollection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"images": image},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to add image to property %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return models.NotFound("property %s not found", id)
	}
	return nil
}

type mongoBookingRepository struct {
	db *mongo.Database
}

func NewMongoBookingRepository(database *mongo.Database) BookingRepository {
	return &mongoBookingRepository{db: database}
}

func (r *mongoBookingRepository) list(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.db.Collection(bookingsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing bookings: %w", err)
	}
	var out []models.Booking
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return out, nil
}

func (r *mongoBookingRepository) ListByTenant(ctx context.Context, tenantID string) ([]models.Booking, error) {
	return r.list(ctx, bson.M{"tenant_id": tenantID})
}

func (r *mongoBookingRepository) ListByRoomIDs(ctx context.Context, roomIDs []string) ([]models.Booking, error) {
	if len(roomIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, bson.M{"room_id": bson.M{"$in": roomIDs}})
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	var b models.Booking
	err := r.db.Collection(bookingsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&b)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NotFound("booking %s not found", id)
		}
		return nil, fmt.Errorf("error finding booking %s: %w", id, err)
	}
	return &b, nil
}

func (r *mongoBookingRepository) Create(ctx context.Context, b *models.Booking) error {
	collection := r.db.Collection(bookingsCollection)
	generateID := b.ID == ""
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
		b.UpdatedAt = b.CreatedAt
	}
	operation := func() error {
		if generateID {
			b.ID = utils.NewID()
		}
		_, err := collection.InsertOne(ctx, b)
		return err
	}
	if generateID {
		if err := db.Try(operation); err != nil {
			return fmt.Errorf("failed to insert booking (last attempted ID: %s) after retries: %w", b.ID, err)
		}
		return nil
	}
	if err := operation(); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return models.Validation("booking %s already exists", b.ID)
		}
		return fmt.Errorf("failed to insert booking %s: %w", b.ID, err)
	}
	return nil
}

// UpdateStatus filters on the current status so a concurrent transition
// cannot be overwritten.
func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus, at time.Time) (*models.Booking, error) {
	collection := r.db.Collection(bookingsCollection)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Booking
	err := collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": at}},
		opts,
	).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update booking %s: %w", id, err)
	}

	// Diagnose why the filter matched nothing.
	current, findErr := r.FindByID(ctx, id)
	if findErr != nil {
		return nil, findErr
	}
	return nil, models.InvalidTransition("booking %s is %s, not %s", id, current.Status, from)
}

type mongoUserRepository struct {
	db *mongo.Database
}

func NewMongoUserRepository(database *mongo.Database) UserRepository {
	return &mongoUserRepository{db: database}
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M, what string) (*models.User, error) {
	var u models.User
	err := r.db.Collection(usersCollection).FindOne(ctx, filter).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NotFound("user %s not found", what)
		}
		return nil, fmt.Errorf("error finding user %s: %w", what, err)
	}
	return &u, nil
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id}, id)
}

func (r *mongoUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": normalizeEmail(email)}, email)
}

func (r *mongoUserRepository) Create(ctx context.Context, u *models.User) error {
	collection := r.db.Collection(usersCollection)
	u.Email = normalizeEmail(u.Email)
	generateID := u.ID == ""
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
		u.UpdatedAt = u.CreatedAt
	}

	// An existing email is not an id collision, so retrying cannot help.
	if _, err := r.FindByEmail(ctx, u.Email); err == nil {
		return models.Validation("email %s is already registered", u.Email)
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	operation := func() error {
		if generateID {
			u.GenID()
		}
		_, err := collection.InsertOne(ctx, u)
		return err
	}
	var err error
	if generateID {
		err = db.Try(operation)
	} else {
		err = operation()
	}
	if err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return models.Validation("user %s or email %s already exists", u.ID, u.Email)
		}
		return fmt.Errorf("failed to insert user %s: %w", u.Email, err)
	}
	return nil
}

func (r *mongoUserRepository) Update(ctx context.Context, u *models.User) error {
	u.Email = normalizeEmail(u.Email)
	res, err := r.db.Collection(usersCollection).UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": u})
	if err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return models.Validation("email %s is already registered", u.Email)
		}
		return fmt.Errorf("failed to update user %s: %w", u.ID, err)
	}
	if res.MatchedCount == 0 {
		return models.NotFound("user %s not found", u.ID)
	}
	return nil
}
