package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Urdemonlord/atlasproject/internal/config"
	"github.com/Urdemonlord/atlasproject/internal/email"
	"github.com/Urdemonlord/atlasproject/internal/models"
	"github.com/Urdemonlord/atlasproject/internal/repository"
	"github.com/Urdemonlord/atlasproject/internal/storage"
)

// Task types.
const (
	TypeBookingNotify = "booking:notify"
	TypeImageProcess  = "image:process"
)

const (
	QueueDefault = "default"
	QueueImages  = "images"
)

// Enqueuer is the part of *asynq.Client the services use.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// NoopEnqueuer drops tasks when no Redis is configured.
type NoopEnqueuer struct {
	Log logrus.FieldLogger
}

func (n NoopEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if n.Log != nil {
		n.Log.WithField("task_type", task.Type()).Warn("task runner not configured, dropping task")
	}
	return &asynq.TaskInfo{Type: task.Type(), Payload: task.Payload()}, nil
}

// BookingEvent is what happened to a booking.
type BookingEvent string

const (
	BookingCreated   BookingEvent = "booking_created"
	BookingConfirmed BookingEvent = "booking_confirmed"
	BookingRejected  BookingEvent = "booking_rejected"
	BookingCancelled BookingEvent = "booking_cancelled"
)

// EventForStatus maps a terminal booking status to its event.
func EventForStatus(status models.BookingStatus) (BookingEvent, bool) {
	switch status {
	case models.BookingStatusConfirmed:
		return BookingConfirmed, true
	case models.BookingStatusRejected:
		return BookingRejected, true
	case models.BookingStatusCancelled:
		return BookingCancelled, true
	}
	return "", false
}

type BookingNotifyPayload struct {
	BookingID string       `json:"booking_id"`
	Event     BookingEvent `json:"event"`
}

func NewBookingNotifyTask(bookingID string, event BookingEvent) (*asynq.Task, error) {
	payload, err := json.Marshal(BookingNotifyPayload{BookingID: bookingID, Event: event})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal booking notify payload: %w", err)
	}
	return asynq.NewTask(TypeBookingNotify, payload, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

type ImageTaskPayload struct {
	S3Key      string `json:"s3_key"`
	PropertyID string `json:"property_id"`
}

func NewImageProcessTask(s3Key, propertyID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ImageTaskPayload{S3Key: s3Key, PropertyID: propertyID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image task payload: %w", err)
	}
	return asynq.NewTask(TypeImageProcess, payload, asynq.Queue(QueueImages), asynq.MaxRetry(3)), nil
}

// --- Task Client (Enqueuing tasks) ---

func redisOpt(rdb *redis.Client) asynq.RedisClientOpt {
	opts := rdb.Options()
	return asynq.RedisClientOpt{Addr: opts.Addr, Password: opts.Password, DB: opts.DB}
}

func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(redisOpt(rdb))
}

// --- Task Server (Processing tasks) ---

// ImageAttacher records a processed photo on its property.
type ImageAttacher interface {
	AddImage(ctx context.Context, propertyID, key string) error
}

// TaskProcessor holds the dependencies of the task handlers.
type TaskProcessor struct {
	cfg        *config.Config
	log        logrus.FieldLogger
	sender     email.Sender
	storage    storage.IS3Storage
	images     ImageAttacher
	properties repository.PropertyRepository
	bookings   repository.BookingRepository
	users      repository.UserRepository
}

func NewTaskProcessor(
	cfg *config.Config,
	log logrus.FieldLogger,
	sender email.Sender,
	storageService storage.IS3Storage,
	images ImageAttacher,
	properties repository.PropertyRepository,
	bookings repository.BookingRepository,
	users repository.UserRepository,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:        cfg,
		log:        log,
		sender:     sender,
		storage:    storageService,
		images:     images,
		properties: properties,
		bookings:   bookings,
		users:      users,
	}
}

// Mux routes every task type to its handler. The image handler is only
// registered when object storage is available.
func (p *TaskProcessor) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeBookingNotify, p.HandleBookingNotifyTask)
	if p.storage != nil {
		mux.HandleFunc(TypeImageProcess, p.HandleImageProcessTask)
	}
	return mux
}

// NewServer returns an asynq server reading the default and image queues.
// The caller runs it with the processor's Mux.
func NewServer(rdb *redis.Client, log logrus.FieldLogger) *asynq.Server {
	return asynq.NewServer(
		redisOpt(rdb),
		asynq.Config{
			Queues: map[string]int{
				QueueDefault: 3,
				QueueImages:  1,
			},
			Logger: log,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.WithFields(logrus.Fields{
					"task_type": task.Type(),
					"payload":   string(task.Payload()),
				}).WithError(err).Error("task failed")
			}),
		},
	)
}

// --- Task Handlers ---

func skipIfMissing(err error, what string) error {
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("%s: %v: %w", what, err, asynq.SkipRetry)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// HandleBookingNotifyTask emails the parties of a booking about an event.
func (p *TaskProcessor) HandleBookingNotifyTask(ctx context.Context, t *asynq.Task) error {
	var payload BookingNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal booking notify payload: %v: %w", err, asynq.SkipRetry)
	}
	log := p.log.WithFields(logrus.Fields{"booking_id": payload.BookingID, "event": payload.Event})

	booking, err := p.bookings.FindByID(ctx, payload.BookingID)
	if err != nil {
		return skipIfMissing(err, "failed to load booking")
	}
	property, err := p.properties.FindByID(ctx, booking.RoomID)
	if err != nil {
		return skipIfMissing(err, "failed to load property")
	}
	tenant, err := p.users.FindByID(ctx, booking.TenantID)
	if err != nil {
		return skipIfMissing(err, "failed to load tenant")
	}
	owner, err := p.users.FindByID(ctx, property.OwnerID)
	if err != nil {
		return skipIfMissing(err, "failed to load owner")
	}

	messages, err := BookingEmails(payload.Event, p.cfg.AppName, booking, property, tenant, owner)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	for _, msg := range messages {
		if err := p.sender.Send(ctx, msg); err != nil {
			return fmt.Errorf("failed to send %s email to %v: %w", payload.Event, msg.To, err)
		}
	}
	log.WithField("emails", len(messages)).Info("booking notification sent")
	return nil
}

// HandleImageProcessTask shrinks an uploaded photo to the configured maximum
// dimension and attaches it to its property.
func (p *TaskProcessor) HandleImageProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image task payload: %v: %w", err, asynq.SkipRetry)
	}
	log := p.log.WithFields(logrus.Fields{"s3_key": payload.S3Key, "property_id": payload.PropertyID})

	maxSizeBytes := int64(p.cfg.ImageMaxSizeMB) * 1024 * 1024
	imgData, _, err := p.storage.Download(ctx, payload.S3Key, maxSizeBytes)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, storage.ErrObjectTooLarge) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	img, format, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		return fmt.Errorf("unsupported image format or corrupt image: %w", asynq.SkipRetry)
	}
	log.WithFields(logrus.Fields{"format": format, "width": img.Bounds().Dx(), "height": img.Bounds().Dy()}).Debug("decoded image")

	maxDim := uint(p.cfg.ImageMaxDimension)
	if uint(img.Bounds().Dx()) > maxDim || uint(img.Bounds().Dy()) > maxDim {
		resized := resize.Thumbnail(maxDim, maxDim, img, resize.Lanczos3)
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
			return fmt.Errorf("failed to re-encode resized image: %w", err)
		}
		if int64(buf.Len()) > maxSizeBytes {
			return fmt.Errorf("resized image still exceeds max size: %w", asynq.SkipRetry)
		}
		if err := p.storage.Upload(ctx, payload.S3Key, buf.Bytes(), "image/jpeg"); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"width": resized.Bounds().Dx(), "height": resized.Bounds().Dy()}).Info("resized image")
	}

	if err := p.images.AddImage(ctx, payload.PropertyID, payload.S3Key); err != nil {
		return skipIfMissing(err, "failed to attach image")
	}
	log.Info("image task processed")
	return nil
}
