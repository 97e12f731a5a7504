package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Urdemonlord/atlasproject/internal/config"
)

// PresignExpiry is how long an upload URL stays valid.
const PresignExpiry = 15 * time.Minute

var (
	ErrObjectNotFound  = errors.New("object not found")
	ErrObjectTooLarge  = errors.New("object exceeds size limit")
	ErrUnsupportedType = errors.New("unsupported content type")
)

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// IS3Storage is the property photo store.
type IS3Storage interface {
	// GeneratePresignedPutURL returns an upload URL and the object key it writes.
	GeneratePresignedPutURL(ctx context.Context, ownerID, propertyID, filename, contentType string) (string, string, error)
	// Download reads at most maxBytes of an object and returns it with its content type.
	Download(ctx context.Context, key string, maxBytes int64) ([]byte, string, error)
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	// OwnsKey reports whether key is an upload slot of the given property.
	OwnsKey(ownerID, propertyID, key string) bool
}

type s3Storage struct {
	bucket        string
	s3Client      *s3.Client
	presignClient *s3.PresignClient
	log           logrus.FieldLogger
}

func NewS3Storage(cfg *config.Config, log logrus.FieldLogger) (IS3Storage, error) {
	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO(),
		aws_config.WithRegion(cfg.AwsRegion),
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg)
	return &s3Storage{
		bucket:        cfg.AwsS3Bucket,
		s3Client:      s3Client,
		presignClient: s3.NewPresignClient(s3Client),
		log:           log,
	}, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename keeps the base name and replaces anything outside
// [A-Za-z0-9._-] with a dash.
func SanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = strings.Trim(unsafeFilenameChars.ReplaceAllString(base, "-"), "-.")
	if base == "" {
		return "image"
	}
	return base
}

func uploadPrefix(ownerID, propertyID string) string {
	return fmt.Sprintf("uploads/%s/%s/", ownerID, propertyID)
}

// ObjectKey builds a fresh key under the owner's and property's upload prefix.
func ObjectKey(ownerID, propertyID, filename string) string {
	return fmt.Sprintf("%s%s_%s", uploadPrefix(ownerID, propertyID), uuid.NewString(), SanitizeFilename(filename))
}

func (s *s3Storage) OwnsKey(ownerID, propertyID, key string) bool {
	return ownsKey(ownerID, propertyID, key)
}

func ownsKey(ownerID, propertyID, key string) bool {
	rest, ok := strings.CutPrefix(key, uploadPrefix(ownerID, propertyID))
	return ok && rest != "" && !strings.Contains(rest, "/")
}

func (s *s3Storage) GeneratePresignedPutURL(ctx context.Context, ownerID, propertyID, filename, contentType string) (string, string, error) {
	if !allowedContentTypes[contentType] {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	objectKey := ObjectKey(ownerID, propertyID, filename)

	presignedReq, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", "", fmt.Errorf("failed to generate presigned PUT URL for key %s: %w", objectKey, err)
	}

	s.log.WithField("key", objectKey).Debug("generated presigned upload URL")
	return presignedReq.URL, objectKey, nil
}

func (s *s3Storage) Download(ctx context.Context, key string, maxBytes int64) ([]byte, string, error) {
	out, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, "", fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, "", fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, "", fmt.Errorf("%w: %s is larger than %d bytes", ErrObjectTooLarge, key, maxBytes)
	}
	return data, aws.ToString(out.ContentType), nil
}

func (s *s3Storage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}
