package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Urdemonlord/atlasproject/internal/config"
	"github.com/Urdemonlord/atlasproject/internal/logging"
)

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "kamar-depan.jpg", SanitizeFilename("kamar depan.jpg"))
	assert.Equal(t, "passwd", SanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "foto.png", SanitizeFilename(`C:\Users\owner\foto.png`))
	assert.Equal(t, "image", SanitizeFilename("..."))
}

func TestObjectKeyAndOwnership(t *testing.T) {
	key := ObjectKey("101", "1", "kamar.jpg")
	assert.True(t, strings.HasPrefix(key, "uploads/101/1/"))
	assert.True(t, strings.HasSuffix(key, "_kamar.jpg"))
	assert.NotEqual(t, key, ObjectKey("101", "1", "kamar.jpg"))

	assert.True(t, ownsKey("101", "1", key))
	assert.False(t, ownsKey("102", "1", key))
	assert.False(t, ownsKey("101", "2", key))
	assert.False(t, ownsKey("101", "1", "uploads/101/1/"))
	assert.False(t, ownsKey("101", "1", "uploads/101/1/x/../../2/a.jpg"))
}

func TestGeneratePresignedPutURL(t *testing.T) {
	s, err := NewS3Storage(&config.Config{
		AwsRegion:          "ap-southeast-3",
		AwsS3Bucket:        "kos-images",
		AwsAccessKeyID:     "AKIDEXAMPLE",
		AwsSecretAccessKey: "secret",
	}, logging.Discard())
	require.NoError(t, err)

	url, key, err := s.GeneratePresignedPutURL(context.Background(), "101", "1", "kamar.jpg", "image/jpeg")
	require.NoError(t, err)
	assert.Contains(t, url, "kos-images")
	assert.Contains(t, url, "X-Amz-Signature")
	assert.True(t, s.OwnsKey("101", "1", key))

	_, _, err = s.GeneratePresignedPutURL(context.Background(), "101", "1", "script.sh", "text/x-sh")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
