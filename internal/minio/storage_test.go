package minio_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pura-pata-web/internal/minio"
)

func TestObjectKey(t *testing.T) {
	base := "https://cdn.purapata.cr/dog-photos"

	url := minio.PublicURL(base, "dogs/photos/abc.jpg")
	assert.Equal(t, "https://cdn.purapata.cr/dog-photos/dogs/photos/abc.jpg", url)

	key, ok := minio.ObjectKey(base, url)
	assert.True(t, ok)
	assert.Equal(t, "dogs/photos/abc.jpg", key)

	_, ok = minio.ObjectKey(base, "https://other.example/dogs/photos/abc.jpg")
	assert.False(t, ok)
	_, ok = minio.ObjectKey(base, base+"/")
	assert.False(t, ok)
}
