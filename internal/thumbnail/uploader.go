package thumbnail

import (
	"context"
	"io"

	"github.com/shoplio/review-backend/shared/objectstore"
)

// ObjectStoreUploader adapts the shared object store client to the
// Uploader interface.
type ObjectStoreUploader struct {
	client *objectstore.Client
}

// NewObjectStoreUploader creates an uploader backed by the shared client
func NewObjectStoreUploader(client *objectstore.Client) *ObjectStoreUploader {
	return &ObjectStoreUploader{client: client}
}

// Upload stores the thumbnail and returns its public URL
func (u *ObjectStoreUploader) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	return u.client.Upload(ctx, key, body, objectstore.UploadOptions{
		ContentType: contentType,
	})
}
