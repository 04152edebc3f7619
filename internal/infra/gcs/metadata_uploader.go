// internal/infra/gcs/metadata_uploader.go
package gcs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

const (
	defaultPublicBaseURL = "https://storage.googleapis.com"
	metadataPrefix       = "metadata/"
)

var (
	ErrClientNil     = errors.New("gcs_metadata_uploader: storage client is nil")
	ErrBucketEmpty   = errors.New("gcs_metadata_uploader: bucket is empty")
	ErrEmptyDocument = errors.New("gcs_metadata_uploader: metadata document is empty")
)

// MetadataUploader stores off-chain metadata JSON as a public GCS object.
//
// Layout:
//   - objectPath: metadata/<sha256 of the document>.json
//
// The bucket is expected to grant "allUsers: Storage Object Viewer" (uniform access),
// so the returned URL is readable without per-object ACL changes.
type MetadataUploader struct {
	Client *storage.Client
	Bucket string
	// Optional: if empty, uses https://storage.googleapis.com
	PublicBaseURL string

	logger *zap.Logger
}

func NewMetadataUploader(client *storage.Client, bucket string, logger *zap.Logger) *MetadataUploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetadataUploader{
		Client:        client,
		Bucket:        strings.TrimSpace(bucket),
		PublicBaseURL: defaultPublicBaseURL,
		logger:        logger.Named("gcs_metadata_uploader"),
	}
}

// UploadMetadata implements usecase.MetadataUploader.
// Identical documents map to the same object, so re-runs overwrite in place.
func (u *MetadataUploader) UploadMetadata(ctx context.Context, data []byte) (string, error) {
	if u == nil || u.Client == nil {
		return "", ErrClientNil
	}
	if strings.TrimSpace(u.Bucket) == "" {
		return "", ErrBucketEmpty
	}
	if len(data) == 0 {
		return "", ErrEmptyDocument
	}

	obj := ObjectPathFor(data)

	w := u.Client.Bucket(u.Bucket).Object(obj).NewWriter(ctx)
	w.ContentType = "application/json"
	w.CacheControl = "public, max-age=300"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs_metadata_uploader: write %s: %w", obj, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs_metadata_uploader: close %s: %w", obj, err)
	}

	uri := PublicURL(u.PublicBaseURL, u.Bucket, obj)
	u.logger.Info("metadata uploaded", zap.String("bucket", u.Bucket), zap.String("object", obj), zap.String("uri", uri))
	return uri, nil
}

// ObjectPathFor names the object after the document's sha256.
func ObjectPathFor(data []byte) string {
	sum := sha256.Sum256(data)
	return metadataPrefix + hex.EncodeToString(sum[:]) + ".json"
}

// PublicURL builds https://storage.googleapis.com/<bucket>/<escaped object path>.
func PublicURL(baseURL, bucket, objectPath string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = defaultPublicBaseURL
	}
	parts := strings.Split(strings.TrimLeft(objectPath, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return base + "/" + strings.TrimSpace(bucket) + "/" + strings.Join(parts, "/")
}
