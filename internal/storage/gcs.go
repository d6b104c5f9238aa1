package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"muebles-catalog/internal/logger"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"google.golang.org/api/option"
)

const publicBaseURL = "https://storage.googleapis.com"

var GCSStoreTracer = otel.Tracer("GCSStore")

// GCSStore writes product assets to one bucket. Objects are expected to be
// publicly readable through the bucket's IAM policy.
type GCSStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSStore uses the service account file when given, otherwise the
// application default credentials.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Upload streams r into objectName and returns its public URL.
func (s *GCSStore) Upload(ctx context.Context, objectName, contentType string, r io.Reader) (string, error) {
	ctx, span := GCSStoreTracer.Start(ctx, "GCSStore.Upload")
	defer span.End()
	logger.Info(ctx, "Storage")

	w := s.client.Bucket(s.bucket).Object(objectName).
		If(gcs.Conditions{DoesNotExist: true}).
		NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", objectName, err)
	}
	return PublicURL(s.bucket, objectName), nil
}

// Delete removes objectName. A missing object is not an error.
func (s *GCSStore) Delete(ctx context.Context, objectName string) error {
	ctx, span := GCSStoreTracer.Start(ctx, "GCSStore.Delete")
	defer span.End()
	logger.Info(ctx, "Storage")

	err := s.client.Bucket(s.bucket).Object(objectName).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("delete %s: %w", objectName, err)
	}
	return nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

func PublicURL(bucket, objectName string) string {
	return publicBaseURL + "/" + bucket + "/" + objectName
}

// ObjectName builds "productos/<slug>/<kind>/<unix>-<uuid><ext>".
func ObjectName(slug, kind, ext string, now time.Time) string {
	if slug == "" {
		slug = "sin-nombre"
	}
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("productos/%s/%s/%d-%s%s", slug, kind, now.UTC().Unix(), uuid.NewString(), ext)
}
