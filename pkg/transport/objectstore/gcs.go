//go:build gcp

package objectstore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
)

// GCS writes each payload in a single request and acknowledges with the
// object generation.
type GCS struct {
	client *storage.Client
}

// NewGCS creates a client using application default credentials.
func NewGCS(ctx context.Context) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCS{client: client}, nil
}

func (g *GCS) Send(ctx context.Context, destinationID string, payload []byte) (string, error) {
	p, err := decode(destinationID, payload)
	if err != nil {
		return "", err
	}

	w := g.client.Bucket(p.Bucket).Object(p.Key).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = metadata(p.Tags)
	w.ChunkSize = 0

	if _, err := w.Write(payload); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs write %s/%s failed: %w", p.Bucket, p.Key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs close %s/%s failed: %w", p.Bucket, p.Key, err)
	}
	attrs := w.Attrs()
	if attrs == nil {
		return "", errors.New("gcs write returned no attributes")
	}
	return fmt.Sprintf("gcs-%d", attrs.Generation), nil
}

// Close closes the GCS client.
func (g *GCS) Close() error {
	return g.client.Close()
}
