//go:build !gcp

package objectstore

import (
	"context"
	"errors"
)

var ErrGCSDisabled = errors.New("GCS storage is not enabled in this build (use -tags gcp)")

// GCS is unavailable without the gcp build tag.
type GCS struct{}

func NewGCS(context.Context) (*GCS, error) {
	return nil, ErrGCSDisabled
}

func (*GCS) Send(context.Context, string, []byte) (string, error) {
	return "", ErrGCSDisabled
}

func (*GCS) Close() error { return nil }
