// Package objectstore uploads object payloads to S3-compatible or GCS
// buckets.
package objectstore

import (
	"fmt"
	"strings"

	publication "github.com/roboricindustries/raycon-publisher/pkg/schemas/publication/v1"
)

// TagsMetadataKey carries the comma-joined publication tags on the object.
const TagsMetadataKey = "x-publisher-tags"

const contentType = "application/json"

func decode(destinationID string, payload []byte) (publication.ObjectPayloadV1, error) {
	p, err := publication.UnmarshalPayload[publication.ObjectPayloadV1](payload)
	if err != nil {
		return p, fmt.Errorf("decode object payload for %s: %w", destinationID, err)
	}
	if p.Bucket == "" || p.Key == "" {
		return p, fmt.Errorf("object payload for %s needs bucket and key", destinationID)
	}
	return p, nil
}

func metadata(tags []string) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	return map[string]string{TagsMetadataKey: strings.Join(tags, ",")}
}
