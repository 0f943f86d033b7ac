package destination

import (
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"

	publication "github.com/roboricindustries/raycon-publisher/pkg/schemas/publication/v1"
)

// Payload returns the typed payload for d: its identifying fields plus c.
func Payload(d Destination, c publication.Content) any {
	if c.Tags == nil {
		c.Tags = []string{}
	}
	switch v := d.(type) {
	case Chat:
		return publication.ChatPayloadV1{Channel: v.ChannelID, Content: c}
	case ObjectStore:
		return publication.ObjectPayloadV1{Bucket: v.Bucket, Key: v.Key, Content: c}
	case RepoFile:
		return publication.RepoFilePayloadV1{Repo: v.Repo, Path: v.Path, Content: c}
	case RepoIssue:
		return publication.RepoIssuePayloadV1{Repo: v.Repo, Issue: v.IssueNumber, Content: c}
	default:
		// The interface is sealed; reaching this is a bug in this package.
		panic(fmt.Sprintf("destination: unhandled variant %T", d))
	}
}

// Build returns the canonical identifier of d and its payload serialized
// as RFC 8785 canonical JSON.
func Build(d Destination, c publication.Content) (string, []byte, error) {
	raw, err := json.Marshal(Payload(d, c))
	if err != nil {
		return d.ID(), nil, fmt.Errorf("marshal %s payload: %w", d.Kind(), err)
	}
	canon, err := jcs.Transform(raw)
	if err != nil {
		return d.ID(), nil, fmt.Errorf("canonicalize %s payload: %w", d.Kind(), err)
	}
	return d.ID(), canon, nil
}
