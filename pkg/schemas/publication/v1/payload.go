package publication

import "encoding/json"

// Content is the part of every payload shared by all destination kinds.
type Content struct {
	Tags      []string `json:"tags"`
	Body      string   `json:"body"`
	Context   *string  `json:"context"` // null when the invocation had none
	Timestamp int64    `json:"timestamp"`
}

type ChatPayloadV1 struct {
	Channel string `json:"channel"`
	Content
}

type ObjectPayloadV1 struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Content
}

type RepoFilePayloadV1 struct {
	Repo string `json:"repo"`
	Path string `json:"path"`
	Content
}

type RepoIssuePayloadV1 struct {
	Repo  string `json:"repo"`
	Issue uint64 `json:"issue"`
	Content
}

// UnmarshalPayload decodes a serialized payload into the typed shape a
// transport expects.
func UnmarshalPayload[T any](data []byte) (T, error) {
	var p T
	err := json.Unmarshal(data, &p)
	return p, err
}
