package publication

import (
	"encoding/json"
	"strings"
)

// FallbackAckPrefix marks acknowledgment ids that were synthesized locally
// instead of issued by a live transport.
const FallbackAckPrefix = "hallucinated-"

type OutcomeRecordV1 struct {
	Destination      string   `json:"destination"`
	Tags             []string `json:"tags"`
	MessagePreview   string   `json:"message_preview"`
	Context          *string  `json:"context"`
	Timestamp        int64    `json:"timestamp"`
	AcknowledgmentID string   `json:"acknowledgment_id"`
	IsFallback       bool     `json:"is_fallback"`
}

func (r OutcomeRecordV1) Marshal() ([]byte, error) {
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return json.Marshal(r)
}

func UnmarshalOutcomeRecord(data []byte) (OutcomeRecordV1, error) {
	var r OutcomeRecordV1
	err := json.Unmarshal(data, &r)
	return r, err
}

func (r *OutcomeRecordV1) Validate() error {
	ve := &ValidationError{}

	if r.Destination == "" {
		ve.add("destination", "required")
	}
	if r.AcknowledgmentID == "" {
		ve.add("acknowledgment_id", "required")
	}
	if r.Timestamp < 0 {
		ve.add("timestamp", "must not precede the epoch")
	}
	if strings.ContainsRune(r.MessagePreview, '\n') {
		ve.add("message_preview", "must be a single line")
	}
	// Flag and prefix must agree; consumers may read either one.
	synthetic := strings.HasPrefix(r.AcknowledgmentID, FallbackAckPrefix)
	switch {
	case r.IsFallback && !synthetic:
		ve.add("acknowledgment_id", "fallback record without "+FallbackAckPrefix+" prefix")
	case !r.IsFallback && synthetic:
		ve.add("is_fallback", "synthetic acknowledgment on a live record")
	}

	if len(ve.Issues) > 0 {
		return ve
	}
	return nil
}
