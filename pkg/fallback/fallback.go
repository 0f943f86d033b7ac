// Package fallback synthesizes placeholder acknowledgments for deliveries
// whose transport failed.
package fallback

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"strings"

	publication "github.com/roboricindustries/raycon-publisher/pkg/schemas/publication/v1"
)

// Prefix starts every synthesized acknowledgment id.
const Prefix = publication.FallbackAckPrefix

// Synthesize returns a deterministic acknowledgment id for a delivery of
// body to destinationID at timestamp (epoch ms). The id has the form
// hallucinated-<sanitized destination>-<16 hex digits>.
func Synthesize(destinationID, body string, timestamp int64) string {
	h := fnv.New64a()
	// Each string is terminated with 0xff, which never occurs in UTF-8, so
	// ("ab","c") and ("a","bc") hash differently.
	_, _ = h.Write([]byte(destinationID))
	_, _ = h.Write([]byte{0xff})
	_, _ = h.Write([]byte(body))
	_, _ = h.Write([]byte{0xff})
	var ts [8]byte
	binary.LittleEndian.PutUint64(ts[:], uint64(timestamp))
	_, _ = h.Write(ts[:])

	return fmt.Sprintf("%s%s-%016x", Prefix, Sanitize(destinationID), h.Sum64())
}

// Sanitize replaces every rune outside [A-Za-z0-9] with '-'.
func Sanitize(destinationID string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, destinationID)
}

// IsFallbackID reports whether id was produced by Synthesize.
func IsFallbackID(id string) bool {
	return strings.HasPrefix(id, Prefix)
}
