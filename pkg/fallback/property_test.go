//go:build property
// +build property

package fallback

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: Synthesize(d, b, ts) == Synthesize(d, b, ts) and matches the id format.
func TestSynthesizeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("synthesis is deterministic", prop.ForAll(
		func(dest, body string, ts int64) bool {
			return Synthesize(dest, body, ts) == Synthesize(dest, body, ts)
		},
		gen.AnyString(), gen.AnyString(), gen.Int64(),
	))

	properties.Property("ids always match the fallback format", prop.ForAll(
		func(dest, body string, ts int64) bool {
			return idPattern.MatchString(Synthesize("chat:"+dest, body, ts))
		},
		gen.AnyString(), gen.AnyString(), gen.Int64(),
	))

	properties.Property("sanitized segment keeps rune count", prop.ForAll(
		func(dest string) bool {
			s := Sanitize(dest)
			return len([]rune(s)) == len([]rune(dest)) &&
				strings.Trim(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-") == ""
		},
		gen.AnyString(),
	))

	properties.Property("timestamp change changes the digest", prop.ForAll(
		func(body string, ts int64) bool {
			return Synthesize("chat:C1", body, ts) != Synthesize("chat:C1", body, ts+1)
		},
		gen.AlphaString(), gen.Int64Range(-1<<40, 1<<40),
	))

	properties.TestingRun(t)
}
