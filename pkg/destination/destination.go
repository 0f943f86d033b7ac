// Package destination defines the closed set of places a message can be
// published to and the canonical identifiers and payloads derived from them.
package destination

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Kind string

const (
	KindChat      Kind = "chat"
	KindObject    Kind = "object"
	KindRepoFile  Kind = "repofile"
	KindRepoIssue Kind = "issue"
)

// Kinds returns every kind in sync-all dispatch order.
func Kinds() []Kind {
	return []Kind{KindChat, KindObject, KindRepoFile, KindRepoIssue}
}

func (k Kind) String() string { return string(k) }

// Destination is implemented only by the variants in this package.
type Destination interface {
	Kind() Kind
	// ID is the canonical identifier handed to transports and written to
	// outcome records. Distinct destinations never share an ID.
	ID() string
	isDestination()
}

type Chat struct {
	ChannelID string `validate:"required"`
}

type ObjectStore struct {
	Bucket string `validate:"required"`
	Key    string `validate:"required"`
}

type RepoFile struct {
	Repo string `validate:"required"`
	Path string `validate:"required"`
}

type RepoIssue struct {
	Repo string `validate:"required"`
	// Capped at 2^53-1 so the number survives canonical JSON.
	IssueNumber uint64 `validate:"gt=0,max=9007199254740991"`
}

func (Chat) Kind() Kind        { return KindChat }
func (ObjectStore) Kind() Kind { return KindObject }
func (RepoFile) Kind() Kind    { return KindRepoFile }
func (RepoIssue) Kind() Kind   { return KindRepoIssue }

func (d Chat) ID() string { return "chat:" + d.ChannelID }

func (d ObjectStore) ID() string {
	return "object:" + escape(d.Bucket, '/') + "/" + d.Key
}

func (d RepoFile) ID() string {
	return "repofile:" + escape(d.Repo, ':') + ":" + d.Path
}

func (d RepoIssue) ID() string {
	return "issue:" + escape(d.Repo, '#') + "#" + strconv.FormatUint(d.IssueNumber, 10)
}

func (Chat) isDestination()        {}
func (ObjectStore) isDestination() {}
func (RepoFile) isDestination()    {}
func (RepoIssue) isDestination()   {}

// escape percent-encodes '%' and sep so the first unescaped sep in an ID
// always terminates the leading field.
func escape(field string, sep byte) string {
	if !strings.ContainsAny(field, "%"+string(sep)) {
		return field
	}
	field = strings.ReplaceAll(field, "%", "%25")
	return strings.ReplaceAll(field, string(sep), fmt.Sprintf("%%%02X", sep))
}

var validate = validator.New()

// Validate checks that every identifying field of d is populated.
func Validate(d Destination) error {
	if d == nil {
		return fmt.Errorf("destination is nil")
	}
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("invalid %s destination: %w", d.Kind(), err)
	}
	return nil
}
