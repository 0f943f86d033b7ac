package github

import (
	"context"
	"fmt"
	"math"
	"strconv"

	gh "github.com/google/go-github/v66/github"

	publication "github.com/roboricindustries/raycon-publisher/pkg/schemas/publication/v1"
)

// Issues posts the payload body as a comment on an issue.
type Issues struct {
	c *Client
}

func NewIssues(c *Client) *Issues { return &Issues{c: c} }

func (i *Issues) Send(ctx context.Context, destinationID string, payload []byte) (string, error) {
	p, err := publication.UnmarshalPayload[publication.RepoIssuePayloadV1](payload)
	if err != nil {
		return "", fmt.Errorf("decode issue payload for %s: %w", destinationID, err)
	}
	owner, name, err := splitRepo(p.Repo)
	if err != nil {
		return "", err
	}
	if p.Issue == 0 || p.Issue > math.MaxInt32 {
		return "", fmt.Errorf("issue payload for %s has issue number %d out of range", destinationID, p.Issue)
	}

	comment, _, err := i.c.api.Issues.CreateComment(ctx, owner, name, int(p.Issue), &gh.IssueComment{
		Body: gh.String(p.Body),
	})
	if err != nil {
		return "", fmt.Errorf("comment on %s#%d: %w", p.Repo, p.Issue, err)
	}
	if comment.GetID() == 0 {
		return "", fmt.Errorf("comment on %s#%d: response carried no id", p.Repo, p.Issue)
	}
	return "issue-comment-" + strconv.FormatInt(comment.GetID(), 10), nil
}
