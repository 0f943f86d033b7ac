package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v66/github"

	publication "github.com/roboricindustries/raycon-publisher/pkg/schemas/publication/v1"
)

// Files writes the payload body to a repository path as a commit.
type Files struct {
	c *Client
}

func NewFiles(c *Client) *Files { return &Files{c: c} }

func (f *Files) Send(ctx context.Context, destinationID string, payload []byte) (string, error) {
	p, err := publication.UnmarshalPayload[publication.RepoFilePayloadV1](payload)
	if err != nil {
		return "", fmt.Errorf("decode repo file payload for %s: %w", destinationID, err)
	}
	owner, name, err := splitRepo(p.Repo)
	if err != nil {
		return "", err
	}
	path := strings.Trim(p.Path, "/")
	if path == "" {
		return "", fmt.Errorf("repo file payload for %s has no path", destinationID)
	}

	sha, err := f.currentSHA(ctx, owner, name, path)
	if err != nil {
		return "", fmt.Errorf("lookup %s:%s: %w", p.Repo, p.Path, err)
	}

	opts := &gh.RepositoryContentFileOptions{
		Message: gh.String(CommitMessage(p.Body)),
		Content: []byte(p.Body),
	}
	if f.c.branch != "" {
		opts.Branch = gh.String(f.c.branch)
	}

	var res *gh.RepositoryContentResponse
	if sha == "" {
		res, _, err = f.c.api.Repositories.CreateFile(ctx, owner, name, escapePath(path), opts)
	} else {
		opts.SHA = gh.String(sha)
		res, _, err = f.c.api.Repositories.UpdateFile(ctx, owner, name, escapePath(path), opts)
	}
	if err != nil {
		return "", fmt.Errorf("update %s:%s: %w", p.Repo, p.Path, err)
	}
	if res == nil || res.Commit.GetSHA() == "" {
		return "", fmt.Errorf("update %s:%s: response carried no commit sha", p.Repo, p.Path)
	}
	return res.Commit.GetSHA(), nil
}

// currentSHA returns the blob sha of an existing file, or "" when the path
// does not exist yet.
func (f *Files) currentSHA(ctx context.Context, owner, name, path string) (string, error) {
	var opts *gh.RepositoryContentGetOptions
	if f.c.branch != "" {
		opts = &gh.RepositoryContentGetOptions{Ref: f.c.branch}
	}
	file, _, _, err := f.c.api.Repositories.GetContents(ctx, owner, name, path, opts)
	if IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if file == nil {
		return "", fmt.Errorf("%s is a directory", path)
	}
	return file.GetSHA(), nil
}

// escapePath escapes each segment; the contents write endpoints take the
// path verbatim.
func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// CommitMessage summarizes body by its first line.
func CommitMessage(body string) string {
	line, _, _ := strings.Cut(body, "\n")
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		return "publish"
	}
	return "publish: " + line
}
