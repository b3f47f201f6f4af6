// Package github fetches a resume (Markdown and CSS) from fixed paths in a
// GitHub repository.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v66/github"
)

// Sentinel errors for fetch operations.
var (
	ErrMissingRepo = errors.New("github owner and repo are required")
	ErrNotFound    = errors.New("file not found in repository")
	ErrNotAFile    = errors.New("path is not a file")
	ErrFetch       = errors.New("github fetch failed")
)

// Source names the repository and paths to fetch.
type Source struct {
	Owner        string
	Repo         string
	Ref          string // branch, tag or commit; empty = default branch
	MarkdownPath string
	CSSPath      string // optional
}

// Files is the fetched document.
type Files struct {
	Markdown string
	CSS      string
}

// Option configures a Client.
type Option func(*Client) error

// WithToken authenticates requests with a personal access token.
func WithToken(token string) Option {
	return func(c *Client) error {
		if token != "" {
			c.gh = c.gh.WithAuthToken(token)
		}
		return nil
	}
}

// WithBaseURL points the client at another API root, such as GitHub
// Enterprise or a test server.
func WithBaseURL(raw string) Option {
	return func(c *Client) error {
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("parsing base URL: %w", err)
		}
		c.gh.BaseURL = u
		return nil
	}
}

// Client fetches resume files through the GitHub contents API.
type Client struct {
	gh *gh.Client
}

// NewClient creates a Client using httpClient (nil for http.DefaultClient).
func NewClient(httpClient *http.Client, opts ...Option) (*Client, error) {
	c := &Client{gh: gh.NewClient(httpClient)}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Fetch downloads the Markdown file and, when set, the CSS file. A CSS
// path that does not exist reads as empty; a missing Markdown file is
// ErrNotFound.
func (c *Client) Fetch(ctx context.Context, src Source) (Files, error) {
	if src.Owner == "" || src.Repo == "" {
		return Files{}, ErrMissingRepo
	}

	md, err := c.file(ctx, src, src.MarkdownPath)
	if err != nil {
		return Files{}, err
	}

	var css string
	if src.CSSPath != "" {
		css, err = c.file(ctx, src, src.CSSPath)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return Files{}, err
		}
	}
	return Files{Markdown: md, CSS: css}, nil
}

func (c *Client) file(ctx context.Context, src Source, path string) (string, error) {
	var opts *gh.RepositoryContentGetOptions
	if src.Ref != "" {
		opts = &gh.RepositoryContentGetOptions{Ref: src.Ref}
	}

	content, _, resp, err := c.gh.Repositories.GetContents(ctx, src.Owner, src.Repo, path, opts)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("%w: %s/%s/%s", ErrNotFound, src.Owner, src.Repo, path)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrFetch, path, err)
	}
	if content == nil {
		return "", fmt.Errorf("%w: %s", ErrNotAFile, path)
	}

	text, err := content.GetContent()
	if err != nil {
		return "", fmt.Errorf("%w: decoding %s: %v", ErrFetch, path, err)
	}
	return text, nil
}
