package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/alnah/go-resumd/internal/config"
	"github.com/alnah/go-resumd/internal/github"
	"github.com/alnah/go-resumd/internal/hints"
)

// runFetch downloads resume.md and theme.css from a GitHub repository.
func runFetch(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseFetchFlags(args, env.Stderr)
	if err != nil {
		return usageError(err)
	}
	if len(positional) > 1 {
		return fmt.Errorf("%w: fetch takes at most one owner/repo argument", ErrUsage)
	}

	envCfg := loadEnvConfig()
	log := newLogger(env.Stderr, resolveLogLevel(flags.common, envCfg.LogLevel, env.Stderr))

	cfg, err := loadConfig(flags.common.config, envCfg)
	if err != nil {
		return err
	}
	if err := mergeFetchFlags(flags, positional, &cfg.GitHub); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	files, err := fetchFromGitHub(ctx, env, cfg.GitHub)
	if err != nil {
		return err
	}
	log.Debug().
		Str("owner", cfg.GitHub.Owner).
		Str("repo", cfg.GitHub.Repo).
		Int("markdown_bytes", len(files.Markdown)).
		Int("css_bytes", len(files.CSS)).
		Msg("fetched from GitHub")

	written, err := writeDocumentFiles(flags.output, files.Markdown, files.CSS, flags.force)
	if err != nil {
		return err
	}
	if !flags.common.quiet {
		for _, path := range written {
			fmt.Fprintf(env.Stdout, "Wrote %s\n", path)
		}
	}
	return nil
}

// mergeFetchFlags applies the owner/repo argument and flags over the config.
func mergeFetchFlags(f *fetchFlags, positional []string, gh *config.GitHubConfig) error {
	if len(positional) == 1 {
		owner, repo, ok := strings.Cut(positional[0], "/")
		if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
			return fmt.Errorf("%w: expected owner/repo, got %q", ErrUsage, positional[0])
		}
		gh.Owner, gh.Repo = owner, repo
	}

	for _, o := range []struct {
		flag string
		dst  *string
	}{
		{f.owner, &gh.Owner},
		{f.repo, &gh.Repo},
		{f.ref, &gh.Ref},
		{f.markdownPath, &gh.MarkdownPath},
		{f.cssPath, &gh.CSSPath},
	} {
		if o.flag != "" {
			*o.dst = o.flag
		}
	}
	return nil
}

// fetchFromGitHub fetches the configured files, appending a hint on failure.
func fetchFromGitHub(ctx context.Context, env *Environment, cfg config.GitHubConfig) (github.Files, error) {
	opts := []github.Option{github.WithToken(cfg.Token)}
	if env.GitHubBaseURL != "" {
		opts = append(opts, github.WithBaseURL(env.GitHubBaseURL))
	}
	client, err := github.NewClient(nil, opts...)
	if err != nil {
		return github.Files{}, err
	}

	files, err := client.Fetch(ctx, github.Source{
		Owner:        cfg.Owner,
		Repo:         cfg.Repo,
		Ref:          cfg.Ref,
		MarkdownPath: cfg.MarkdownPath,
		CSSPath:      cfg.CSSPath,
	})
	if err != nil {
		return github.Files{}, fmt.Errorf("%w%s", err, hints.ForGitHubFetch())
	}
	return files, nil
}
