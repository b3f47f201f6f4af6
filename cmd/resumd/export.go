package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-resumd"
	"github.com/alnah/go-resumd/internal/assets"
	"github.com/alnah/go-resumd/internal/config"
	"github.com/alnah/go-resumd/internal/fileutil"
)

// Export formats.
const (
	formatPDF = "pdf"
	formatZIP = "zip"
)

// runExport converts one Markdown file and writes it as PDF or ZIP.
func runExport(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseExportFlags(args, env.Stderr)
	if err != nil {
		return usageError(err)
	}
	if len(positional) != 1 {
		return fmt.Errorf("%w: export takes exactly one Markdown file", ErrUsage)
	}

	envCfg := loadEnvConfig()
	log := newLogger(env.Stderr, resolveLogLevel(flags.common, envCfg.LogLevel, env.Stderr))

	cfg, err := loadConfig(flags.common.config, envCfg)
	if err != nil {
		return err
	}
	if err := mergeExportFlags(flags, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	format := strings.ToLower(flags.format)
	if format != formatPDF && format != formatZIP {
		return fmt.Errorf("%w: --format %q (must be pdf or zip)", ErrUsage, flags.format)
	}

	input := positional[0]
	doc, err := readDocument(input, flags.css)
	if err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}

	parsed := resumd.ParseMetadata(doc.Markdown)
	if parsed.Error {
		log.Warn().Str("file", input).Msg("front-matter invalid, exporting without title and lang")
	}

	output := flags.output
	if output == "" {
		output = resumd.ExportFilename(parsed.Metadata, format)
	}

	var data []byte
	switch format {
	case formatZIP:
		var buf bytes.Buffer
		if err := resumd.WriteZIP(&buf, doc); err != nil {
			return err
		}
		data = buf.Bytes()
	case formatPDF:
		setMaxProcs(log)
		data, err = exportPDF(ctx, env, cfg, input, resumd.Converted{Document: doc, Metadata: parsed.Metadata}, parsed.Body)
		if err != nil {
			return err
		}
	}

	if err := fileutil.WriteFileAtomic(output, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}

	log.Debug().Str("format", format).Int("bytes", len(data)).Msg("export written")
	if !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "Created %s\n", output)
	}
	return nil
}

// exportPDF converts body, assembles the print document and prints it.
// Relative asset paths resolve against the input file's directory.
func exportPDF(ctx context.Context, env *Environment, cfg *config.Config, input string, c resumd.Converted, body string) ([]byte, error) {
	loader, err := env.assetLoader(cfg.Assets.BasePath)
	if err != nil {
		return nil, err
	}
	tmpl, err := loader.LoadTemplate(assets.PrintTemplate)
	if err != nil {
		return nil, err
	}
	page, err := pageSettings(cfg.Preview.Page)
	if err != nil {
		return nil, err
	}

	conv := resumd.NewConverter(converterOptions(cfg.Preview, "", "")...)
	if c.HTML, err = conv.ToHTML(ctx, body); err != nil {
		return nil, err
	}

	baseDir, err := filepath.Abs(filepath.Dir(input))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadMarkdown, err)
	}
	document := resumd.PrintDocument(c, resumd.PrintOptions{
		Template: tmpl,
		Page:     page,
		BaseURL:  fileutil.FileURL(baseDir) + "/",
	})

	renderer := env.NewPDFRenderer(cfg.Export.Timeout)
	defer func() { _ = renderer.Close() }()
	return renderer.RenderPDF(ctx, document)
}

// mergeExportFlags applies export flags over the config.
func mergeExportFlags(f *exportFlags, cfg *config.Config) error {
	mergePageFlags(f.page, &cfg.Preview.Page)
	if f.sanitize {
		cfg.Preview.Sanitize = true
	}
	if f.assetPath != "" {
		cfg.Assets.BasePath = f.assetPath
	}
	timeout, err := parseDurationFlag("timeout", f.timeout)
	if err != nil {
		return err
	}
	if timeout > 0 {
		cfg.Export.Timeout = timeout
	}
	return nil
}

// readDocument reads the Markdown file and its stylesheet. Without an
// explicit css path, theme.css next to the Markdown is used when present.
func readDocument(markdownPath, cssPath string) (resumd.Document, error) {
	md, err := os.ReadFile(markdownPath) // #nosec G304 -- path is user-provided
	if err != nil {
		return resumd.Document{}, fmt.Errorf("%w: %w", ErrReadMarkdown, err)
	}

	if cssPath == "" {
		sibling := filepath.Join(filepath.Dir(markdownPath), assets.CSSFile)
		if !fileutil.FileExists(sibling) {
			return resumd.Document{Markdown: string(md)}, nil
		}
		cssPath = sibling
	}

	css, err := os.ReadFile(cssPath) // #nosec G304 -- path is user-provided
	if err != nil {
		return resumd.Document{}, fmt.Errorf("%w: %w", ErrReadCSS, err)
	}
	return resumd.Document{Markdown: string(md), CSS: string(css)}, nil
}
