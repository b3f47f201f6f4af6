package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// marginSentinel detects if --margin was explicitly set.
// Since 0 is a valid margin, we use an out-of-range sentinel.
const marginSentinel = -1.0

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// pageFlags holds page layout flags.
type pageFlags struct {
	size        string
	orientation string
	margin      float64
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common        commonFlags
	page          pageFlags
	host          string
	port          int
	storage       string
	engineURL     string
	renderTimeout string
	watchDir      string
	assetPath     string
	starter       string
	workers       int
	fromGitHub    bool
	sanitize      bool
}

// exportFlags holds all flags for the export command.
type exportFlags struct {
	common    commonFlags
	page      pageFlags
	output    string
	format    string
	css       string
	timeout   string
	assetPath string
	sanitize  bool
}

// fetchFlags holds all flags for the fetch command.
type fetchFlags struct {
	common       commonFlags
	owner        string
	repo         string
	ref          string
	markdownPath string
	cssPath      string
	output       string
	force        bool
}

// initFlags holds all flags for the init command.
type initFlags struct {
	common    commonFlags
	starter   string
	output    string
	assetPath string
	force     bool
}

// doctorFlags holds all flags for the doctor command.
type doctorFlags struct {
	config string
	json   bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs")
}

// addPageFlags adds page layout flags to a FlagSet.
func addPageFlags(fs *flag.FlagSet, f *pageFlags) {
	fs.StringVarP(&f.size, "page-size", "p", "", "page size: letter, a4, legal")
	fs.StringVar(&f.orientation, "orientation", "", "page orientation: portrait, landscape")
	fs.Float64Var(&f.margin, "margin", marginSentinel, "page margin in inches (0-3)")
}

// newFlagSet creates a FlagSet whose usage goes to w.
func newFlagSet(name string, w io.Writer, usage func(io.Writer)) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() { usage(w) }
	return fs
}

// parseServeFlags parses serve command flags.
func parseServeFlags(args []string, w io.Writer) (*serveFlags, []string, error) {
	fs := newFlagSet("serve", w, printServeUsage)
	f := &serveFlags{}

	addCommonFlags(fs, &f.common)
	addPageFlags(fs, &f.page)
	fs.StringVar(&f.host, "host", "", "listen host")
	fs.IntVar(&f.port, "port", 0, "listen port")
	fs.StringVarP(&f.storage, "storage", "s", "", "SQLite file for the document and editor lock")
	fs.StringVar(&f.engineURL, "engine-url", "", "pagination engine script URL")
	fs.StringVar(&f.renderTimeout, "render-timeout", "", "watchdog for one pagination pass (e.g., 20s)")
	fs.StringVarP(&f.watchDir, "watch", "W", "", "directory whose resume.md and theme.css feed the editor")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
	fs.StringVar(&f.starter, "starter", "", "starter for a fresh document")
	fs.IntVarP(&f.workers, "workers", "w", 0, "PDF export workers (0 = auto)")
	fs.BoolVar(&f.fromGitHub, "github", false, "load the document from the configured GitHub repository")
	fs.BoolVar(&f.sanitize, "sanitize", false, "filter preview HTML through a sanitizing policy")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseExportFlags parses export command flags and returns positional args.
func parseExportFlags(args []string, w io.Writer) (*exportFlags, []string, error) {
	fs := newFlagSet("export", w, printExportUsage)
	f := &exportFlags{}

	addCommonFlags(fs, &f.common)
	addPageFlags(fs, &f.page)
	fs.StringVarP(&f.output, "output", "o", "", "output file (default: <title>.<format>)")
	fs.StringVarP(&f.format, "format", "f", "pdf", "export format: pdf, zip")
	fs.StringVar(&f.css, "css", "", "stylesheet (default: theme.css next to the input)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "PDF generation timeout (e.g., 30s, 2m)")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
	fs.BoolVar(&f.sanitize, "sanitize", false, "filter HTML through a sanitizing policy")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseFetchFlags parses fetch command flags and returns positional args.
func parseFetchFlags(args []string, w io.Writer) (*fetchFlags, []string, error) {
	fs := newFlagSet("fetch", w, printFetchUsage)
	f := &fetchFlags{}

	addCommonFlags(fs, &f.common)
	fs.StringVar(&f.owner, "owner", "", "repository owner")
	fs.StringVar(&f.repo, "repo", "", "repository name")
	fs.StringVar(&f.ref, "ref", "", "branch, tag or commit (default: default branch)")
	fs.StringVar(&f.markdownPath, "markdown-path", "", "Markdown path in the repository")
	fs.StringVar(&f.cssPath, "css-path", "", "CSS path in the repository")
	fs.StringVarP(&f.output, "output", "o", ".", "directory to write resume.md and theme.css to")
	fs.BoolVar(&f.force, "force", false, "overwrite existing files")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseInitFlags parses init command flags.
func parseInitFlags(args []string, w io.Writer) (*initFlags, []string, error) {
	fs := newFlagSet("init", w, printInitUsage)
	f := &initFlags{}

	addCommonFlags(fs, &f.common)
	fs.StringVar(&f.starter, "starter", "", "starter name (see 'resumd templates')")
	fs.StringVarP(&f.output, "output", "o", ".", "directory to write resume.md and theme.css to")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
	fs.BoolVar(&f.force, "force", false, "overwrite existing files")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseDoctorFlags parses doctor command flags.
func parseDoctorFlags(args []string, w io.Writer) (*doctorFlags, error) {
	fs := newFlagSet("doctor", w, printDoctorUsage)
	f := &doctorFlags{}

	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVar(&f.json, "json", false, "print the checks as JSON")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}
