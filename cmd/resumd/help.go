package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: resumd <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve      Run the resume editor with a live paginated preview")
	fmt.Fprintln(w, "  export     Export a resume to PDF or ZIP")
	fmt.Fprintln(w, "  fetch      Download resume.md and theme.css from GitHub")
	fmt.Fprintln(w, "  init       Write a starter resume to a directory")
	fmt.Fprintln(w, "  templates  List available starters")
	fmt.Fprintln(w, "  doctor     Check that serve can start with the current config")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'resumd help <command>' for details on a specific command.")
}

func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs")
}

func printPageFlags(w io.Writer) {
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "  -p, --page-size <s>       Page size: letter, a4, legal")
	fmt.Fprintln(w, "      --orientation <s>     Orientation: portrait, landscape")
	fmt.Fprintln(w, "      --margin <f>          Margin in inches (0-3)")
	fmt.Fprintln(w)
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: resumd serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run the editor. Open the printed address in a browser; edits are")
	fmt.Fprintln(w, "paginated in a headless Chrome and the pages streamed back.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "      --host <s>            Listen host (default: 127.0.0.1)")
	fmt.Fprintln(w, "      --port <n>            Listen port (default: 8080)")
	fmt.Fprintln(w, "  -s, --storage <path>      SQLite file (default: in-memory)")
	fmt.Fprintln(w, "  -w, --workers <n>         PDF export workers (0 = auto)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Preview:")
	fmt.Fprintln(w, "      --engine-url <url>    Pagination engine script URL")
	fmt.Fprintln(w, "      --render-timeout <d>  Watchdog for one pagination pass (e.g., 20s)")
	fmt.Fprintln(w, "      --sanitize            Filter preview HTML through a sanitizing policy")
	fmt.Fprintln(w)
	printPageFlags(w)
	fmt.Fprintln(w, "Document:")
	fmt.Fprintln(w, "  -W, --watch <dir>         Feed resume.md and theme.css from a directory")
	fmt.Fprintln(w, "      --github              Load the document from the configured repository")
	fmt.Fprintln(w, "      --starter <name>      Starter for a fresh document")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom asset directory")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printExportUsage prints usage for the export command.
func printExportUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: resumd export <resume.md> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Export a resume without running the editor.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file (default: <title>.<format>)")
	fmt.Fprintln(w, "  -f, --format <s>          Format: pdf, zip (default: pdf)")
	fmt.Fprintln(w, "      --css <path>          Stylesheet (default: theme.css next to the input)")
	fmt.Fprintln(w, "  -t, --timeout <d>         PDF generation timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "      --sanitize            Filter HTML through a sanitizing policy")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom asset directory")
	fmt.Fprintln(w)
	printPageFlags(w)
	printCommonFlags(w)
}

// printFetchUsage prints usage for the fetch command.
func printFetchUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: resumd fetch [owner/repo] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Download the resume files from a GitHub repository.")
	fmt.Fprintln(w, "Set RESUMD_GITHUB_TOKEN for private repositories.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Source:")
	fmt.Fprintln(w, "      --owner <s>           Repository owner")
	fmt.Fprintln(w, "      --repo <s>            Repository name")
	fmt.Fprintln(w, "      --ref <s>             Branch, tag or commit")
	fmt.Fprintln(w, "      --markdown-path <p>   Markdown path (default: resume.md)")
	fmt.Fprintln(w, "      --css-path <p>        CSS path (default: theme.css)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <dir>        Target directory (default: .)")
	fmt.Fprintln(w, "      --force               Overwrite existing files")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printInitUsage prints usage for the init command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: resumd doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check what serve depends on: Chrome, the pagination engine URL, the")
	fmt.Fprintln(w, "listen address, the document store and the watched directory.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --json                Print the checks as JSON")
}

func printInitUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: resumd init [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Write a starter resume.md and theme.css.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --starter <name>      Starter name (default: default)")
	fmt.Fprintln(w, "  -o, --output <dir>        Target directory (default: .)")
	fmt.Fprintln(w, "      --force               Overwrite existing files")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom asset directory")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "serve":
		printServeUsage(env.Stdout)
	case "export":
		printExportUsage(env.Stdout)
	case "fetch":
		printFetchUsage(env.Stdout)
	case "init":
		printInitUsage(env.Stdout)
	case "templates":
		fmt.Fprintln(env.Stdout, "Usage: resumd templates")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "List available starters.")
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: resumd version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: resumd help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
