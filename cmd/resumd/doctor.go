package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-resumd"
	"github.com/alnah/go-resumd/internal/config"
	"github.com/alnah/go-resumd/internal/hints"
	"github.com/alnah/go-resumd/internal/store"
)

// Check levels.
const (
	levelOK    = "ok"
	levelWarn  = "warn"
	levelError = "error"
)

// Diagnosis statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// Check areas, in print order.
var doctorAreas = []string{"config", "browser", "engine", "server", "storage", "watch"}

const storageCheckTimeout = 5 * time.Second

type check struct {
	Area   string `json:"area"`
	Name   string `json:"name"`
	Level  string `json:"level"`
	Detail string `json:"detail"`
}

// diagnosis collects what `resumd serve` would run into with the current
// configuration.
type diagnosis struct {
	Status string  `json:"status"`
	Checks []check `json:"checks"`
}

func (d *diagnosis) add(area, name, level, detail string) {
	d.Checks = append(d.Checks, check{Area: area, Name: name, Level: level, Detail: detail})
}

// finish derives the status from the worst check.
func (d *diagnosis) finish() {
	d.Status = statusReady
	for _, c := range d.Checks {
		switch c.Level {
		case levelError:
			d.Status = statusErrors
			return
		case levelWarn:
			d.Status = statusWarnings
		}
	}
}

// runDoctorCmd diagnoses the preview server setup. Warnings still exit 0.
func runDoctorCmd(args []string, env *Environment) int {
	f, err := parseDoctorFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "Error: %v\n", err)
		return ExitUsage
	}

	d := &diagnosis{}
	cfg, err := loadConfig(f.config, loadEnvConfig())
	if err != nil {
		d.add("config", "file", levelError, err.Error())
		cfg = config.DefaultConfig()
	} else {
		d.add("config", "file", levelOK, configSource(f.config))
	}

	checkBrowser(d, os.Getenv("ROD_BROWSER_BIN"), launcher.LookPath)
	checkEngine(d, cfg.Preview.EngineURL)
	checkListen(d, cfg.Server.Host, cfg.Server.Port)
	checkStorage(d, cfg.Storage.Path)
	checkWatch(d, cfg.Watch.Dir)
	d.finish()

	if f.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(d)
	} else {
		printDiagnosis(env.Stdout, d)
	}

	if d.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

func configSource(flagPath string) string {
	switch {
	case flagPath != "":
		return flagPath
	case os.Getenv("RESUMD_CONFIG") != "":
		return os.Getenv("RESUMD_CONFIG")
	}
	return "built-in defaults"
}

// checkBrowser locates the Chrome that hosts the pagination engine. bin
// wins over look when set.
func checkBrowser(d *diagnosis, bin string, look func() (string, bool)) {
	path := bin
	if path == "" {
		var found bool
		if path, found = look(); !found {
			d.add("browser", "chrome", levelError, "Chrome/Chromium not found"+hints.ForBrowserConnect())
			return
		}
	}
	if _, err := os.Stat(path); err != nil {
		d.add("browser", "chrome", levelError, fmt.Sprintf("%s: %v", path, err))
		return
	}
	d.add("browser", "chrome", levelOK, path)

	out, err := exec.Command(path, "--version").Output() // #nosec G204 -- path comes from rod's lookup or ROD_BROWSER_BIN
	if err != nil {
		d.add("browser", "version", levelWarn, fmt.Sprintf("could not read version: %v", err))
	} else {
		d.add("browser", "version", levelOK, strings.TrimSpace(string(out)))
	}

	switch {
	case os.Getenv("ROD_NO_SANDBOX") == "1":
		d.add("browser", "sandbox", levelOK, "disabled (ROD_NO_SANDBOX=1)")
	case hints.InCI() || hints.InContainer():
		d.add("browser", "sandbox", levelWarn, "container or CI detected; Chrome may refuse to start without ROD_NO_SANDBOX=1")
	default:
		d.add("browser", "sandbox", levelOK, "enabled")
	}

	// The realm loads its host page from a temp file.
	probe, err := os.CreateTemp("", "resumd-doctor-*")
	if err != nil {
		d.add("browser", "temp dir", levelError, fmt.Sprintf("%s not writable: %v", os.TempDir(), err))
		return
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())
	d.add("browser", "temp dir", levelOK, filepath.Dir(probe.Name()))
}

// checkEngine validates the pagination engine URL the host page loads.
func checkEngine(d *diagnosis, raw string) {
	if raw == "" {
		raw = resumd.DefaultEngineURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		d.add("engine", "url", levelError, fmt.Sprintf("%q: %v", raw, err))
		return
	}

	switch u.Scheme {
	case "https":
		d.add("engine", "url", levelOK, raw)
	case "http":
		d.add("engine", "url", levelWarn, raw+" is loaded over plain HTTP")
	case "file":
		if _, err := os.Stat(u.Path); err != nil {
			d.add("engine", "url", levelError, fmt.Sprintf("%s: %v", raw, err))
			return
		}
		d.add("engine", "url", levelOK, raw)
	default:
		d.add("engine", "url", levelError, fmt.Sprintf("%s: scheme must be https, http or file", raw))
	}
}

// checkListen tries the address serve would bind.
func checkListen(d *diagnosis, host string, port int) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		d.add("server", "listen", levelWarn, fmt.Sprintf("%s unavailable: %v%s", addr, err, hints.ForAddressInUse()))
		return
	}
	_ = ln.Close()

	if ip := net.ParseIP(host); host != "localhost" && (ip == nil || !ip.IsLoopback()) {
		d.add("server", "listen", levelWarn, addr+" is reachable from other machines")
		return
	}
	d.add("server", "listen", levelOK, addr)
}

// checkStorage opens the document store and reports what serve would find.
func checkStorage(d *diagnosis, path string) {
	name := path
	if name == "" {
		name = "in-memory (document lost on exit)"
	}

	ctx, cancel := context.WithTimeout(context.Background(), storageCheckTimeout)
	defer cancel()

	st, err := store.Open(ctx, path)
	if err != nil {
		d.add("storage", "database", levelError, fmt.Sprintf("%s: %v", name, err))
		return
	}
	defer func() { _ = st.Close() }()
	d.add("storage", "database", levelOK, name)

	doc, err := st.LoadDocument(ctx)
	switch {
	case err != nil:
		d.add("storage", "document", levelError, err.Error())
	case doc.Markdown == "" && doc.CSS == "":
		d.add("storage", "document", levelOK, "none stored; serve opens a starter")
	default:
		d.add("storage", "document", levelOK, fmt.Sprintf("%d bytes of Markdown, %d bytes of CSS", len(doc.Markdown), len(doc.CSS)))
	}

	holder, err := st.Holder(ctx)
	switch {
	case err != nil:
		d.add("storage", "editor lock", levelError, err.Error())
	case holder != "":
		d.add("storage", "editor lock", levelWarn, "held by a running editor; a new tab opens blocked")
	default:
		d.add("storage", "editor lock", levelOK, "free")
	}
}

// checkWatch verifies the watched directory when watch mode is configured.
func checkWatch(d *diagnosis, dir string) {
	if dir == "" {
		return
	}
	info, err := os.Stat(dir)
	switch {
	case err != nil:
		d.add("watch", "dir", levelError, err.Error())
	case !info.IsDir():
		d.add("watch", "dir", levelError, dir+" is not a directory")
	default:
		d.add("watch", "dir", levelOK, dir)
	}
}

var levelTags = map[string]string{levelOK: "[OK]", levelWarn: "[WARN]", levelError: "[ERROR]"}

// printDiagnosis writes the checks grouped by area, then the status.
func printDiagnosis(w io.Writer, d *diagnosis) {
	fmt.Fprintln(w, "resumd doctor")

	for _, area := range doctorAreas {
		header := false
		for _, c := range d.Checks {
			if c.Area != area {
				continue
			}
			if !header {
				fmt.Fprintf(w, "\n%s\n", area)
				header = true
			}
			fmt.Fprintf(w, "  %-7s %s: %s\n", levelTags[c.Level], c.Name, c.Detail)
		}
	}
	fmt.Fprintln(w)

	switch d.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: ready to serve")
	case statusWarnings:
		fmt.Fprintln(w, "Status: ready with warnings")
	default:
		fmt.Fprintln(w, "Status: not ready")
	}
}
