// Package hints appends remediation advice to error messages. Every hint
// renders as "\n  hint: <text>", so callers write
// fmt.Errorf("%w: %v%s", ErrX, err, hints.ForX()).
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-resumd/internal/fileutil"
)

const prefix = "\n  hint: "

// InContainer reports whether the process runs in a container. Tests
// replace it.
var InContainer = func() bool {
	return os.Getenv("RESUMD_CONTAINER") == "1" || fileutil.FileExists("/.dockerenv")
}

var ciVars = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"}

// InCI reports whether a CI system's environment variables are set.
func InCI() bool {
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// join renders the non-empty parts as one hint, or "" when none are left.
func join(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return prefix + strings.Join(kept, "; ")
}

// ForBrowserConnect suggests the Chrome launch variables that are unset.
func ForBrowserConnect() string {
	var sandbox, bin string
	if (InCI() || InContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		sandbox = "set ROD_NO_SANDBOX=1 for Docker/CI"
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		bin = "set ROD_BROWSER_BIN to use custom Chrome"
	}
	return join(sandbox, bin)
}

// ForTimeout follows a pagination watchdog expiry.
func ForTimeout() string {
	return join("for long documents, raise --render-timeout or preview.renderTimeout")
}

// ForEngineLoad follows a failed pagination engine download.
func ForEngineLoad(engineURL string) string {
	return join("check network access to " + engineURL + " or point --engine-url at a local copy")
}

// ForConfigNotFound points at --config and, when one was searched, the
// per-user config location.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/resumd.yaml"
	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/resumd") {
			hint += " or create " + p
			break
		}
	}
	return join(hint)
}

// ForOutputDirectory follows a failure to create an output directory.
func ForOutputDirectory() string {
	return join("check parent directory exists and is writable")
}

// ForStarterNotFound lists the starters that do exist.
func ForStarterNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return join("available: " + strings.Join(available, ", "))
}

// ForGitHubFetch follows any GitHub download failure.
func ForGitHubFetch() string {
	return join("check owner/repo/ref and paths; set RESUMD_GITHUB_TOKEN for private repositories or rate limits")
}

// ForAddressInUse follows a listen failure.
func ForAddressInUse() string {
	return join("another process holds the port; use --port to pick another")
}
