package resumd

import (
	"fmt"
	"os"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"

	"github.com/alnah/go-resumd/internal/hints"
)

// browser is a lazily launched headless Chrome shared by the pages opened on it.
// Rod downloads Chromium on first run if none is found.
type browser struct {
	mu       sync.Mutex
	rod      *rod.Browser
	launcher *launcher.Launcher
}

// connect launches Chrome on first use and returns the connected browser.
func (b *browser) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.rod != nil {
		return b.rod, nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" || os.Getenv("ROD_NO_SANDBOX") == "1" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v%s", ErrBrowserConnect, err, hints.ForBrowserConnect())
	}

	r := rod.New().ControlURL(u)
	if err := r.Connect(); err != nil {
		b.kill(l)
		return nil, fmt.Errorf("%w: %v%s", ErrBrowserConnect, err, hints.ForBrowserConnect())
	}

	b.rod, b.launcher = r, l
	return r, nil
}

// close releases the browser and kills the Chrome process tree.
func (b *browser) close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	if b.rod != nil {
		err = b.rod.Close()
		b.rod = nil
	}
	if b.launcher != nil {
		b.kill(b.launcher)
		b.launcher = nil
	}
	return err
}

func (b *browser) kill(l *launcher.Launcher) {
	if pid := l.PID(); pid > 0 {
		killTree(pid)
	}
	l.Kill()
	l.Cleanup()
}
