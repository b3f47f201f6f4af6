package main

import (
	"errors"
	"fmt"

	"github.com/alnah/go-resumd/internal/assets"
	"github.com/alnah/go-resumd/internal/hints"
)

// runTemplates lists the embedded starters.
func runTemplates(env *Environment) error {
	for _, name := range assets.StarterNames() {
		if name == assets.DefaultStarterName {
			fmt.Fprintf(env.Stdout, "%s (default)\n", name)
			continue
		}
		fmt.Fprintln(env.Stdout, name)
	}
	return nil
}

// runInit writes a starter's resume.md and theme.css to a directory.
func runInit(args []string, env *Environment) error {
	flags, positional, err := parseInitFlags(args, env.Stderr)
	if err != nil {
		return usageError(err)
	}
	if len(positional) > 0 {
		return fmt.Errorf("%w: init takes no arguments", ErrUsage)
	}

	envCfg := loadEnvConfig()
	assetPath := flags.assetPath
	if assetPath == "" {
		assetPath = envCfg.AssetPath
	}
	loader, err := env.assetLoader(assetPath)
	if err != nil {
		return err
	}

	st, err := loadStarter(loader, flags.starter)
	if err != nil {
		return err
	}

	written, err := writeDocumentFiles(flags.output, st.Markdown, st.CSS, flags.force)
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

// loadStarter loads name, or the default starter when name is empty.
// Unknown names get a hint listing the available starters.
func loadStarter(loader assets.AssetLoader, name string) (*assets.Starter, error) {
	if name == "" {
		name = assets.DefaultStarterName
	}
	st, err := loader.LoadStarter(name)
	if errors.Is(err, assets.ErrStarterNotFound) {
		return nil, fmt.Errorf("%w%s", err, hints.ForStarterNotFound(assets.StarterNames()))
	}
	return st, err
}
