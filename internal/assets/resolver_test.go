package assets

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
)

func TestNewAssetResolver(t *testing.T) {
	t.Parallel()

	t.Run("empty path uses embedded only", func(t *testing.T) {
		t.Parallel()

		resolver, err := NewAssetResolver("")
		if err != nil {
			t.Fatalf("NewAssetResolver(\"\") error = %v", err)
		}
		if len(resolver.chain) != 1 {
			t.Errorf("chain has %d loaders, want embedded only", len(resolver.chain))
		}
	})

	t.Run("valid custom path", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()

		resolver, err := NewAssetResolver(tmpDir)
		if err != nil {
			t.Fatalf("NewAssetResolver() error = %v", err)
		}
		if len(resolver.chain) != 2 {
			t.Errorf("chain has %d loaders, want custom then embedded", len(resolver.chain))
		}
	})

	t.Run("invalid custom path returns error", func(t *testing.T) {
		t.Parallel()

		_, err := NewAssetResolver("/nonexistent/path/abc123xyz")
		if !errors.Is(err, ErrInvalidBasePath) {
			t.Errorf("NewAssetResolver() error = %v, want ErrInvalidBasePath", err)
		}
	})
}

func TestAssetResolver_LoadTemplate_CustomWithFallback(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	customPrint := "<html><!--{{BODY}}--></html>"
	writeFile(t, filepath.Join(tmpDir, "templates", "print.html"), customPrint)

	resolver, err := NewAssetResolver(tmpDir)
	if err != nil {
		t.Fatalf("NewAssetResolver() error = %v", err)
	}

	t.Run("custom overrides embedded", func(t *testing.T) {
		t.Parallel()

		got, err := resolver.LoadTemplate(PrintTemplate)
		if err != nil {
			t.Fatalf("LoadTemplate() error = %v", err)
		}
		if got != customPrint {
			t.Errorf("LoadTemplate() = %q, want custom override", got)
		}
	})

	t.Run("falls back to embedded when custom not found", func(t *testing.T) {
		t.Parallel()

		got, err := resolver.LoadTemplate(HostTemplate)
		if err != nil {
			t.Fatalf("LoadTemplate() error = %v", err)
		}
		if got == "" {
			t.Error("LoadTemplate() returned empty content from fallback")
		}
	})

	t.Run("returns error when neither has template", func(t *testing.T) {
		t.Parallel()

		_, err := resolver.LoadTemplate("nonexistent-xyz")
		if !errors.Is(err, ErrTemplateNotFound) {
			t.Errorf("LoadTemplate() error = %v, want ErrTemplateNotFound", err)
		}
	})
}

func TestAssetResolver_LoadStarter_CustomWithFallback(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "starters", "mine", "resume.md"), "# Mine")
	writeFile(t, filepath.Join(tmpDir, "starters", "mine", "theme.css"), "body{}")
	writeFile(t, filepath.Join(tmpDir, "starters", "broken", "resume.md"), "# Broken")

	resolver, err := NewAssetResolver(tmpDir)
	if err != nil {
		t.Fatalf("NewAssetResolver() error = %v", err)
	}

	t.Run("custom starter", func(t *testing.T) {
		t.Parallel()

		st, err := resolver.LoadStarter("mine")
		if err != nil {
			t.Fatalf("LoadStarter() error = %v", err)
		}
		if st.Markdown != "# Mine" {
			t.Errorf("LoadStarter() markdown = %q, want %q", st.Markdown, "# Mine")
		}
	})

	t.Run("embedded fallback", func(t *testing.T) {
		t.Parallel()

		st, err := resolver.LoadStarter(DefaultStarterName)
		if err != nil {
			t.Fatalf("LoadStarter() error = %v", err)
		}
		if st.Markdown == "" {
			t.Error("LoadStarter() returned empty markdown from fallback")
		}
	})

	t.Run("incomplete custom starter is not fallen back", func(t *testing.T) {
		t.Parallel()

		_, err := resolver.LoadStarter("broken")
		if !errors.Is(err, ErrIncompleteStarter) {
			t.Errorf("LoadStarter() error = %v, want ErrIncompleteStarter", err)
		}
	})
}

func TestAssetResolver_ValidationErrorsNotFallenBack(t *testing.T) {
	t.Parallel()

	resolver, err := NewAssetResolver(t.TempDir())
	if err != nil {
		t.Fatalf("NewAssetResolver() error = %v", err)
	}

	if _, err := resolver.LoadTemplate("../secret"); !errors.Is(err, ErrInvalidAssetName) {
		t.Errorf("LoadTemplate() error = %v, want ErrInvalidAssetName (no fallback)", err)
	}
	if _, err := resolver.LoadStarter("../secret"); !errors.Is(err, ErrInvalidAssetName) {
		t.Errorf("LoadStarter() error = %v, want ErrInvalidAssetName (no fallback)", err)
	}
}

func TestNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"template not found", ErrTemplateNotFound, true},
		{"starter not found", ErrStarterNotFound, true},
		{"wrapped", fmt.Errorf("%w: x", ErrStarterNotFound), true},
		{"incomplete starter", ErrIncompleteStarter, false},
		{"invalid name", ErrInvalidAssetName, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := notFound(tt.err); got != tt.want {
				t.Errorf("notFound(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
