package resumd

import "testing"

// ---------------------------------------------------------------------------
// TestParseMetadata - Front-matter extraction without fallback
// ---------------------------------------------------------------------------

func TestParseMetadata(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		source    string
		wantBody  string
		wantMeta  Metadata
		wantError bool
	}{
		{
			name:     "no front-matter",
			source:   "# Jane Doe\n",
			wantBody: "# Jane Doe\n",
		},
		{
			name:     "title and lang",
			source:   "---\ntitle: Jane Doe\nlang: fr\n---\n# Jane\n",
			wantBody: "# Jane\n",
			wantMeta: Metadata{Title: "Jane Doe", Lang: "fr"},
		},
		{
			name:     "values trimmed",
			source:   "---\ntitle: \"  Jane  \"\n---\nbody",
			wantBody: "body",
			wantMeta: Metadata{Title: "Jane"},
		},
		{
			name:     "blank title unset",
			source:   "---\ntitle: \"   \"\n---\nbody",
			wantBody: "body",
		},
		{
			name:     "number coerced",
			source:   "---\ntitle: 2024\n---\nbody",
			wantBody: "body",
			wantMeta: Metadata{Title: "2024"},
		},
		{
			name:     "float coerced",
			source:   "---\ntitle: 1.5\n---\nbody",
			wantBody: "body",
			wantMeta: Metadata{Title: "1.5"},
		},
		{
			name:     "bool coerced",
			source:   "---\nlang: true\n---\nbody",
			wantBody: "body",
			wantMeta: Metadata{Lang: "true"},
		},
		{
			name:     "date-shaped title kept as text",
			source:   "---\ntitle: 2024-01-02\n---\nbody",
			wantBody: "body",
			wantMeta: Metadata{Title: "2024-01-02"},
		},
		{
			name:     "list dropped",
			source:   "---\ntitle: [a, b]\n---\nbody",
			wantBody: "body",
		},
		{
			name:     "unknown keys ignored",
			source:   "---\nauthor: someone\n---\nbody",
			wantBody: "body",
		},
		{
			name:     "crlf line endings",
			source:   "---\r\ntitle: Jane\r\n---\r\nbody",
			wantBody: "body",
			wantMeta: Metadata{Title: "Jane"},
		},
		{
			name:     "unclosed block is body",
			source:   "---\ntitle: Jane\n",
			wantBody: "---\ntitle: Jane\n",
		},
		{
			name:      "invalid yaml",
			source:    "---\ntitle: [unclosed\n---\nbody",
			wantBody:  "---\ntitle: [unclosed\n---\nbody",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ParseMetadata(tt.source)
			if got.Body != tt.wantBody {
				t.Errorf("Body = %q, want %q", got.Body, tt.wantBody)
			}
			if !got.Metadata.Equal(tt.wantMeta) {
				t.Errorf("Metadata = %+v, want %+v", got.Metadata, tt.wantMeta)
			}
			if got.Error != tt.wantError {
				t.Errorf("Error = %v, want %v", got.Error, tt.wantError)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestResolve - Metadata retention across edits
// ---------------------------------------------------------------------------

func TestResolve_KeepsPreviousMetadataOnError(t *testing.T) {
	t.Parallel()

	prev := Resolve("---\ntitle: Jane Doe\nlang: en\n---\nbody", nil)
	broken := "---\ntitle: Jane Doe\nlang: [\n---\nbody"

	got := Resolve(broken, &prev)
	if !got.Error {
		t.Fatal("Error = false, want true")
	}
	if got.Body != broken {
		t.Errorf("Body = %q, want the source verbatim", got.Body)
	}
	if !got.Metadata.Equal(prev.Metadata) {
		t.Errorf("Metadata = %+v, want previous %+v", got.Metadata, prev.Metadata)
	}
}

func TestResolve_ErrorWithoutPrevious(t *testing.T) {
	t.Parallel()

	got := Resolve("---\ntitle: [\n---\nbody", nil)
	if !got.Error {
		t.Error("Error = false, want true")
	}
	if !got.Metadata.Equal(Metadata{}) {
		t.Errorf("Metadata = %+v, want empty", got.Metadata)
	}
}

func TestResolve_ValidSourceIgnoresPrevious(t *testing.T) {
	t.Parallel()

	prev := Resolve("---\ntitle: Old\n---\nbody", nil)
	got := Resolve("# no header", &prev)

	if got.Error {
		t.Error("Error = true for a source without front-matter")
	}
	if got.Metadata.Title != "" {
		t.Errorf("Title = %q, want empty (header removed)", got.Metadata.Title)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	t.Parallel()

	src := "---\ntitle: Jane\n---\n# Jane\n"
	a, b := Resolve(src, nil), Resolve(src, nil)
	if a != b {
		t.Errorf("Resolve() not deterministic: %+v vs %+v", a, b)
	}
}

func TestMetadata_Equal(t *testing.T) {
	t.Parallel()

	base := Metadata{Title: "A", Lang: "en"}
	if !base.Equal(Metadata{Title: "A", Lang: "en"}) {
		t.Error("Equal() = false for identical metadata")
	}
	if base.Equal(Metadata{Title: "A", Lang: "fr"}) {
		t.Error("Equal() = true for different lang")
	}
	if base.Equal(Metadata{Title: "B", Lang: "en"}) {
		t.Error("Equal() = true for different title")
	}
}
