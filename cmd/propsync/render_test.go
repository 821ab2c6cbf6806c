package main

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderCmd(t *testing.T) {
	t.Parallel()

	t.Run("expands the address shortcode from standard input", func(t *testing.T) {
		t.Parallel()

		env := newCLIEnv(t)
		out, _, err := env.run(t, "<div>[community_address]</div>", "render", "--address", "12 Main St, Austin, TX")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "<div><h6>12 Main St</h6></div>" {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("listings shortcode defaults to the page title", func(t *testing.T) {
		t.Parallel()

		env := newCLIEnv(t)
		out, _, err := env.run(t, "[plugin_community_listings]", "render", "--title", "Eberly Trails")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(out, "[es_my_listing ") || !strings.Contains(out, `community-selection="Eberly Trails"]`) {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("display filters run only for the listing template", func(t *testing.T) {
		t.Parallel()

		env := newCLIEnv(t)
		page := writeFile(t, filepath.Join(t.TempDir(), "page.html"), "<p>Call 614-555-1234</p>")

		out, _, err := env.run(t, "", "render", page)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "<p>Call 614-555-1234</p>" {
			t.Errorf("expected content unchanged without the template, got %q", out)
		}

		out, _, err = env.run(t, "", "render", "--template", "single-properties", page)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "(614) 555-1234") {
			t.Errorf("expected formatted phone number, got %q", out)
		}
	})
}
