package capture

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeDefaults(t *testing.T) {
	o := Options{URL: "http://127.0.0.1:8080/", OutputPath: "week.png"}
	if err := o.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if o.Width != DefaultWidth || o.Height != DefaultHeight || o.Timeout != DefaultTimeout || o.ReadySelector != DefaultReadySelector {
		t.Errorf("defaults not applied: %+v", o)
	}
}

func TestCapturePNGRequiresURLAndOutput(t *testing.T) {
	cases := []Options{
		{OutputPath: "week.png"},
		{URL: "http://127.0.0.1:8080/"},
	}
	for _, o := range cases {
		if err := CapturePNG(context.Background(), o); err == nil {
			t.Errorf("CapturePNG(%+v) should fail", o)
		}
	}
}

func TestAuthHeader(t *testing.T) {
	if got := authHeader("admin", "secret"); got != "Basic YWRtaW46c2VjcmV0" {
		t.Errorf("authHeader = %q", got)
	}
	if got := authHeader("admin", ""); got != "" {
		t.Errorf("authHeader without password = %q", got)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "week.png")
	if err := writeFileAtomic(path, []byte("first")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writeFileAtomic(path, []byte("second")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "second" {
		t.Fatalf("read = %q, %v", got, err)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}
