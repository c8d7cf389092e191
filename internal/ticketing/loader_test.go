package ticketing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/meridian-ops/voclens/internal/logging"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoadExport_JSONArray(t *testing.T) {
	path := writeFile(t, "export.json", `[
		{"id": "c1", "state": "closed"},
		{"id": "c2"}
	]`)

	convs, err := LoadExport(path, logging.New("error"))
	if err != nil {
		t.Fatalf("LoadExport: %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(convs))
	}
	if convs[0].ID != "c1" || convs[0].State != StateClosed {
		t.Errorf("unexpected first conversation %+v", convs[0])
	}
}

func TestLoadExport_JSONL(t *testing.T) {
	path := writeFile(t, "export.jsonl",
		`{"id": "c1"}`+"\n"+
			"\n"+
			`not json at all`+"\n"+
			`{"id": "c2"}`+"\n")

	convs, err := LoadExport(path, logging.New("error"))
	if err != nil {
		t.Fatalf("LoadExport: %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("expected malformed line skipped, got %d conversations", len(convs))
	}
	if convs[1].ID != "c2" {
		t.Errorf("unexpected second id %q", convs[1].ID)
	}
}

func TestLoadExport_MissingIDDefaulted(t *testing.T) {
	path := writeFile(t, "export.json", `[{"state": "open"}]`)

	convs, err := LoadExport(path, logging.New("error"))
	if err != nil {
		t.Fatalf("LoadExport: %v", err)
	}
	if len(convs) != 1 || convs[0].ID != "record-0" {
		t.Errorf("expected positional id, got %+v", convs)
	}
}

func TestLoadExport_MissingFile(t *testing.T) {
	if _, err := LoadExport("/nonexistent/export.json", logging.New("error")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadExport_MalformedArray(t *testing.T) {
	path := writeFile(t, "export.json", `{"not": "an array"}`)

	if _, err := LoadExport(path, logging.New("error")); err == nil {
		t.Error("expected error for non-array export")
	}
}
