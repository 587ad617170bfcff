package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseProfile(t *testing.T) {
	doc := []byte(`
format: csv
target: product
options:
  csvDelimiter: ";"
  csvHeaders: [code, name, description, stock, cost, discontinued]
  csvSkipEmptyRows: true
  groups: [import]
`)

	p, err := ParseProfile(doc)
	if err != nil {
		t.Fatalf("ParseProfile() error = %v", err)
	}

	if p.Format != "csv" || p.Target != "product" {
		t.Errorf("Format/Target = %q/%q, want csv/product", p.Format, p.Target)
	}
	if got := p.Options["csvDelimiter"]; got != ";" {
		t.Errorf("csvDelimiter = %v, want ;", got)
	}
	headers, ok := p.Options["csvHeaders"].([]any)
	if !ok || len(headers) != 6 {
		t.Fatalf("csvHeaders = %#v, want 6 entries", p.Options["csvHeaders"])
	}
	if headers[0] != "code" {
		t.Errorf("csvHeaders[0] = %v, want code", headers[0])
	}
	if got := p.Options["csvSkipEmptyRows"]; got != true {
		t.Errorf("csvSkipEmptyRows = %v, want true", got)
	}
}

func TestParseProfile_Empty(t *testing.T) {
	p, err := ParseProfile([]byte("  \n"))
	if err != nil {
		t.Fatalf("ParseProfile() error = %v", err)
	}
	if p.Format != "" || len(p.Options) != 0 {
		t.Errorf("empty profile = %+v, want zero value", p)
	}
}

func TestParseProfile_UnknownKey(t *testing.T) {
	if _, err := ParseProfile([]byte("formats: csv\n")); err == nil {
		t.Fatal("ParseProfile() expected error for unknown key")
	}
}

func TestLoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.yaml")
	if err := os.WriteFile(path, []byte("format: csv\noptions:\n  test: true\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if p.Options["test"] != true {
		t.Errorf("test option = %v, want true", p.Options["test"])
	}

	if _, err := LoadProfile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadProfile() expected error for missing file")
	}
}

func TestProfileMerge(t *testing.T) {
	p := &Profile{Options: map[string]any{
		"csvDelimiter": ";",
		"test":         true,
	}}

	got := p.Merge(map[string]any{"csvDelimiter": "|", "groups": []string{"import"}})

	if got["csvDelimiter"] != "|" {
		t.Errorf("csvDelimiter = %v, want explicit value |", got["csvDelimiter"])
	}
	if got["test"] != true {
		t.Errorf("test = %v, want profile value true", got["test"])
	}
	if _, ok := got["groups"]; !ok {
		t.Error("groups missing from merged options")
	}
	if p.Options["csvDelimiter"] != ";" {
		t.Error("Merge() must not modify the profile")
	}
}
