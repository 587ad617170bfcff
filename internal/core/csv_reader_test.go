package core

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
)

func readAll(t *testing.T, r *CSVReader, source any) ([]Item, error) {
	t.Helper()
	if err := r.Load(source); err != nil {
		t.Fatalf("Load: %v", err)
	}
	rows, err := r.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		items = append(items, rows.Item())
	}
	return items, rows.Err()
}

func newConfigured(t *testing.T, opts Options) *CSVReader {
	t.Helper()
	r := NewCSVReader()
	if err := r.Configure(opts); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	return r
}

func TestCSVReader_HeaderRow(t *testing.T) {
	r := newConfigured(t, nil)
	items, err := readAll(t, r, strings.NewReader("code, name \nP1,TV\nP2,Radio\n"))
	if err != nil {
		t.Fatal(err)
	}

	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	first := items[0]
	if first.Index != 1 || first.Line() != 2 {
		t.Errorf("Index = %d, Line = %d, want 1 and 2", first.Index, first.Line())
	}
	want := map[string]string{"code": "P1", "name": "TV"}
	if !reflect.DeepEqual(first.Fields, want) {
		t.Errorf("Fields = %v, want %v", first.Fields, want)
	}
	if !reflect.DeepEqual(first.Values, []string{"P1", "TV"}) {
		t.Errorf("Values = %q", first.Values)
	}
}

func TestCSVReader_BOMIsInvisible(t *testing.T) {
	plain := "code,name\nP1,TV\n"
	withBOM := "\xEF\xBB\xBF" + plain

	a, err := readAll(t, newConfigured(t, nil), strings.NewReader(plain))
	if err != nil {
		t.Fatal(err)
	}
	b, err := readAll(t, newConfigured(t, nil), strings.NewReader(withBOM))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("BOM changed the items: %+v vs %+v", a, b)
	}
	if _, ok := b[0].Fields["code"]; !ok {
		t.Errorf("first header kept the BOM: %v", b[0].Fields)
	}
}

func TestCSVReader_ColumnCountMismatch(t *testing.T) {
	items, err := readAll(t, newConfigured(t, nil), strings.NewReader("a,b,c\n1,2\n1,2,3\n1,2,3,4\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}

	wantErr := []string{MsgWrongColumnCount, "", MsgWrongColumnCount}
	for i, item := range items {
		if item.Err != wantErr[i] {
			t.Errorf("item %d Err = %q, want %q", i, item.Err, wantErr[i])
		}
	}
	if items[0].Fields != nil {
		t.Error("mismatched row should carry no fields")
	}
	if !reflect.DeepEqual(items[0].Values, []string{"1", "2"}) {
		t.Errorf("mismatched row Values = %q", items[0].Values)
	}
}

func TestCSVReader_UnterminatedEnclosure(t *testing.T) {
	items, err := readAll(t, newConfigured(t, nil), strings.NewReader("a,b\n1,\"2\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Err != MsgUnterminatedEnclosure {
		t.Errorf("items = %+v, want one unterminated row", items)
	}
}

func TestCSVReader_SkipEmptyRows(t *testing.T) {
	input := "a,b\n\n1,2\n , \n3,4\n"

	items, err := readAll(t, newConfigured(t, Options{OptionSkipEmptyRows: true}), strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	// Skipped rows still count toward line numbers.
	if items[0].Line() != 3 || items[1].Line() != 5 {
		t.Errorf("lines = %d, %d, want 3, 5", items[0].Line(), items[1].Line())
	}

	items, err = readAll(t, newConfigured(t, nil), strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 4 {
		t.Fatalf("without skipping got %d items, want 4", len(items))
	}
	if items[0].Err != MsgWrongColumnCount {
		t.Errorf("blank row Err = %q, want %q", items[0].Err, MsgWrongColumnCount)
	}
}

func TestCSVReader_ExplicitHeaders(t *testing.T) {
	r := newConfigured(t, Options{OptionHeaders: "x, y"})
	items, err := readAll(t, r, strings.NewReader("a,b\n1,2\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1 (header row skipped)", len(items))
	}
	want := map[string]string{"x": "1", "y": "2"}
	if !reflect.DeepEqual(items[0].Fields, want) {
		t.Errorf("Fields = %v, want %v", items[0].Fields, want)
	}
}

func TestCSVReader_NoHeaders(t *testing.T) {
	items, err := readAll(t, newConfigured(t, Options{OptionNoHeaders: true}), strings.NewReader("1,2\n3,4\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if !items[0].Headerless() || items[0].Index != 0 {
		t.Errorf("first item = %+v, want headerless at index 0", items[0])
	}

	r := newConfigured(t, Options{OptionNoHeaders: "yes", OptionHeaders: []string{"x", "y"}})
	items, err = readAll(t, r, strings.NewReader("1,2\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Fields["y"] != "2" {
		t.Errorf("items = %+v, want explicit headers applied to the first row", items)
	}
}

func TestCSVReader_HeaderOnly(t *testing.T) {
	items, err := readAll(t, newConfigured(t, nil), strings.NewReader("a,b\n"))
	if err != nil || len(items) != 0 {
		t.Errorf("items = %v, err = %v, want none", items, err)
	}
	items, err = readAll(t, newConfigured(t, nil), strings.NewReader(""))
	if err != nil || len(items) != 0 {
		t.Errorf("empty source items = %v, err = %v, want none", items, err)
	}
}

func TestCSVReader_CustomCharacters(t *testing.T) {
	r := newConfigured(t, Options{OptionDelimiter: ";", OptionEnclosure: "'", OptionEscape: ""})
	items, err := readAll(t, r, strings.NewReader("a;b\n'x;y';z\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Fields["a"] != "x;y" {
		t.Errorf("items = %+v", items)
	}
}

func TestCSVReader_SanitizeUTF8(t *testing.T) {
	r := newConfigured(t, Options{OptionSanitizeUTF8: true})
	items, err := readAll(t, r, strings.NewReader("a\nx\x80y\n"))
	if err != nil {
		t.Fatal(err)
	}
	if items[0].Fields["a"] != "x?y" {
		t.Errorf("value = %q, want %q", items[0].Fields["a"], "x?y")
	}
	if r.BytesRead() != 6 {
		t.Errorf("BytesRead = %d, want 6", r.BytesRead())
	}
}

func TestCSVReader_ConfigureErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"long delimiter", Options{OptionDelimiter: ";;"}},
		{"empty delimiter", Options{OptionDelimiter: ""}},
		{"numeric enclosure", Options{OptionEnclosure: 1}},
		{"same delimiter and enclosure", Options{OptionDelimiter: `"`}},
		{"newline delimiter", Options{OptionDelimiter: "\n"}},
		{"headers of wrong type", Options{OptionHeaders: 42}},
		{"bad boolean", Options{OptionNoHeaders: "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewCSVReader().Configure(tt.opts)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrConfig) {
				t.Errorf("error %v is not ErrConfig", err)
			}
		})
	}
}

func TestCSVReader_ConfigureResetsOptions(t *testing.T) {
	r := newConfigured(t, Options{OptionDelimiter: ";"})
	if err := r.Configure(nil); err != nil {
		t.Fatal(err)
	}
	if r.opts.delimiter != ',' {
		t.Errorf("delimiter = %q, want default", r.opts.delimiter)
	}
}

func TestCSVReader_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "products.csv")
	if err := os.WriteFile(path, []byte("a\n1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	items, err := readAll(t, newConfigured(t, nil), path)
	if err != nil || len(items) != 1 {
		t.Errorf("items = %v, err = %v", items, err)
	}
}

func TestCSVReader_LoadErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		source   any
		class    error
		wantCode string
	}{
		{"missing file", filepath.Join(dir, "missing.csv"), ErrSource, "SRC001"},
		{"directory", dir, ErrSource, "SRC002"},
		{"unsupported type", 42, ErrConfig, "CFG001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewCSVReader().Load(tt.source)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.class) {
				t.Errorf("error %v has the wrong class", err)
			}
			if got := MapError(err).Code; got != tt.wantCode {
				t.Errorf("code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

type closeTracker struct {
	*strings.Reader
	closed int
}

func (c *closeTracker) Close() error {
	c.closed++
	return nil
}

func TestCSVReader_ReadOnce(t *testing.T) {
	src := &closeTracker{Reader: strings.NewReader("a\n1\n")}
	r := newConfigured(t, nil)

	if _, err := readAll(t, r, src); err != nil {
		t.Fatal(err)
	}
	if src.closed != 1 {
		t.Errorf("source closed %d times, want 1", src.closed)
	}

	_, err := r.Read()
	if err == nil || !strings.Contains(err.Error(), "already consumed") {
		t.Errorf("second Read err = %v, want already consumed", err)
	}

	r2 := NewCSVReader()
	if _, err := r2.Read(); err == nil || !strings.Contains(err.Error(), "no source loaded") {
		t.Errorf("Read without Load err = %v", err)
	}
}
