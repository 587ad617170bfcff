package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/productimport/internal/config"
	"github.com/JonMunkholm/productimport/internal/core"
	_ "github.com/JonMunkholm/productimport/internal/core/targets"
	"github.com/JonMunkholm/productimport/internal/report"
)

const scenarioCSV = `code,name,description,stock,cost,discontinued
P0001,TV,32 inch TV,10,399.99,
P0002,Cd Player,Nice CD player,11,50.12,yes
P0003,Radio,Old radio
P0004,Mouse,Wireless mouse,ten,12.5,
P0005,Laptop,Gaming laptop,20,1001,
P0006,Pen,Blue pen,9,4,
`

type countingWriter struct {
	dry    bool
	writes int
}

func (w *countingWriter) Configure(opts core.Options) error {
	dry, err := core.DryRunMode(opts)
	w.dry = dry
	return err
}

func (w *countingWriter) Write(context.Context, any) error {
	if !w.dry {
		w.writes++
	}
	return nil
}

func (w *countingWriter) Finish(context.Context) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080},
		Import: config.ImportConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 1,
			MaxWait:       20 * time.Millisecond,
			Timeout:       time.Minute,
			DefaultFormat: "csv",
			DefaultTarget: "product",
			Groups:        []string{core.GroupImport},
		},
	}
}

type fixture struct {
	srv     *Server
	limiter *core.RunLimiter
	writer  *countingWriter
}

func newFixture(t *testing.T, cfg *config.Config, health HealthFunc) *fixture {
	t.Helper()
	w := &countingWriter{}
	im := core.NewImporter(core.DefaultReaderLocator(),
		func(core.TargetDefinition) core.Writer { return w },
		core.WithDefaultGroups(cfg.Import.Groups...))
	limiter := core.NewRunLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWait)
	return &fixture{
		srv:     NewServer(cfg, im, limiter, health),
		limiter: limiter,
		writer:  w,
	}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v (body %q)", err, rec.Body.String())
	}
	return resp
}

func TestImport_RawBody(t *testing.T) {
	f := newFixture(t, testConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/imports", strings.NewReader(scenarioCSV))
	rec := f.do(req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var resp report.Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Processed != 6 || resp.Succeeded != 2 || resp.Failed != 4 {
		t.Errorf("summary = %+v, want 6/2/4", resp.Summary)
	}
	if resp.RunID == "" {
		t.Error("run id is empty")
	}
	if len(resp.Failures) != 4 || resp.Failures[0].Line != 4 {
		t.Errorf("failures = %+v", resp.Failures)
	}
	if f.writer.writes != 2 {
		t.Errorf("writes = %d, want 2", f.writer.writes)
	}
}

func TestImport_MultipartDryRun(t *testing.T) {
	f := newFixture(t, testConfig(), nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "products.csv")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte(scenarioCSV))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/imports?test", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := f.do(req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var resp report.Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.DryRun {
		t.Error("DryRun = false, want true")
	}
	if resp.Succeeded != 2 {
		t.Errorf("Succeeded = %d, want 2", resp.Succeeded)
	}
	if f.writer.writes != 0 {
		t.Errorf("writes = %d in dry run, want 0", f.writer.writes)
	}
}

func TestImport_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		body     string
		wantCode int
		wantErr  string
	}{
		{"unknown format", "?format=xml", scenarioCSV, http.StatusBadRequest, "CFG002"},
		{"unknown target", "?target=invoice", scenarioCSV, http.StatusBadRequest, "CFG003"},
		{"bad delimiter", "?delimiter=%3B%3B", scenarioCSV, http.StatusBadRequest, "CFG001"},
		{"too large", "", strings.Repeat("x", 2<<20), http.StatusRequestEntityTooLarge, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, testConfig(), nil)
			req := httptest.NewRequest(http.MethodPost, "/api/imports"+tt.query, strings.NewReader(tt.body))
			rec := f.do(req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantErr != "" {
				if got := decodeError(t, rec).Code; got != tt.wantErr {
					t.Errorf("code = %q, want %q", got, tt.wantErr)
				}
			}
		})
	}
}

func TestImport_Busy(t *testing.T) {
	f := newFixture(t, testConfig(), nil)
	if !f.limiter.TryAcquire() {
		t.Fatal("TryAcquire failed on an idle limiter")
	}
	defer f.limiter.Release()

	req := httptest.NewRequest(http.MethodPost, "/api/imports", strings.NewReader(scenarioCSV))
	rec := f.do(req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
	if got := decodeError(t, rec).Code; got != "IMP001" {
		t.Errorf("code = %q, want IMP001", got)
	}
}

func TestHealth(t *testing.T) {
	ok := newFixture(t, testConfig(), func(context.Context) error { return nil })
	rec := ok.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthy status = %d, want 200", rec.Code)
	}

	down := newFixture(t, testConfig(), func(context.Context) error {
		return errors.New("dial tcp: connection refused")
	})
	rec = down.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unhealthy status = %d, want 503", rec.Code)
	}
	if got := decodeError(t, rec).Code; got != "DB004" {
		t.Errorf("code = %q, want DB004", got)
	}
}

func TestListTargets(t *testing.T) {
	f := newFixture(t, testConfig(), nil)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/targets", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp targetsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Formats) != 1 || resp.Formats[0] != "csv" {
		t.Errorf("Formats = %v, want [csv]", resp.Formats)
	}
	found := false
	for _, info := range resp.Targets {
		if info.Key == "product" {
			found = true
		}
	}
	if !found {
		t.Errorf("Targets = %+v, want product", resp.Targets)
	}
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}}
	f := newFixture(t, cfg, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/imports/status", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("without key status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/imports/status", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = f.do(req)
	if rec.Code != http.StatusOK {
		t.Errorf("with key status = %d, want 200", rec.Code)
	}

	// Health stays public.
	rec = f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}
}

func TestImportOptions(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost,
		"/api/imports?test&delimiter=%3B&groups=default&groups=import&no_headers=0", nil)
	opts := importOptions(req.URL.Query())

	if opts[core.OptionTestMode] != "true" {
		t.Errorf("test = %v, want true", opts[core.OptionTestMode])
	}
	if opts[core.OptionDelimiter] != ";" {
		t.Errorf("delimiter = %v, want ;", opts[core.OptionDelimiter])
	}
	if opts[core.OptionNoHeaders] != "0" {
		t.Errorf("no_headers = %v, want 0", opts[core.OptionNoHeaders])
	}
	groups, err := opts.List(core.OptionGroups)
	if err != nil || len(groups) != 2 {
		t.Errorf("groups = %v, %v", groups, err)
	}
}
