package web

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/JonMunkholm/productimport/internal/core"
	"github.com/JonMunkholm/productimport/internal/logging"
	"github.com/JonMunkholm/productimport/internal/report"
)

// multipartMemory is the part of a multipart body kept in memory; the rest
// spills to temporary files.
const multipartMemory = 8 << 20

// queryOptions maps query parameters to importer options.
var queryOptions = map[string]string{
	"delimiter":       core.OptionDelimiter,
	"enclosure":       core.OptionEnclosure,
	"escape":          core.OptionEscape,
	"headers":         core.OptionHeaders,
	"no_headers":      core.OptionNoHeaders,
	"skip_empty_rows": core.OptionSkipEmptyRows,
	"sanitize_utf8":   core.OptionSanitizeUTF8,
	"test":            core.OptionTestMode,
}

// importOptions builds run options from the query string. Flags given
// without a value, as in ?test, count as set.
func importOptions(q url.Values) core.Options {
	opts := core.Options{}
	for param, key := range queryOptions {
		vals, ok := q[param]
		if !ok {
			continue
		}
		v := ""
		if len(vals) > 0 {
			v = vals[0]
		}
		if v == "" && isFlag(key) {
			v = "true"
		}
		opts[key] = v
	}
	if groups := q["groups"]; len(groups) > 0 {
		opts[core.OptionGroups] = strings.Join(groups, ",")
	}
	return opts
}

func isFlag(key string) bool {
	switch key {
	case core.OptionNoHeaders, core.OptionSkipEmptyRows, core.OptionSanitizeUTF8, core.OptionTestMode:
		return true
	}
	return false
}

// requestSource returns the uploaded file of a multipart request or the
// raw body otherwise.
func requestSource(r *http.Request) (io.ReadCloser, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.Body, nil
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, err
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	return file, nil
}

// handleImport runs one import synchronously and answers with the report.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = s.cfg.Import.DefaultFormat
	}
	target := q.Get("target")
	if target == "" {
		target = s.cfg.Import.DefaultTarget
	}
	opts := importOptions(q)

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)
	source, err := requestSource(r)
	if err != nil {
		if statusFor(err) == http.StatusRequestEntityTooLarge {
			s.respondError(w, r, err, http.StatusRequestEntityTooLarge)
			return
		}
		badRequest(w, "no file provided or invalid form")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Import.Timeout)
	defer cancel()

	if err := s.limiter.Acquire(ctx); err != nil {
		source.Close()
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer s.limiter.Release()

	// The reader takes ownership of source and closes it when the rows end.
	result, err := s.importer.Import(ctx, source, format, target, nil, opts)
	if err != nil {
		if result != nil {
			logging.FromContext(ctx).Warn("import ended early",
				"run_id", result.RunID,
				"processed", result.Processed(),
			)
		} else {
			source.Close()
		}
		s.respondError(w, r, err, statusFor(err))
		return
	}

	dryRun, _ := core.DryRunMode(opts)
	writeJSON(w, report.NewResponse(result, dryRun))
}
