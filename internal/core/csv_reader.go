package core

import (
	"bufio"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

// FormatCSV is the format name of CSVReader.
const FormatCSV = "csv"

const csvBufferSize = 64 << 10

type csvOptions struct {
	delimiter     byte
	enclosure     byte
	escape        byte
	headers       []string
	noHeaders     bool
	skipEmptyRows bool
	sanitizeUTF8  bool
}

func defaultCSVOptions() csvOptions {
	return csvOptions{
		delimiter: ',',
		enclosure: '"',
		escape:    '\\',
	}
}

// CSVReader reads delimited text.
//
// Header handling:
//   - explicit headers, headers present: the first record is skipped
//   - no explicit headers, headers present: the first record becomes the headers
//   - no headers present: nothing is skipped; explicit headers, if any, still name the columns
type CSVReader struct {
	opts csvOptions

	src    io.Reader
	closer io.Closer
	name   string

	counter  *countingReader
	consumed bool
}

// NewCSVReader returns a reader with default options.
func NewCSVReader() *CSVReader {
	return &CSVReader{opts: defaultCSVOptions()}
}

// Format implements Reader.
func (r *CSVReader) Format() string {
	return FormatCSV
}

// Configure replaces the reader options. Keys that are absent take their
// defaults, not the values of an earlier call.
func (r *CSVReader) Configure(opts Options) error {
	o := defaultCSVOptions()
	var err error

	if o.delimiter, err = opts.Char(OptionDelimiter, o.delimiter, false); err != nil {
		return err
	}
	if o.enclosure, err = opts.Char(OptionEnclosure, o.enclosure, false); err != nil {
		return err
	}
	if o.escape, err = opts.Char(OptionEscape, o.escape, true); err != nil {
		return err
	}
	if o.headers, err = opts.List(OptionHeaders); err != nil {
		return err
	}
	if o.noHeaders, err = opts.Bool(OptionNoHeaders); err != nil {
		return err
	}
	if o.skipEmptyRows, err = opts.Bool(OptionSkipEmptyRows); err != nil {
		return err
	}
	if o.sanitizeUTF8, err = opts.Bool(OptionSanitizeUTF8); err != nil {
		return err
	}

	if o.delimiter == o.enclosure {
		return configErrorf("%s and %s must differ", OptionDelimiter, OptionEnclosure)
	}
	for _, c := range []byte{o.delimiter, o.enclosure} {
		if c == '\n' || c == '\r' {
			return configErrorf("line breaks cannot be used as %s or %s", OptionDelimiter, OptionEnclosure)
		}
	}

	r.opts = o
	return nil
}

// Load accepts an io.Reader or a file path. A reader that also implements
// io.Closer is closed together with the Rows.
func (r *CSVReader) Load(source any) error {
	r.release()

	switch s := source.(type) {
	case string:
		f, err := openSource(s)
		if err != nil {
			return err
		}
		r.src, r.closer, r.name = f, f, s
	case io.Reader:
		r.src, r.name = s, "stream"
		if c, ok := s.(io.Closer); ok {
			r.closer = c
		}
	default:
		return configErrorf("unsupported source type %T", source)
	}

	r.consumed = false
	r.counter = nil
	return nil
}

func openSource(path string) (*os.File, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, sourceErrorf(nil, "File does not exist %s", path)
	case err == nil && info.IsDir():
		return nil, sourceErrorf(nil, "Given path '%s' is a directory", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, sourceErrorf(err, "Can't open file %s", path)
	}
	return f, nil
}

func (r *CSVReader) release() error {
	var err error
	if r.closer != nil {
		err = r.closer.Close()
	}
	r.src, r.closer = nil, nil
	return err
}

// BytesRead reports how many source bytes the current Rows consumed.
func (r *CSVReader) BytesRead() int64 {
	return r.counter.BytesRead()
}

// Read starts iterating the loaded source.
func (r *CSVReader) Read() (*Rows, error) {
	if r.src == nil {
		if r.consumed {
			return nil, configErrorf("source already consumed; load it again to re-read")
		}
		return nil, configErrorf("no source loaded")
	}
	r.consumed = true

	r.counter = newCountingReader(r.src)
	var in io.Reader = r.counter
	if r.opts.sanitizeUTF8 {
		in = newUTF8Sanitizer(in)
	}

	br := bufio.NewReaderSize(in, csvBufferSize)
	if err := skipBOM(br); err != nil {
		r.release()
		return nil, sourceErrorf(err, "read %s", r.name)
	}

	it := &csvIterator{
		tok:     newTokenizer(br, r.opts.delimiter, r.opts.enclosure, r.opts.escape),
		opts:    r.opts,
		headers: append([]string(nil), r.opts.headers...),
		name:    r.name,
	}
	return newRows(it.next, r.release), nil
}

type csvIterator struct {
	tok      *tokenizer
	opts     csvOptions
	headers  []string
	name     string
	index    int
	resolved bool
}

func (it *csvIterator) next() (Item, bool, error) {
	if !it.resolved {
		it.resolved = true
		if ok, err := it.resolveHeaders(); !ok || err != nil {
			return Item{}, false, err
		}
	}

	for {
		record, unterminated, err := it.tok.next()
		if err == io.EOF {
			return Item{}, false, nil
		}
		if err != nil {
			return Item{}, false, sourceErrorf(err, "read %s at row %d", it.name, it.index+1)
		}

		index := it.index
		it.index++

		if it.opts.skipEmptyRows && isBlankRecord(record) {
			continue
		}

		item := Item{Index: index, Values: record}
		switch {
		case unterminated:
			item.Err = MsgUnterminatedEnclosure
		case len(it.headers) > 0:
			if len(record) != len(it.headers) {
				item.Err = MsgWrongColumnCount
				break
			}
			item.Fields = make(map[string]string, len(record))
			for i, h := range it.headers {
				item.Fields[h] = record[i]
			}
		}
		return item, true, nil
	}
}

// resolveHeaders consumes the header record when the file has one.
// It returns false when the source ends before any data row.
func (it *csvIterator) resolveHeaders() (bool, error) {
	if it.opts.noHeaders {
		return true, nil
	}

	record, _, err := it.tok.next()
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, sourceErrorf(err, "read %s header", it.name)
	}
	it.index++

	if len(it.headers) == 0 {
		it.headers = make([]string, len(record))
		for i, h := range record {
			it.headers[i] = strings.TrimSpace(h)
		}
	}
	return true, nil
}

func isBlankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
