package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Reader turns a source into a lazy sequence of Items.
//
// Configure may be called before Load. Read may be called once per Load;
// the returned Rows own the source and release it on Close or exhaustion.
type Reader interface {
	Format() string
	Configure(opts Options) error
	Load(source any) error
	Read() (*Rows, error)
}

// ByteCounter is implemented by readers that can report consumed bytes.
type ByteCounter interface {
	BytesRead() int64
}

// Rows is a forward-only iterator over Items:
//
//	rows, err := reader.Read()
//	if err != nil { ... }
//	defer rows.Close()
//	for rows.Next() {
//	    item := rows.Item()
//	}
//	if err := rows.Err(); err != nil { ... }
type Rows struct {
	next    func() (Item, bool, error)
	release func() error

	item   Item
	err    error
	closed bool
}

func newRows(next func() (Item, bool, error), release func() error) *Rows {
	return &Rows{next: next, release: release}
}

// Next advances to the next Item. It returns false at the end of the
// source or on a read failure, and releases the source in both cases.
func (r *Rows) Next() bool {
	if r.closed {
		return false
	}
	item, ok, err := r.next()
	if err != nil || !ok {
		r.err = err
		r.Close()
		return false
	}
	r.item = item
	return true
}

// Item returns the current Item.
func (r *Rows) Item() Item {
	return r.item
}

// Err returns the read failure that stopped iteration, if any.
func (r *Rows) Err() error {
	return r.err
}

// Close releases the source. It is safe to call more than once.
func (r *Rows) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.release != nil {
		return r.release()
	}
	return nil
}

// ReaderFactory builds a fresh Reader for one run.
type ReaderFactory func() Reader

// ReaderLocator resolves a format name to a Reader.
type ReaderLocator struct {
	mu        sync.RWMutex
	factories map[string]ReaderFactory
}

// NewReaderLocator returns an empty locator.
func NewReaderLocator() *ReaderLocator {
	return &ReaderLocator{factories: make(map[string]ReaderFactory)}
}

// DefaultReaderLocator returns a locator with every built-in format.
func DefaultReaderLocator() *ReaderLocator {
	l := NewReaderLocator()
	l.Register(FormatCSV, func() Reader { return NewCSVReader() })
	return l
}

// Register adds a format. Panics if the format is already registered.
func (l *ReaderLocator) Register(format string, factory ReaderFactory) {
	l.mu.Lock()
	defer l.mu.Unlock()

	format = normalizeFormat(format)
	if _, exists := l.factories[format]; exists {
		panic(fmt.Sprintf("reader already registered: %s", format))
	}
	l.factories[format] = factory
}

// Reader returns a new Reader for format. Matching ignores case and
// surrounding whitespace.
func (l *ReaderLocator) Reader(format string) (Reader, error) {
	format = normalizeFormat(format)

	l.mu.RLock()
	factory, ok := l.factories[format]
	l.mu.RUnlock()

	if !ok {
		return nil, configErrorf("Reader for %q format was not found", format)
	}
	return factory(), nil
}

// Formats lists registered formats in alphabetical order.
func (l *ReaderLocator) Formats() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]string, 0, len(l.factories))
	for f := range l.factories {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func normalizeFormat(format string) string {
	return strings.TrimSpace(strings.ToLower(format))
}
