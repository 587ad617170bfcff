package core

// Item is one physical source row as produced by a Reader.
//
// Index is zero-based and counts every physical record the reader consumed,
// including the header row and skipped blank rows, so Index+1 is the line a
// user sees in the file. Fields is set when headers are in effect and the
// column count matched; headerless items carry only Values.
type Item struct {
	Index  int
	Fields map[string]string
	Values []string
	Err    string
}

// OK reports whether the item parsed cleanly.
func (it Item) OK() bool {
	return it.Err == ""
}

// Line is the one-based position shown in reports.
func (it Item) Line() int {
	return it.Index + 1
}

// Headerless reports whether the item carries positional values only.
func (it Item) Headerless() bool {
	return it.Fields == nil
}
