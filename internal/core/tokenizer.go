package core

import (
	"bufio"
	"io"
)

// tokenizer splits a byte stream into delimited records, one at a time.
//
// Quoting rules:
//   - a field that opens with the enclosure byte is quoted and may contain
//     delimiters and line breaks
//   - inside quotes a doubled enclosure yields one enclosure byte
//   - inside quotes the escape byte and the byte after it are kept literally,
//     and that byte never closes the field
//   - bytes between a closing enclosure and the next delimiter are appended
//   - an enclosure byte inside an unquoted field is literal
//
// Records end at LF, CRLF or a lone CR. A blank line is a record with one
// empty field. A trailing line break does not start another record.
type tokenizer struct {
	r      *bufio.Reader
	delim  byte
	quote  byte
	escape byte // 0 disables escaping

	field []byte
	width int
}

type tokenState int

const (
	stateFieldStart tokenState = iota
	statePlain
	stateQuoted
	stateAfterQuote
)

func newTokenizer(r *bufio.Reader, delim, quote, escape byte) *tokenizer {
	if escape == quote {
		escape = 0
	}
	return &tokenizer{r: r, delim: delim, quote: quote, escape: escape}
}

// next returns the next record. unterminated is set when the stream ended
// inside a quoted field. io.EOF is returned once no bytes remain.
func (t *tokenizer) next() (record []string, unterminated bool, err error) {
	b, err := t.r.ReadByte()
	if err != nil {
		return nil, false, err
	}

	record = make([]string, 0, t.width)
	t.field = t.field[:0]
	state := stateFieldStart

	emit := func() {
		record = append(record, string(t.field))
		t.field = t.field[:0]
	}
	finish := func() ([]string, bool, error) {
		emit()
		if len(record) > t.width {
			t.width = len(record)
		}
		return record, false, nil
	}

	for {
		switch state {
		case stateFieldStart:
			if b == t.quote {
				state = stateQuoted
				break
			}
			state = statePlain
			continue

		case statePlain, stateAfterQuote:
			switch b {
			case t.delim:
				emit()
				state = stateFieldStart
			case '\n':
				return finish()
			case '\r':
				if err := t.skipLF(); err != nil {
					return nil, false, err
				}
				return finish()
			default:
				t.field = append(t.field, b)
			}

		case stateQuoted:
			switch {
			case t.escape != 0 && b == t.escape:
				t.field = append(t.field, b)
				nb, err := t.r.ReadByte()
				if err == io.EOF {
					emit()
					return record, true, nil
				}
				if err != nil {
					return nil, false, err
				}
				t.field = append(t.field, nb)
			case b == t.quote:
				nb, err := t.r.ReadByte()
				switch {
				case err == io.EOF:
					return finish()
				case err != nil:
					return nil, false, err
				case nb == t.quote:
					t.field = append(t.field, t.quote)
				default:
					_ = t.r.UnreadByte()
					state = stateAfterQuote
				}
			default:
				t.field = append(t.field, b)
			}
		}

		b, err = t.r.ReadByte()
		if err == io.EOF {
			if state == stateQuoted {
				emit()
				return record, true, nil
			}
			return finish()
		}
		if err != nil {
			return nil, false, err
		}
	}
}

// skipLF consumes the LF of a CRLF pair.
func (t *tokenizer) skipLF() error {
	nb, err := t.r.ReadByte()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	if nb != '\n' {
		return t.r.UnreadByte()
	}
	return nil
}
