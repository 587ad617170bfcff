package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Option keys shared by readers, writers and the importer.
const (
	OptionDelimiter     = "csvDelimiter"
	OptionEnclosure     = "csvEnclosure"
	OptionEscape        = "csvEscape"
	OptionHeaders       = "csvHeaders"
	OptionNoHeaders     = "csvNoHeaders"
	OptionSkipEmptyRows = "csvSkipEmptyRows"
	OptionSanitizeUTF8  = "csvSanitizeUTF8"

	OptionTestMode = "test"
	OptionGroups   = "groups"
)

// Options is the loosely typed context handed to every stage of a run.
// Values usually come from CLI flags, query parameters or a YAML profile,
// so accessors accept the shapes those produce.
type Options map[string]any

// Char returns a single-byte option. A missing key yields def. An empty
// string yields 0 when allowEmpty is set.
func (o Options) Char(key string, def byte, allowEmpty bool) (byte, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return 0, configErrorf("%s option should be a single character, got %T", key, v)
	}
	switch {
	case len(s) == 1:
		return s[0], nil
	case s == "" && allowEmpty:
		return 0, nil
	default:
		return 0, configErrorf("%s option should be a single character, got %q", key, s)
	}
}

// Bool returns a boolean option. Missing or nil values are false.
func (o Options) Bool(key string) (bool, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return false, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case int:
		return b != 0, nil
	case int64:
		return b != 0, nil
	case float64:
		return b != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "1", "true", "yes", "y", "on":
			return true, nil
		case "", "0", "false", "no", "n", "off":
			return false, nil
		}
		return false, configErrorf("%s option should be a boolean, got %q", key, b)
	default:
		return false, configErrorf("%s option should be a boolean, got %T", key, v)
	}
}

// List returns a string list option. A string is split on commas and each
// element is trimmed. Empty elements are dropped.
func (o Options) List(key string) ([]string, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return nil, nil
	}
	var raw []string
	switch l := v.(type) {
	case string:
		if strings.TrimSpace(l) == "" {
			return nil, nil
		}
		raw = strings.Split(l, ",")
	case []string:
		raw = l
	case []any:
		raw = make([]string, 0, len(l))
		for _, e := range l {
			switch s := e.(type) {
			case string:
				raw = append(raw, s)
			case fmt.Stringer:
				raw = append(raw, s.String())
			case int:
				raw = append(raw, strconv.Itoa(s))
			default:
				return nil, configErrorf("%s option should be array or string type, got element %T", key, e)
			}
		}
	default:
		return nil, configErrorf("%s option should be array or string type, got %T", key, v)
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// Clone returns a shallow copy of o that is safe to modify.
func (o Options) Clone() Options {
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}
