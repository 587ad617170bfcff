package core

import (
	"bufio"
	"io"
	"reflect"
	"strings"
	"testing"
)

func tokenize(t *testing.T, input string, delim, quote, escape byte) ([][]string, bool) {
	t.Helper()
	tok := newTokenizer(bufio.NewReader(strings.NewReader(input)), delim, quote, escape)
	var records [][]string
	unterminated := false
	for {
		rec, u, err := tok.next()
		if err == io.EOF {
			return records, unterminated
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		records = append(records, rec)
		unterminated = unterminated || u
	}
}

func TestTokenizer(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected [][]string
	}{
		{
			name:     "simple rows",
			input:    "a,b,c\n1,2,3\n",
			expected: [][]string{{"a", "b", "c"}, {"1", "2", "3"}},
		},
		{
			name:     "no trailing newline",
			input:    "a,b\n1,2",
			expected: [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:     "CRLF line endings",
			input:    "a,b\r\n1,2\r\n",
			expected: [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:     "lone CR line endings",
			input:    "a,b\r1,2\r",
			expected: [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:     "blank line is one empty field",
			input:    "a,b\n\n1,2\n",
			expected: [][]string{{"a", "b"}, {""}, {"1", "2"}},
		},
		{
			name:     "empty fields",
			input:    ",,\n",
			expected: [][]string{{"", "", ""}},
		},
		{
			name:     "quoted delimiter",
			input:    `"a,b",c` + "\n",
			expected: [][]string{{"a,b", "c"}},
		},
		{
			name:     "doubled quotes",
			input:    `"say ""hi""",x` + "\n",
			expected: [][]string{{`say "hi"`, "x"}},
		},
		{
			name:     "embedded newline",
			input:    "\"line1\nline2\",x\n",
			expected: [][]string{{"line1\nline2", "x"}},
		},
		{
			name:     "escape keeps next byte",
			input:    `"a\"b",c` + "\n",
			expected: [][]string{{`a\"b`, "c"}},
		},
		{
			name:     "text after closing quote is appended",
			input:    `"ab"cd,e` + "\n",
			expected: [][]string{{"abcd", "e"}},
		},
		{
			name:     "quote inside unquoted field is literal",
			input:    `ab"cd,e` + "\n",
			expected: [][]string{{`ab"cd`, "e"}},
		},
		{
			name:     "quoted field at end of input",
			input:    `a,"b"`,
			expected: [][]string{{"a", "b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, unterminated := tokenize(t, tt.input, ',', '"', '\\')
			if unterminated {
				t.Error("unterminated = true, want false")
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestTokenizer_CustomCharacters(t *testing.T) {
	got, _ := tokenize(t, "'a;b';c\n", ';', '\'', 0)
	want := [][]string{{"a;b", "c"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTokenizer_EscapeEqualToQuoteIsDisabled(t *testing.T) {
	got, _ := tokenize(t, `"a""b"`+"\n", ',', '"', '"')
	want := [][]string{{`a"b`}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTokenizer_Unterminated(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"open quote", "a,\"bc\nd\n", []string{"a", "bc\nd\n"}},
		{"escape at end", `"ab\`, []string{`ab\`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, unterminated := tokenize(t, tt.input, ',', '"', '\\')
			if !unterminated {
				t.Fatal("unterminated = false, want true")
			}
			if len(got) != 1 || !reflect.DeepEqual(got[0], tt.want) {
				t.Errorf("got %q, want one record %q", got, tt.want)
			}
		})
	}
}
