package wordpress

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var flexBoolType = reflect.TypeOf(FlexBool(false))

// WordPress emits dates in site-local time without a zone suffix.
const wpTimeLayout = "2006-01-02T15:04:05"

const wordsPerMinute = 200

// Timestamp is a WordPress date. The zero value means "not set".
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Format(wpTimeLayout))
}

// ParseTime parses RFC 3339 or the zone-less WordPress layout. An empty
// string yields the zero time.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(wpTimeLayout, s)
}

func lastModified(modified, date Timestamp) time.Time {
	if !modified.IsZero() {
		return modified.Time
	}
	return date.Time
}

// Text returns the field with markup removed, entities decoded and runs of
// whitespace collapsed. Script and style contents are dropped.
func (r Rendered) Text() string {
	if r.Rendered == "" {
		return ""
	}
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(r.Rendered))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style:
				skip++
			default:
				if breaksText(name) {
					b.WriteByte(' ')
				}
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style:
				if skip > 0 {
					skip--
				}
			default:
				if breaksText(name) {
					b.WriteByte(' ')
				}
			}
		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			if breaksText(name) {
				b.WriteByte(' ')
			}
		}
	}
}

func breaksText(name []byte) bool {
	switch atom.Lookup(name) {
	case atom.Br, atom.P, atom.Div, atom.Li, atom.Ul, atom.Ol, atom.Blockquote, atom.Pre, atom.Figure,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Tr, atom.Td, atom.Th, atom.Hr:
		return true
	}
	return false
}

// readingMinutes rounds up; no words means zero minutes.
func readingMinutes(texts ...string) int {
	words := 0
	for _, t := range texts {
		words += len(strings.Fields(t))
	}
	if words == 0 {
		return 0
	}
	return (words + wordsPerMinute - 1) / wordsPerMinute
}
