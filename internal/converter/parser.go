package converter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/goccy/go-yaml"
	"golang.org/x/text/unicode/norm"
)

// Format is an ingestion strategy for a source.
type Format int

const (
	// FormatStructured is a YAML document with a payload list, or a single
	// line of whitespace separated tokens.
	FormatStructured Format = iota
	// FormatTabular is comma separated text of pattern,address,other rows.
	FormatTabular
)

// ruleOptions are trailing item fields that belong to Record.Extra.
var ruleOptions = map[string]bool{
	"no-resolve": true,
	"src":        true,
}

// Detect returns the first strategy to try for source.
func Detect(source string) Format {
	p := source
	if u, err := url.Parse(source); err == nil && u.Path != "" {
		p = u.Path
	}
	switch path.Ext(p) {
	case ".yaml", ".txt":
		return FormatStructured
	default:
		return FormatTabular
	}
}

// Parse reads content into raw records. Structured sources that fail to
// parse fall back to the tabular strategy.
func (c *Converter) Parse(source, content string) []Record {
	content = norm.NFC.String(strings.TrimPrefix(content, "\ufeff"))

	if Detect(source) == FormatStructured {
		records, err := c.parseStructured(source, content)
		if err == nil {
			return records
		}
		c.warn(err)
	}
	return c.parseTabular(content)
}

func (c *Converter) parseStructured(source, content string) ([]Record, error) {
	var doc any
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, &StructuredParseError{Source: source, Err: err}
	}

	items, err := structuredItems(doc)
	if err != nil {
		return nil, &StructuredParseError{Source: source, Err: err}
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		records = append(records, c.parseItem(item))
	}
	return records, nil
}

// structuredItems extracts the item strings of a decoded document. A plain
// string document contributes the tokens of its first line.
func structuredItems(doc any) ([]string, error) {
	switch v := doc.(type) {
	case string:
		line, _, _ := strings.Cut(v, "\n")
		return strings.Fields(line), nil
	case map[string]any:
		payload, ok := v["payload"]
		if !ok {
			return nil, nil
		}
		return stringList(payload)
	case map[any]any:
		payload, ok := v["payload"]
		if !ok {
			return nil, nil
		}
		return stringList(payload)
	default:
		return nil, fmt.Errorf("unexpected document of type %T", doc)
	}
}

func stringList(payload any) ([]string, error) {
	list, ok := payload.([]any)
	if !ok {
		return nil, fmt.Errorf("payload is %T, want a list", payload)
	}
	items := make([]string, 0, len(list))
	for i, entry := range list {
		s, ok := entry.(string)
		if !ok {
			return nil, fmt.Errorf("payload[%d] is %T, want a string", i, entry)
		}
		items = append(items, s)
	}
	return items, nil
}

// parseItem splits one structured item into a record. Untagged items carry
// the suffix flag when written as +example.com or .example.com.
func (c *Converter) parseItem(item string) Record {
	item = unquote(strings.TrimSpace(item))

	if tag, rest, ok := strings.Cut(item, ","); ok {
		rec := Record{Tag: strings.TrimSpace(tag), Address: rest}
		if i := strings.LastIndex(rest, ","); i >= 0 && ruleOptions[strings.TrimSpace(rest[i+1:])] {
			rec.Address = rest[:i]
			rec.Extra = strings.TrimSpace(rest[i+1:])
		}
		rec.Address = strings.TrimSpace(rec.Address)
		return rec
	}

	rec := Record{Address: item}
	switch {
	case c.opts.KeepLeadingDot && strings.HasPrefix(item, "+"):
		rec.Suffix = true
		rec.Address = item[1:]
	case c.opts.KeepLeadingDot && strings.HasPrefix(item, "."):
		rec.Suffix = true
	case strings.HasPrefix(item, "+") || strings.HasPrefix(item, "."):
		rec.Suffix = true
		rec.Address = strings.TrimPrefix(item[1:], ".")
	}
	return rec
}

// unquote strips one pair of matching surrounding quotes.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func (c *Converter) parseTabular(content string) []Record {
	var records []Record
	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields, err := readRow(line)
		if err != nil {
			c.warn(&RowSkipped{Row: i + 1, Fields: []string{line}, Reason: err.Error()})
			continue
		}
		if len(fields) > 3 {
			c.warn(&RowSkipped{Row: i + 1, Fields: fields, Reason: fmt.Sprintf("expected 3 fields, saw %d", len(fields))})
			continue
		}
		for len(fields) < 3 {
			fields = append(fields, "")
		}

		rec := Record{Tag: strings.TrimSpace(fields[0]), Address: strings.TrimSpace(fields[1]), Extra: strings.TrimSpace(fields[2])}
		if rec.Address == "" && !strings.Contains(rec.Tag, "#") {
			c.warn(&RowSkipped{Row: i + 1, Fields: fields, Reason: "missing address"})
			continue
		}
		records = append(records, rec)
	}
	return records
}

func readRow(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	fields, err := r.Read()
	if err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("empty row")
	}
	return fields, nil
}
