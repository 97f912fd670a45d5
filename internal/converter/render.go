package converter

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
)

// Canonicalize returns a copy of doc with rules ordered by category name and
// every group's values in natural order. Integers sort before strings.
func Canonicalize(doc Document) Document {
	out := Document{Version: doc.Version, Rules: make([]Rule, 0, len(doc.Rules))}
	for _, r := range doc.Rules {
		values := append([]Value(nil), r.Values...)
		sort.SliceStable(values, func(i, j int) bool {
			return lessValue(values[i], values[j])
		})
		out.Rules = append(out.Rules, Rule{Category: r.Category, Values: values})
	}
	sort.SliceStable(out.Rules, func(i, j int) bool {
		return out.Rules[i].Category < out.Rules[j].Category
	})
	return out
}

func lessValue(a, b Value) bool {
	switch {
	case a.IsInt && b.IsInt:
		return a.Int < b.Int
	case a.IsInt != b.IsInt:
		return a.IsInt
	default:
		return a.Str < b.Str
	}
}

// Render encodes the canonical form of doc as indented JSON. Keys are
// emitted in lexicographic order; port numbers are bare JSON numbers.
func Render(doc Document) ([]byte, error) {
	raw, err := Canonicalize(doc).MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// MarshalJSON encodes the document as {"rules": [...], "version": n}.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"rules":[`)
	for i, r := range d.Rules {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := r.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteString(`],"version":`)
	buf.WriteString(strconv.Itoa(d.Version))
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON encodes the rule as a single-key object.
func (r Rule) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeString(&buf, string(r.Category)); err != nil {
		return nil, err
	}
	buf.WriteString(":[")
	for i, v := range r.Values {
		if i > 0 {
			buf.WriteByte(',')
		}
		if v.IsInt {
			buf.WriteString(strconv.FormatInt(v.Int, 10))
			continue
		}
		if err := writeString(&buf, v.Str); err != nil {
			return nil, err
		}
	}
	buf.WriteString("]}")
	return buf.Bytes(), nil
}

// MarshalJSON encodes integers as numbers and everything else as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsInt {
		return []byte(strconv.FormatInt(v.Int, 10)), nil
	}
	var buf bytes.Buffer
	if err := writeString(&buf, v.Str); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeString appends s as a JSON string without HTML escaping.
func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
