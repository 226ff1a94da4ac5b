// Package svg is a small retained-mode SVG scene. Elements stay addressable
// after creation so callers can restyle them in place and serialize the
// whole document whenever it needs to be shown.
package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Attr is a single element attribute.
type Attr struct {
	Key   string
	Value string
}

// Element is a node of the scene tree.
type Element struct {
	Name     string
	Attrs    []Attr
	Text     string
	Children []*Element
}

// El creates an element with attributes given as alternating key/value
// pairs.
func El(name string, kv ...string) *Element {
	e := &Element{Name: name}
	for i := 0; i+1 < len(kv); i += 2 {
		e.Set(kv[i], kv[i+1])
	}
	return e
}

// Set assigns an attribute, replacing an existing value in place.
func (e *Element) Set(key, value string) *Element {
	for i := range e.Attrs {
		if e.Attrs[i].Key == key {
			e.Attrs[i].Value = value
			return e
		}
	}
	e.Attrs = append(e.Attrs, Attr{Key: key, Value: value})
	return e
}

// Get returns an attribute value, or "" if it is not set.
func (e *Element) Get(key string) string {
	for _, a := range e.Attrs {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

// Append adds child and returns it.
func (e *Element) Append(child *Element) *Element {
	e.Children = append(e.Children, child)
	return child
}

// Clear removes all children.
func (e *Element) Clear() { e.Children = nil }

// Find returns the first descendant (depth first) whose attribute key has
// the given value.
func (e *Element) Find(key, value string) *Element {
	for _, c := range e.Children {
		if c.Get(key) == value {
			return c
		}
		if found := c.Find(key, value); found != nil {
			return found
		}
	}
	return nil
}

// FindName returns the first direct child with the given element name.
func (e *Element) FindName(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Count returns the number of descendants with the given element name.
func (e *Element) Count(name string) int {
	n := 0
	for _, c := range e.Children {
		if c.Name == name {
			n++
		}
		n += c.Count(name)
	}
	return n
}

// Document is an SVG document with a fixed viewport.
type Document struct {
	Width  float64
	Height float64
	Root   *Element
}

// NewDocument creates an empty document.
func NewDocument(width, height float64) *Document {
	return &Document{Width: width, Height: height, Root: &Element{Name: "svg"}}
}

// WriteTo serializes the document as standalone SVG.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s"`,
		Num(d.Width), Num(d.Height), Num(d.Width), Num(d.Height))
	writeAttrs(&buf, d.Root.Attrs)
	buf.WriteString(">\n")
	for _, c := range d.Root.Children {
		writeElement(&buf, c, 1)
	}
	buf.WriteString("</svg>\n")
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// String returns the serialized document.
func (d *Document) String() string {
	var sb strings.Builder
	_, _ = d.WriteTo(&sb)
	return sb.String()
}

func writeElement(buf *bytes.Buffer, e *Element, depth int) {
	indent := strings.Repeat("  ", depth)
	buf.WriteString(indent)
	buf.WriteByte('<')
	buf.WriteString(e.Name)
	writeAttrs(buf, e.Attrs)

	if len(e.Children) == 0 && e.Text == "" {
		buf.WriteString("/>\n")
		return
	}
	buf.WriteByte('>')
	if e.Text != "" {
		_ = xml.EscapeText(buf, []byte(e.Text))
	}
	if len(e.Children) > 0 {
		buf.WriteByte('\n')
		for _, c := range e.Children {
			writeElement(buf, c, depth+1)
		}
		buf.WriteString(indent)
	}
	buf.WriteString("</")
	buf.WriteString(e.Name)
	buf.WriteString(">\n")
}

func writeAttrs(buf *bytes.Buffer, attrs []Attr) {
	for _, a := range attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.Key)
		buf.WriteString(`="`)
		_ = xml.EscapeText(buf, []byte(a.Value))
		buf.WriteByte('"')
	}
}

// Num formats a coordinate with at most two decimals.
func Num(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}
