// Package parse turns Tally XML exports into typed domain records.
//
// Tally responses are irregular: some fields arrive as attributes (NAME,
// RESERVEDNAME), some as child elements, and some nested inside ".LIST"
// wrapper elements; element names may carry dots and casing varies between
// server versions. This file implements the one field accessor every entity
// parser shares. Lookup order is fixed: attribute first, then child element,
// then nested list element — and a miss yields a default, never an error.
package parse

import (
	"encoding/xml"
	"strings"
)

// Node is a generic element of a parsed Tally document.
type Node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []Node     `xml:",any"`
	Text     string     `xml:",chardata"`
}

// parseDoc decodes an entire response body into a Node tree. Strict mode is
// off because Tally emits occasional bare ampersands and control characters.
func parseDoc(xmlText string) (*Node, error) {
	dec := xml.NewDecoder(strings.NewReader(xmlText))
	dec.Strict = false
	var root Node
	if err := dec.Decode(&root); err != nil {
		return nil, &ParseError{Err: err}
	}
	return &root, nil
}

// eq compares element/attribute names case-insensitively.
func eq(a, b string) bool { return strings.EqualFold(a, b) }

// Attr returns the named attribute value, or "" when absent.
func (n *Node) Attr(name string) string {
	for _, a := range n.Attrs {
		if eq(a.Name.Local, name) {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

// Child returns the first direct child with the given name, or nil.
func (n *Node) Child(name string) *Node {
	for i := range n.Children {
		if eq(n.Children[i].XMLName.Local, name) {
			return &n.Children[i]
		}
	}
	return nil
}

// ChildText returns the trimmed text of the first direct child with the
// given name, or "" when absent.
func (n *Node) ChildText(name string) string {
	if c := n.Child(name); c != nil {
		return strings.TrimSpace(c.Text)
	}
	return ""
}

// Field resolves a value in the fixed priority order: attribute, then child
// element, then child list element ("<name>.LIST" wrapper, first non-empty
// descendant text). A miss returns def.
func (n *Node) Field(name, def string) string {
	if v := n.Attr(name); v != "" {
		return v
	}
	if v := n.ChildText(name); v != "" {
		return v
	}
	if list := n.Child(name + ".LIST"); list != nil {
		if v := list.firstText(); v != "" {
			return v
		}
	}
	return def
}

// firstText returns the first non-empty trimmed text found in a depth-first
// walk of the subtree, including the node's own text.
func (n *Node) firstText() string {
	if t := strings.TrimSpace(n.Text); t != "" {
		return t
	}
	for i := range n.Children {
		if t := n.Children[i].firstText(); t != "" {
			return t
		}
	}
	return ""
}

// FindAll collects every descendant element with the given name, in document
// order.
func (n *Node) FindAll(name string) []*Node {
	var out []*Node
	n.walk(func(c *Node) {
		if eq(c.XMLName.Local, name) {
			out = append(out, c)
		}
	})
	return out
}

// Find returns the first descendant with the given name, or nil.
func (n *Node) Find(name string) *Node {
	all := n.FindAll(name)
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

// walk visits every descendant (not the receiver) depth-first.
func (n *Node) walk(fn func(*Node)) {
	for i := range n.Children {
		fn(&n.Children[i])
		n.Children[i].walk(fn)
	}
}

// listTexts collects the trimmed texts of all descendants with the given
// name under the first "<wrapper>.LIST" child, skipping blanks. Used for
// multi-line fields such as ADDRESS.LIST and MAILINGNAME.LIST.
func (n *Node) listTexts(wrapper, item string) []string {
	var out []string
	list := n.Child(wrapper + ".LIST")
	if list == nil {
		return out
	}
	for _, e := range list.FindAll(item) {
		if t := strings.TrimSpace(e.Text); t != "" {
			out = append(out, t)
		}
	}
	// Some exports flatten the items directly into the wrapper's text.
	if len(out) == 0 {
		if t := list.firstText(); t != "" {
			out = append(out, t)
		}
	}
	return out
}
