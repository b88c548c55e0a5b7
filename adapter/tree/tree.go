// Package tree projects documents into key/value trees for display.
package tree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/view"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
)

// Kind is the display category of a [Node].
type Kind uint8

// Node kinds.
const (
	KindObject Kind = iota
	KindArray
	KindString
	KindNumber
	KindBoolean
	KindNull
	KindDate
	KindOther
)

var kindNames = [...]string{
	KindObject:  "object",
	KindArray:   "array",
	KindString:  "string",
	KindNumber:  "number",
	KindBoolean: "boolean",
	KindNull:    "null",
	KindDate:    "date",
	KindOther:   "other",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// DateLayout is the format of date leaves.
const DateLayout = "2006-01-02 15:04:05"

// Node is one entry of a document tree.
type Node struct {
	Key   string
	Value string
	Kind  Kind
	// Path is the dotted location of the node inside the document, with
	// array positions written as [i].
	Path     string
	Editable bool
	Children []*Node
}

// Build returns the tree of doc. The root is an object node with an empty
// key.
func Build(doc *domain.Document) *Node {
	if doc == nil {
		doc = domain.NewDocument()
	}
	return build("", "", domain.DocumentValue(doc), true)
}

func build(key, path string, v domain.Value, root bool) *Node {
	n := &Node{Key: key, Path: path}

	switch v.Kind() {
	case domain.KindDocument:
		d, _ := v.AsDocument()
		n.Kind = KindObject
		n.Value = summary("{", d.Len(), "field", "}")
		for k, child := range d.Iter() {
			c := build(k, join(path, k), child, false)
			if root && k == "_id" {
				c.Editable = false
			}
			n.Children = append(n.Children, c)
		}
		return n
	case domain.KindArray:
		items, _ := v.AsArray()
		n.Kind = KindArray
		n.Value = summary("[", len(items), "item", "]")
		for i, item := range items {
			label := "[" + strconv.Itoa(i) + "]"
			n.Children = append(n.Children, build(label, path+label, item, false))
		}
		return n
	}

	n.Kind, n.Value = leaf(v)
	n.Editable = n.Kind != KindOther
	return n
}

func leaf(v domain.Value) (Kind, string) {
	switch v.Kind() {
	case domain.KindNull:
		return KindNull, "null"
	case domain.KindString:
		s, _ := v.AsString()
		return KindString, strconv.Quote(s)
	case domain.KindInt32, domain.KindInt64, domain.KindDouble, domain.KindDecimal:
		return KindNumber, view.IDString(v)
	case domain.KindBoolean:
		b, _ := v.AsBoolean()
		return KindBoolean, strconv.FormatBool(b)
	case domain.KindDateTime:
		t, _ := v.AsDateTime()
		return KindDate, t.UTC().Format(DateLayout)
	case domain.KindBinary:
		b, _ := v.AsBinary()
		return KindOther, fmt.Sprintf("<binary %s>", domain.FormatBytes(int64(len(b))))
	default:
		return KindOther, view.IDString(v)
	}
}

func summary(open string, n int, noun, closing string) string {
	if n != 1 {
		noun += "s"
	}
	return fmt.Sprintf("%s %d %s %s", open, n, noun, closing)
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// Find returns the node at path, or nil.
func (n *Node) Find(path string) *Node {
	if n.Path == path {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(path); found != nil {
			return found
		}
	}
	return nil
}

// Render writes the tree as indented text, one node per line.
func Render(n *Node) string {
	var sb strings.Builder
	render(&sb, n, 0)
	return sb.String()
}

func render(sb *strings.Builder, n *Node, depth int) {
	if depth > 0 {
		sb.WriteString(strings.Repeat("  ", depth-1))
		sb.WriteString(n.Key)
		sb.WriteString(": ")
	}
	sb.WriteString(n.Value)
	sb.WriteByte('\n')
	for _, c := range n.Children {
		render(sb, c, depth+1)
	}
}
