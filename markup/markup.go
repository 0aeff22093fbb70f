/*
Package markup renders document forests as HTML.

Renderers are the collaborators turning single nodes into HTML elements.
A renderer receives a node and a Context; container renderers recurse
over the node's children, in order, through Context.Children.

Default returns a registry with a renderer for every known node kind,
producing plain HTML5 elements carrying the compiler-assigned class names.
It is used for previews and exports. Renderers for single kinds may be
replaced with Register.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package markup

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/npillmayer/pagedoc/tree"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// tracer traces with key 'pagedoc.markup'.
func tracer() tracing.Trace {
	return tracing.Select("pagedoc.markup")
}

// ErrNoRenderer is returned for nodes of a kind without a renderer.
var ErrNoRenderer = errors.New("no renderer for node kind")

// NodeIDAttr is the attribute carrying the node id of a rendered element.
const NodeIDAttr = "data-node-id"

// Renderer renders a single node.
type Renderer interface {
	Render(n *tree.Node, ctx Context) (*html.Node, error)
}

// RenderFunc is an adapter to use ordinary functions as renderers.
type RenderFunc func(n *tree.Node, ctx Context) (*html.Node, error)

// Render calls f(n, ctx).
func (f RenderFunc) Render(n *tree.Node, ctx Context) (*html.Node, error) {
	return f(n, ctx)
}

// Context is handed to renderers.
type Context struct {
	ClassMap map[string]string // node id → class name
	registry *Registry
	depth    int
}

// Class returns the class name for node n, if any.
func (ctx Context) Class(n *tree.Node) (string, bool) {
	c, ok := ctx.ClassMap[n.ID]
	return c, ok && c != ""
}

// Depth returns the nesting depth of the node currently rendered, starting
// with 0 for root-level nodes.
func (ctx Context) Depth() int {
	return ctx.depth
}

// Children renders the children of n, in order.
func (ctx Context) Children(n *tree.Node) ([]*html.Node, error) {
	if ctx.registry == nil {
		return nil, fmt.Errorf("%w: context of node %s is not bound to a registry", ErrNoRenderer, n.ID)
	}
	inner := ctx
	inner.depth++
	var nodes []*html.Node
	for _, ch := range n.Children {
		h, err := ctx.registry.Render(ch, inner)
		if err != nil {
			return nil, err
		}
		if h != nil {
			nodes = append(nodes, h)
		}
	}
	return nodes, nil
}

// Registry dispatches rendering by node kind.
type Registry struct {
	renderers map[tree.Kind]Renderer
}

// NewRegistry creates a registry without any renderers.
func NewRegistry() *Registry {
	return &Registry{renderers: make(map[tree.Kind]Renderer)}
}

// Register sets the renderer for kind k. A nil renderer removes it.
func (r *Registry) Register(k tree.Kind, renderer Renderer) {
	if renderer == nil {
		delete(r.renderers, k)
		return
	}
	r.renderers[k] = renderer
}

// Render renders node n with the renderer registered for its kind.
func (r *Registry) Render(n *tree.Node, ctx Context) (*html.Node, error) {
	renderer, ok := r.renderers[n.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s (node %s)", ErrNoRenderer, n.Type, n.ID)
	}
	ctx.registry = r
	return renderer.Render(n, ctx)
}

// RenderForest renders every root-level node of f.
func (r *Registry) RenderForest(f tree.Forest, classMap map[string]string) ([]*html.Node, error) {
	ctx := Context{ClassMap: classMap, registry: r}
	var nodes []*html.Node
	for _, n := range f {
		h, err := r.Render(n, ctx)
		if err != nil {
			tracer().Errorf("render: %v", err)
			return nil, err
		}
		if h != nil {
			nodes = append(nodes, h)
		}
	}
	return nodes, nil
}

// Write renders f as an HTML fragment.
func (r *Registry) Write(w io.Writer, f tree.Forest, classMap map[string]string) error {
	nodes, err := r.RenderForest(f, classMap)
	if err != nil {
		return err
	}
	for _, h := range nodes {
		if err := html.Render(w, h); err != nil {
			return err
		}
	}
	return nil
}

// WriteDocument renders f as a complete HTML document, with stylesheet
// embedded as a <style> element in the head.
func (r *Registry) WriteDocument(w io.Writer, title string, f tree.Forest,
	classMap map[string]string, stylesheet string) error {
	//
	nodes, err := r.RenderForest(f, classMap)
	if err != nil {
		return err
	}
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	root := element(atom.Html)
	doc.AppendChild(root)
	head := element(atom.Head)
	root.AppendChild(head)
	meta := element(atom.Meta)
	setAttr(meta, "charset", "utf-8")
	head.AppendChild(meta)
	t := element(atom.Title)
	t.AppendChild(text(title))
	head.AppendChild(t)
	if stylesheet != "" {
		s := element(atom.Style)
		s.AppendChild(text(stylesheet))
		head.AppendChild(s)
	}
	body := element(atom.Body)
	root.AppendChild(body)
	for _, h := range nodes {
		body.AppendChild(h)
	}
	return html.Render(w, doc)
}

// --- Helpers for renderers -------------------------------------------------

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func setAttr(h *html.Node, key, val string) {
	for i := range h.Attr {
		if h.Attr[i].Key == key {
			h.Attr[i].Val = val
			return
		}
	}
	h.Attr = append(h.Attr, html.Attribute{Key: key, Val: val})
}

// Element creates an HTML element for node n, carrying the node id and the
// node's class name.
func Element(a atom.Atom, n *tree.Node, ctx Context) *html.Node {
	h := element(a)
	setAttr(h, NodeIDAttr, n.ID)
	if c, ok := ctx.Class(n); ok {
		setAttr(h, "class", c)
	}
	return h
}

// Prop returns a string property of n, with numbers formatted.
func Prop(n *tree.Node, key string) (string, bool) {
	switch v := n.Props[key].(type) {
	case string:
		return v, v != ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	}
	return "", false
}

// Flag returns a boolean property of n.
func Flag(n *tree.Node, key string) bool {
	b, ok := n.Props[key].(bool)
	return ok && b
}
