package markup

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/npillmayer/pagedoc/tree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Default returns a registry with renderers for all known node kinds.
func Default() *Registry {
	r := NewRegistry()
	r.Register(tree.Section, container(atom.Section))
	r.Register(tree.Container, container(atom.Div))
	r.Register(tree.Columns, container(atom.Div))
	r.Register(tree.Column, container(atom.Div))
	r.Register(tree.Grid, container(atom.Div))
	r.Register(tree.Form, RenderFunc(renderForm))
	r.Register(tree.Heading, RenderFunc(renderHeading))
	r.Register(tree.Text, textual(atom.P, "content", "text"))
	r.Register(tree.RichText, RenderFunc(renderRichText))
	r.Register(tree.Image, RenderFunc(renderImage))
	r.Register(tree.Video, RenderFunc(renderVideo))
	r.Register(tree.Button, textual(atom.Button, "label", "text"))
	r.Register(tree.Link, RenderFunc(renderLink))
	r.Register(tree.Icon, RenderFunc(renderIcon))
	r.Register(tree.Divider, void(atom.Hr))
	r.Register(tree.Spacer, void(atom.Div))
	r.Register(tree.Embed, RenderFunc(renderEmbed))
	r.Register(tree.Input, RenderFunc(renderInput))
	return r
}

func container(a atom.Atom) Renderer {
	return RenderFunc(func(n *tree.Node, ctx Context) (*html.Node, error) {
		h := Element(a, n, ctx)
		children, err := ctx.Children(n)
		if err != nil {
			return nil, err
		}
		for _, ch := range children {
			h.AppendChild(ch)
		}
		return h, nil
	})
}

// textual renders an element with the first non-empty of keys as content.
func textual(a atom.Atom, keys ...string) Renderer {
	return RenderFunc(func(n *tree.Node, ctx Context) (*html.Node, error) {
		h := Element(a, n, ctx)
		for _, k := range keys {
			if s, ok := Prop(n, k); ok {
				h.AppendChild(text(s))
				break
			}
		}
		return h, nil
	})
}

func void(a atom.Atom) Renderer {
	return RenderFunc(func(n *tree.Node, ctx Context) (*html.Node, error) {
		return Element(a, n, ctx), nil
	})
}

var headings = []atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}

func renderHeading(n *tree.Node, ctx Context) (*html.Node, error) {
	level := 2
	if s, ok := Prop(n, "level"); ok {
		if l, err := strconv.Atoi(strings.TrimPrefix(strings.ToLower(s), "h")); err == nil && l >= 1 && l <= 6 {
			level = l
		}
	}
	return textual(headings[level-1], "content", "text").Render(n, ctx)
}

// richTextPolicy sanitizes user supplied HTML of rich text nodes.
// A policy is safe for concurrent use once configured.
var richTextPolicy = bluemonday.UGCPolicy()

func renderRichText(n *tree.Node, ctx Context) (*html.Node, error) {
	h := Element(atom.Div, n, ctx)
	src, ok := Prop(n, "html")
	if !ok {
		if s, ok := Prop(n, "content"); ok {
			h.AppendChild(text(s))
		}
		return h, nil
	}
	clean := richTextPolicy.Sanitize(src)
	if clean != src {
		tracer().Debugf("rich text of node %s: sanitized", n.ID)
	}
	frag, err := html.ParseFragment(strings.NewReader(clean), element(atom.Div))
	if err != nil {
		return nil, fmt.Errorf("rich text of node %s: %w", n.ID, err)
	}
	for _, f := range frag {
		h.AppendChild(f)
	}
	return h, nil
}

func renderImage(n *tree.Node, ctx Context) (*html.Node, error) {
	h := Element(atom.Img, n, ctx)
	copyAttrs(h, n, "src", "alt")
	return h, nil
}

func renderVideo(n *tree.Node, ctx Context) (*html.Node, error) {
	h := Element(atom.Video, n, ctx)
	copyAttrs(h, n, "src", "poster")
	for _, flag := range []string{"controls", "autoplay", "loop", "muted"} {
		if Flag(n, flag) {
			setAttr(h, flag, "")
		}
	}
	return h, nil
}

func renderLink(n *tree.Node, ctx Context) (*html.Node, error) {
	h, _ := textual(atom.A, "label", "text", "href").Render(n, ctx)
	copyAttrs(h, n, "href", "target", "rel")
	return h, nil
}

func renderIcon(n *tree.Node, ctx Context) (*html.Node, error) {
	h := Element(atom.I, n, ctx)
	if icon, ok := Prop(n, "icon"); ok {
		setAttr(h, "data-icon", icon)
	}
	setAttr(h, "aria-hidden", "true")
	return h, nil
}

func renderEmbed(n *tree.Node, ctx Context) (*html.Node, error) {
	h := Element(atom.Iframe, n, ctx)
	copyAttrs(h, n, "src", "title")
	return h, nil
}

func renderForm(n *tree.Node, ctx Context) (*html.Node, error) {
	h, err := container(atom.Form).Render(n, ctx)
	if err != nil {
		return nil, err
	}
	copyAttrs(h, n, "action", "method")
	return h, nil
}

func renderInput(n *tree.Node, ctx Context) (*html.Node, error) {
	h := Element(atom.Input, n, ctx)
	typ, ok := Prop(n, "inputType")
	if !ok {
		typ = "text"
	}
	setAttr(h, "type", typ)
	copyAttrs(h, n, "name", "placeholder", "value")
	if Flag(n, "required") {
		setAttr(h, "required", "")
	}
	return h, nil
}

func copyAttrs(h *html.Node, n *tree.Node, keys ...string) {
	for _, k := range keys {
		if v, ok := Prop(n, k); ok {
			setAttr(h, k, v)
		}
	}
}
