/*
Package css compiles the style properties of a document into a stylesheet.

Overview

The compiler walks a forest in pre-order. Every node gets a class name
derived from its id (see style.ClassName), and every node with at least one
style-relevant property gets a rule:

    .p-sec_x8k2m1 {
      background-color: #fff;
      padding-top: 24px;
    }

Declarations are ordered by CSS property name. Raw declarations from a
node's "customCss" property are appended, overriding mapped ones.
Per-breakpoint overrides from a node's "responsive" property go into
@media blocks following all primary rules.

Compilation is deterministic: compiling an unchanged forest yields
byte-identical output. The full stylesheet starts with a fixed header
comment; the minified stylesheet is derived from it by Minify.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package css

import (
	"errors"
	"fmt"
	"strings"

	"github.com/npillmayer/pagedoc/style"
	"github.com/npillmayer/pagedoc/style/cssom"
	"github.com/npillmayer/pagedoc/style/cssom/douceuradapter"
	"github.com/npillmayer/pagedoc/tree"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'pagedoc.css'.
func tracer() tracing.Trace {
	return tracing.Select("pagedoc.css")
}

// Errors reported by the compiler.
var (
	ErrMinify    = errors.New("cannot minify stylesheet")
	ErrCustomCSS = errors.New("invalid custom CSS")
)

// DefaultHeader is the comment heading every full stylesheet.
const DefaultHeader = "Generated by pagedoc style compiler. Do not edit."

// Default media widths for responsive overrides, in px.
const (
	DefaultTabletWidth = 1024
	DefaultMobileWidth = 640
)

// Result is the output of a compilation.
type Result struct {
	FullCSS     string            // readable stylesheet, with header comment
	MinifiedCSS string            // minified version of FullCSS
	ClassMap    map[string]string // node id → class name, for every node
	Sheet       cssom.StyleSheet  // the rules, for inspection
	Warnings    []error           // problems which did not prevent compilation
}

// Compiler compiles forests into stylesheets. A Compiler is immutable after
// creation and may be used concurrently.
type Compiler struct {
	prefix string
	unit   string
	header string
	widths map[style.Breakpoint]int
}

// Option is a type to help initializing compilers at creation time.
type Option func(*Compiler)

// ClassPrefix sets the prefix of class names. Default is "p-".
func ClassPrefix(prefix string) Option {
	return func(c *Compiler) {
		c.prefix = prefix
	}
}

// Unit sets the unit appended to numeric values. Default is "px".
func Unit(unit string) Option {
	return func(c *Compiler) {
		if unit != "" {
			c.unit = unit
		}
	}
}

// Header sets the text of the header comment. An empty header omits the
// comment.
func Header(text string) Option {
	return func(c *Compiler) {
		c.header = strings.ReplaceAll(text, "*/", "* /")
	}
}

// MediaWidth sets the max-width of the media block for breakpoint bp.
func MediaWidth(bp style.Breakpoint, px int) Option {
	return func(c *Compiler) {
		if bp != style.Desktop && bp.IsValid() && px > 0 {
			c.widths[bp] = px
		}
	}
}

// NewCompiler creates a compiler.
//
//     c := css.NewCompiler(css.ClassPrefix("pb-"), css.Unit("rem"))
//
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{
		prefix: style.DefaultClassPrefix,
		unit:   style.DefaultUnit,
		header: DefaultHeader,
		widths: map[style.Breakpoint]int{
			style.Tablet: DefaultTabletWidth,
			style.Mobile: DefaultMobileWidth,
		},
	}
	for _, option := range opts {
		option(c)
	}
	return c
}

// Compile compiles a forest with a compiler created from opts.
func Compile(f tree.Forest, opts ...Option) (Result, error) {
	return NewCompiler(opts...).Compile(f)
}

// MediaQuery returns the media query for breakpoint bp, or "" for the
// primary breakpoint.
func (c *Compiler) MediaQuery(bp style.Breakpoint) string {
	w, ok := c.widths[bp]
	if !ok {
		return ""
	}
	return fmt.Sprintf("(max-width: %dpx)", w)
}

// ClassName returns the class name the compiler assigns to a node id.
func (c *Compiler) ClassName(id string) string {
	return style.ClassName(c.prefix, id)
}

type override struct {
	selector string
	decls    []style.KeyValue
}

// Compile compiles the style properties of forest f.
// Compile returns an error only if the resulting stylesheet cannot be
// tokenized; problems with single nodes are reported as warnings.
func (c *Compiler) Compile(f tree.Forest) (Result, error) {
	res := Result{ClassMap: make(map[string]string, f.Count())}
	sheet := douceuradapter.New()
	media := make(map[style.Breakpoint][]override)
	warn := func(id string, errs ...error) {
		for _, e := range errs {
			tracer().Errorf("node %s: %v", id, e)
			res.Warnings = append(res.Warnings, fmt.Errorf("node %s: %w", id, e))
		}
	}
	err := f.Walk(func(n, parent *tree.Node, position int) error {
		class := c.ClassName(n.ID)
		res.ClassMap[n.ID] = class
		sel := style.Selector(class)
		decls, errs := style.Convert(n.Props, c.unit)
		warn(n.ID, errs...)
		if raw, ok := style.CustomCSS(n.Props); ok {
			custom, err := customDeclarations(raw)
			if err != nil {
				warn(n.ID, err)
			} else {
				decls = style.Merge(decls, custom)
			}
		}
		if len(decls) > 0 {
			sheet.AddRule(sel, decls)
		}
		overrides := style.Overrides(n.Props)
		for _, bp := range style.Breakpoints() {
			props, ok := overrides[bp]
			if !ok {
				continue
			}
			d, errs := style.Convert(props, c.unit)
			for _, e := range errs {
				warn(n.ID, fmt.Errorf("%s: %w", bp, e))
			}
			if len(d) > 0 {
				media[bp] = append(media[bp], override{selector: sel, decls: d})
			}
		}
		return nil
	})
	if err != nil {
		return res, err
	}
	for _, bp := range style.Breakpoints() {
		query := c.MediaQuery(bp)
		if query == "" || len(media[bp]) == 0 {
			continue
		}
		for _, o := range media[bp] {
			sheet.AddMedia(query, douceuradapter.NewRule(o.selector, o.decls))
		}
	}
	res.Sheet = sheet
	res.FullCSS = c.print(sheet)
	if res.MinifiedCSS, err = Minify(res.FullCSS); err != nil {
		tracer().Errorf("%v", err)
		return res, err
	}
	tracer().Debugf("compiled %d node(s) into %d rule(s)", len(res.ClassMap), len(sheet.Rules()))
	return res, nil
}

// customDeclarations parses the raw text of a "customCss" property. Every
// value has to pass style.CheckValue.
func customDeclarations(raw string) ([]style.KeyValue, error) {
	custom, err := douceuradapter.ParseDeclarations(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCustomCSS, err)
	}
	for _, kv := range custom {
		if err := style.CheckValue(kv.Value.String()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrCustomCSS, kv.Key, err)
		}
	}
	return custom, nil
}

func (c *Compiler) print(sheet cssom.StyleSheet) string {
	var b strings.Builder
	if c.header != "" {
		b.WriteString("/* ")
		b.WriteString(c.header)
		b.WriteString(" */\n")
	}
	if !sheet.Empty() {
		b.WriteString(sheet.String())
		b.WriteByte('\n')
	}
	return b.String()
}
