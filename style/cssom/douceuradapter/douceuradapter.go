/*
Package douceuradapter is a concrete implementation of interface cssom.StyleSheet.

It builds on the CSS data model and parser of github.com/aymerick/douceur.
The style compiler uses it to assemble its rules, to parse the raw
declarations of a node's "customCss" property, and to print stylesheets.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>
*/
package douceuradapter

import (
	"fmt"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"github.com/npillmayer/pagedoc/style"
	"github.com/npillmayer/pagedoc/style/cssom"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// tracer traces with key 'pagedoc.style'.
func tracer() tracing.Trace {
	return tracing.Select("pagedoc.style")
}

// CSSStyles is an adapter for interface cssom.StyleSheet.
type CSSStyles struct {
	css css.Stylesheet
}

// New creates an empty stylesheet.
func New() *CSSStyles {
	return &CSSStyles{}
}

// Wrap a douceur.css.Stylesheet into CSSStyles.
// The stylesheet is now managed by the wrapper.
func Wrap(css *css.Stylesheet) *CSSStyles {
	sheet := &CSSStyles{*css}
	return sheet
}

// Parse parses CSS text into a stylesheet.
func Parse(text string) (*CSSStyles, error) {
	c, err := parser.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("cannot parse stylesheet: %w", err)
	}
	return Wrap(c), nil
}

// ParseDeclarations parses a CSS declaration list, as found in the body of
// a rule, e.g. "color: red; margin: 0 auto". Property names are lower-cased,
// declarations with an empty property or value are dropped, and
// "!important" is kept as part of the value.
func ParseDeclarations(text string) ([]style.KeyValue, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if strings.ContainsAny(text, "{}") {
		return nil, fmt.Errorf("cannot parse declarations %q: braces not allowed", text)
	}
	if !strings.HasSuffix(text, ";") {
		text += ";" // the parser drops an unterminated last declaration
	}
	decls, err := parser.ParseDeclarations(text)
	if err != nil {
		return nil, fmt.Errorf("cannot parse declarations %q: %w", text, err)
	}
	kv := make([]style.KeyValue, 0, len(decls))
	for _, d := range decls {
		prop := strings.ToLower(strings.TrimSpace(d.Property))
		if prop == "" || d.Value == "" {
			tracer().Debugf("douceur: dropping empty declaration %q", d.String())
			continue
		}
		value := d.Value
		if d.Important {
			value += " !important"
		}
		kv = append(kv, style.KeyValue{Key: prop, Value: style.Property(value)})
	}
	return kv, nil
}

// Empty checks if this stylesheet contains any rules.
//
// Interface cssom.StyleSheet
func (sheet *CSSStyles) Empty() bool {
	return len(sheet.css.Rules) == 0
}

// AppendRules appends rules from another stylesheet. Rules of stylesheets
// of other implementations are copied by value.
//
// Interface cssom.StyleSheet
func (sheet *CSSStyles) AppendRules(other cssom.StyleSheet) {
	if othercss, ok := other.(*CSSStyles); ok {
		sheet.css.Rules = append(sheet.css.Rules, othercss.css.Rules...)
		return
	}
	for _, r := range other.Rules() {
		rule := newRule(r.Selector(), cssom.Declarations(r))
		if r.Media() == "" {
			sheet.css.Rules = append(sheet.css.Rules, rule)
		} else {
			sheet.AddMedia(r.Media(), rule)
		}
	}
}

// Rules returns all the rules of a stylesheet. Rules nested in @media
// blocks are listed in place, with Media() reporting the media query.
//
// Interface cssom.StyleSheet
func (sheet *CSSStyles) Rules() []cssom.Rule {
	rules := make([]cssom.Rule, 0, len(sheet.css.Rules))
	for _, r := range sheet.css.Rules {
		if r.Kind == css.AtRule && r.Name == "@media" {
			for _, nested := range r.Rules {
				rules = append(rules, Rule{rule: nested, media: r.Prelude})
			}
			continue
		}
		rules = append(rules, Rule{rule: r})
	}
	return rules
}

// String returns the CSS text of the stylesheet, one rule per block.
//
// Interface cssom.StyleSheet
func (sheet *CSSStyles) String() string {
	return sheet.css.String()
}

// Stylesheet returns the wrapped douceur stylesheet.
func (sheet *CSSStyles) Stylesheet() *css.Stylesheet {
	return &sheet.css
}

// AddRule appends a qualified rule for selector with declarations decls.
func (sheet *CSSStyles) AddRule(selector string, decls []style.KeyValue) {
	sheet.css.Rules = append(sheet.css.Rules, newRule(selector, decls))
}

// AddMedia appends rules to the @media block for query, creating the block
// at the end of the stylesheet if it does not exist yet.
func (sheet *CSSStyles) AddMedia(query string, rules ...*css.Rule) {
	var media *css.Rule
	for _, r := range sheet.css.Rules {
		if r.Kind == css.AtRule && r.Name == "@media" && r.Prelude == query {
			media = r
			break
		}
	}
	if media == nil {
		media = css.NewRule(css.AtRule)
		media.Name = "@media"
		media.Prelude = query
		sheet.css.Rules = append(sheet.css.Rules, media)
	}
	for _, r := range rules {
		r.EmbedLevel = media.EmbedLevel + 1
		media.Rules = append(media.Rules, r)
	}
}

// NewRule creates a detached qualified rule, suitable for AddMedia.
func NewRule(selector string, decls []style.KeyValue) *css.Rule {
	return newRule(selector, decls)
}

func newRule(selector string, decls []style.KeyValue) *css.Rule {
	r := css.NewRule(css.QualifiedRule)
	r.Prelude = selector
	for _, sel := range strings.Split(selector, ",") {
		r.Selectors = append(r.Selectors, strings.TrimSpace(sel))
	}
	for _, kv := range decls {
		d := css.NewDeclaration()
		d.Property = kv.Key
		d.Value = kv.Value.String()
		if v := strings.TrimSuffix(d.Value, "!important"); v != d.Value {
			d.Value = strings.TrimSpace(v)
			d.Important = true
		}
		r.Declarations = append(r.Declarations, d)
	}
	return r
}

var _ cssom.StyleSheet = &CSSStyles{}

// Rule is an adapter for interface cssom.Rule.
type Rule struct {
	rule  *css.Rule
	media string
}

// Selector returns the prelude / selectors of the rule.
func (r Rule) Selector() string {
	return r.rule.Prelude
}

// Media returns the media query of the enclosing @media block, if any.
func (r Rule) Media() string {
	return r.media
}

// Properties returns the property keys of a rule,
// e.g. "margin-top"
func (r Rule) Properties() []string {
	decl := r.rule.Declarations
	props := make([]string, 0, len(decl))
	for _, d := range decl {
		props = append(props, d.Property)
	}
	return props
}

// Value returns the property values for given key with this rule, e.g. "15px"
func (r Rule) Value(key string) style.Property {
	for _, d := range r.rule.Declarations {
		if d.Property == key {
			return style.Property(d.Value)
		}
	}
	return ""
}

// IsImportant returns true if a style key is marked as important ("!").
func (r Rule) IsImportant(key string) bool {
	for _, d := range r.rule.Declarations {
		if d.Property == key {
			return d.Important
		}
	}
	return false
}

var _ cssom.Rule = Rule{}

// ExtractStyleElements visits <head> and <body> elements in an HTML parse
// tree and searches for embedded <style>s. It returns the content of
// style-elements as style sheets.
func ExtractStyleElements(htmldoc *html.Node) []*CSSStyles {
	head := findElement(atom.Head, htmldoc)
	body := findElement(atom.Body, htmldoc)
	css := extractStyles(head)
	css = append(css, extractStyles(body)...)
	return css
}

func extractStyles(h *html.Node) []*CSSStyles {
	if h == nil {
		return nil
	}
	var css []*CSSStyles
	for ch := h.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.DataAtom != atom.Style || ch.FirstChild == nil {
			continue
		}
		c, err := parser.Parse(ch.FirstChild.Data)
		if err != nil {
			tracer().Errorf("cannot parse <style> element: %v", err)
			continue
		}
		css = append(css, Wrap(c))
	}
	return css
}

func findElement(a atom.Atom, h *html.Node) *html.Node {
	if h == nil {
		return nil
	}
	if h.DataAtom == a {
		return h
	}
	for ch := h.FirstChild; ch != nil; ch = ch.NextSibling {
		if r := findElement(a, ch); r != nil {
			return r
		}
	}
	return nil
}
