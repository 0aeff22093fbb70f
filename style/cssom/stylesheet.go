/*
Package cssom abstracts the stylesheets produced by the style compiler.

The compiler emits one rule per styled node plus rules nested in media
blocks for responsive overrides. Clients (persistence, renderers, tests)
inspect the result through the interfaces of this package; a concrete
implementation lives in package douceuradapter.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package cssom

import "github.com/npillmayer/pagedoc/style"

// StyleSheet is an interface to abstract away a stylesheet-implementation.
//
// See interface Rule.
type StyleSheet interface {
	AppendRules(StyleSheet) // append rules from another stylesheet
	Empty() bool            // does this stylesheet contain any rules?
	Rules() []Rule          // all the rules of a stylesheet, media rules flattened
	String() string         // CSS text of the stylesheet
}

// Rule is the type stylesheets consists of.
//
// See interface StyleSheet.
type Rule interface {
	Selector() string            // the prelude / selectors of the rule
	Media() string               // media query of an enclosing @media block, or ""
	Properties() []string        // property keys, e.g. "margin-top"
	Value(string) style.Property // property value for key, e.g. "15px"
	IsImportant(string) bool     // is property key marked as important?
}

// Find returns the first rule of sheet with selector sel within media
// query media ("" for top-level rules).
func Find(sheet StyleSheet, sel, media string) (Rule, bool) {
	if sheet == nil {
		return nil, false
	}
	for _, r := range sheet.Rules() {
		if r.Selector() == sel && r.Media() == media {
			return r, true
		}
	}
	return nil, false
}

// Declarations returns the declarations of a rule in order.
func Declarations(r Rule) []style.KeyValue {
	props := r.Properties()
	kv := make([]style.KeyValue, len(props))
	for i, p := range props {
		kv[i] = style.KeyValue{Key: p, Value: r.Value(p)}
	}
	return kv
}
