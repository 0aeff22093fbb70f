/*
Package style maps node properties of the page builder onto CSS.

Overview

Nodes carry a schema-less bag of properties (see package tree). Some of
them are visual and have a direct CSS counterpart, e.g. "backgroundColor"
maps to "background-color". Others carry content or configuration and are
never styled, e.g. "content" or "href". This package holds the tables
deciding which property becomes which CSS declaration, and the conversion
of property values into CSS values.

The actual compilation of a document into a stylesheet lives in package css.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package style

import (
	"fmt"
	"sort"
	"strings"

	"github.com/npillmayer/schuko/tracing"
)

// tracer will return a tracer. We are tracing to 'pagedoc.style'
func tracer() tracing.Trace {
	return tracing.Select("pagedoc.style")
}

// Property is a raw value for a CSS property. For example, with
//
//     color: black
//
// a property value of "black" is set.
type Property string

// NullStyle is an empty property value.
const NullStyle Property = ""

func (p Property) String() string {
	return string(p)
}

// IsInitial denotes if a property is of inheritence-type "initial"
func (p Property) IsInitial() bool {
	return p == "initial"
}

// IsInherit denotes if a property is of inheritence-type "inherit"
func (p Property) IsInherit() bool {
	return p == "inherit"
}

// IsEmpty checks wether a property is empty, i.e. the null-string.
func (p Property) IsEmpty() bool {
	return p == ""
}

// KeyValue is a CSS declaration, e.g. "margin-top: 4px".
type KeyValue struct {
	Key   string
	Value Property
}

func (kv KeyValue) String() string {
	return kv.Key + ": " + kv.Value.String()
}

// --- Excluded properties ---------------------------------------------------

// Keys of node properties which are special to the compiler.
const (
	CustomCSSKey  = "customCss"  // raw CSS declarations, appended to a node's rule
	ResponsiveKey = "responsive" // per-breakpoint property overrides
)

// excluded holds node property keys without a CSS counterpart: content,
// text, structural flags and per-kind configuration.
var excluded = map[string]struct{}{
	"content": {}, "text": {}, "html": {}, "label": {}, "title": {}, "alt": {},
	"src": {}, "href": {}, "target": {}, "rel": {}, "placeholder": {}, "name": {},
	"value": {}, "items": {}, "options": {}, "icon": {}, "tag": {}, "level": {},
	"id": {}, "className": {}, "locked": {}, "hidden": {}, "collapsed": {},
	"visible": {}, "autoplay": {}, "loop": {}, "muted": {}, "controls": {},
	"poster": {}, "action": {}, "method": {}, "required": {}, "inputType": {},
	"columns": {}, "span": {},
	CustomCSSKey: {}, ResponsiveKey: {},
}

// IsExcluded is a predicate wether a node property never maps to CSS.
func IsExcluded(key string) bool {
	_, ok := excluded[key]
	return ok
}

// ExcludedKeys returns the excluded node property keys, sorted.
func ExcludedKeys() []string {
	keys := make([]string, 0, len(excluded))
	for k := range excluded {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// --- Mapping table ---------------------------------------------------------

// cssNames maps node property keys to CSS property names. Keys not listed
// here (and not excluded) are converted from camel case to kebab case.
var cssNames = map[string]string{
	// aliases used by the property panels
	"bgColor":   "background-color",
	"bgImage":   "background-image",
	"textColor": "color",
	"radius":    "border-radius",
	"shadow":    "box-shadow",
	"font":      "font-family",
	"align":     "text-align",
	// color & background
	"color":              "color",
	"backgroundColor":    "background-color",
	"backgroundImage":    "background-image",
	"backgroundSize":     "background-size",
	"backgroundPosition": "background-position",
	"backgroundRepeat":   "background-repeat",
	"opacity":            "opacity",
	// box model
	"width": "width", "height": "height",
	"minWidth": "min-width", "minHeight": "min-height",
	"maxWidth": "max-width", "maxHeight": "max-height",
	"margin": "margin", "marginTop": "margin-top", "marginRight": "margin-right",
	"marginBottom": "margin-bottom", "marginLeft": "margin-left",
	"padding": "padding", "paddingTop": "padding-top", "paddingRight": "padding-right",
	"paddingBottom": "padding-bottom", "paddingLeft": "padding-left",
	// border
	"border": "border", "borderWidth": "border-width", "borderStyle": "border-style",
	"borderColor": "border-color", "borderRadius": "border-radius",
	"boxShadow": "box-shadow",
	// typography
	"fontFamily": "font-family", "fontSize": "font-size", "fontWeight": "font-weight",
	"fontStyle": "font-style", "lineHeight": "line-height", "letterSpacing": "letter-spacing",
	"textAlign": "text-align", "textTransform": "text-transform",
	"textDecoration": "text-decoration",
	// layout
	"display": "display", "position": "position", "zIndex": "z-index",
	"top": "top", "right": "right", "bottom": "bottom", "left": "left",
	"overflow": "overflow", "flexDirection": "flex-direction", "flexWrap": "flex-wrap",
	"justifyContent": "justify-content", "alignItems": "align-items",
	"alignSelf": "align-self", "gap": "gap", "flex": "flex", "flexGrow": "flex-grow",
	"flexShrink": "flex-shrink", "order": "order",
	"gridTemplateColumns": "grid-template-columns", "gridTemplateRows": "grid-template-rows",
	"objectFit": "object-fit", "aspectRatio": "aspect-ratio",
	// effects
	"transform": "transform", "transition": "transition", "cursor": "cursor",
	"filter": "filter",
}

// unitless holds CSS properties whose numeric values carry no unit.
var unitless = map[string]struct{}{
	"opacity": {}, "z-index": {}, "font-weight": {}, "line-height": {},
	"flex-grow": {}, "flex-shrink": {}, "order": {}, "flex": {}, "aspect-ratio": {},
}

// IsUnitless is a predicate wether numeric values of a CSS property
// are emitted without a unit.
func IsUnitless(cssName string) bool {
	_, ok := unitless[cssName]
	return ok
}

// urlValued holds CSS properties where bare URLs are wrapped into url(…).
var urlValued = map[string]struct{}{
	"background-image": {}, "list-style-image": {}, "mask-image": {},
	"border-image-source": {},
}

// CSSName returns the CSS property name for a node property key.
// Keys outside of the mapping table are converted to kebab case, but only
// if the result belongs to a known property group (e.g. "borderTopWidth").
// CSSName returns false for excluded keys and for keys without a CSS
// counterpart.
func CSSName(key string) (string, bool) {
	if IsExcluded(key) {
		return "", false
	}
	if name, ok := cssNames[key]; ok {
		return name, true
	}
	name := Kebab(key)
	if !isCSSIdent(name) || GroupNameFromPropertyKey(name) == PGX {
		return "", false
	}
	return name, true
}

// Kebab converts a camel case key into kebab case, e.g.
// "borderTopLeftRadius" → "border-top-left-radius". A leading upper case
// letter denotes a vendor prefix: "WebkitTransform" → "-webkit-transform".
func Kebab(key string) string {
	var b strings.Builder
	for _, r := range key {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('-')
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isCSSIdent(name string) bool {
	if name == "" || name == "-" {
		return false
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
			return false
		}
	}
	return name[0] != '-' || len(name) > 1 && name[1] >= 'a' && name[1] <= 'z'
}

// --- Property groups -------------------------------------------------------

// Symbolic names for string literals, denoting property groups.
// Groups are used for diagnostics only.
const (
	PGMargins    = "Margins"
	PGPadding    = "Padding"
	PGBorder     = "Border"
	PGDimension  = "Dimension"
	PGDisplay    = "Display"
	PGColor      = "Color"
	PGBackground = "Background"
	PGText       = "Text"
	PGEffects    = "Effects"
	PGX          = "X"
)

// GroupNameFromPropertyKey returns the property group name for a
// CSS property.
// Example:
//    GroupNameFromPropertyKey("margin-top") => "Margins"
//
// Unknown CSS property keys will return a group name of "X".
func GroupNameFromPropertyKey(key string) string {
	for _, vendor := range []string{"-webkit-", "-moz-", "-ms-", "-o-"} {
		key = strings.TrimPrefix(key, vendor)
	}
	switch {
	case strings.HasPrefix(key, "margin"):
		return PGMargins
	case strings.HasPrefix(key, "padding"):
		return PGPadding
	case strings.HasPrefix(key, "border"), key == "box-shadow":
		return PGBorder
	case strings.HasPrefix(key, "background"):
		return PGBackground
	case strings.HasPrefix(key, "font"), strings.HasPrefix(key, "text"),
		key == "line-height", key == "letter-spacing":
		return PGText
	case strings.HasSuffix(key, "width"), strings.HasSuffix(key, "height"),
		key == "aspect-ratio", key == "object-fit":
		return PGDimension
	case key == "color", key == "opacity":
		return PGColor
	case key == "display", key == "position", key == "z-index", key == "overflow",
		key == "top", key == "right", key == "bottom", key == "left", key == "gap",
		strings.HasPrefix(key, "flex"), strings.HasPrefix(key, "grid"),
		strings.HasPrefix(key, "justify"), strings.HasPrefix(key, "align"), key == "order":
		return PGDisplay
	case key == "transform", key == "transition", key == "filter", key == "cursor":
		return PGEffects
	}
	return PGX
}

// --- Class names -----------------------------------------------------------

// DefaultClassPrefix is the prefix of compiler-assigned class names.
const DefaultClassPrefix = "p-"

// ClassName derives the class name for a node id. It is a pure function of
// prefix and id, and distinct ids yield distinct class names. Letters,
// digits and '_' are kept. Every other byte, including '-' and the bytes of
// non-ASCII characters, is escaped as '-' followed by two hex digits:
//
//     ClassName("p-", "sec_1")  => "p-sec_1"
//     ClassName("p-", "a.b")    => "p-a-2eb"
//     ClassName("p-", "a-b")    => "p-a-2db"
//
func ClassName(prefix, id string) string {
	const hex = "0123456789abcdef"
	var b strings.Builder
	b.Grow(len(prefix) + len(id))
	b.WriteString(prefix)
	for i := 0; i < len(id); i++ {
		c := id[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('-')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

// Selector returns the class selector for a class name.
func Selector(className string) string {
	return "." + className
}

// --- Breakpoints -----------------------------------------------------------

// Breakpoint is a responsive viewport mode.
type Breakpoint uint8

// Breakpoints, from widest to narrowest viewport.
const (
	Desktop Breakpoint = iota // primary
	Tablet                    // secondary
	Mobile                    // tertiary
)

// Breakpoints returns all breakpoints, primary first.
func Breakpoints() []Breakpoint {
	return []Breakpoint{Desktop, Tablet, Mobile}
}

func (bp Breakpoint) String() string {
	switch bp {
	case Desktop:
		return "desktop"
	case Tablet:
		return "tablet"
	case Mobile:
		return "mobile"
	}
	return fmt.Sprintf("breakpoint(%d)", uint8(bp))
}

// IsValid is a predicate wether bp is one of the known breakpoints.
func (bp Breakpoint) IsValid() bool {
	return bp <= Mobile
}

// ParseBreakpoint reads a breakpoint name.
func ParseBreakpoint(s string) (Breakpoint, error) {
	switch strings.ToLower(s) {
	case "desktop", "primary":
		return Desktop, nil
	case "tablet", "secondary":
		return Tablet, nil
	case "mobile", "tertiary":
		return Mobile, nil
	}
	return Desktop, fmt.Errorf("unknown breakpoint %q", s)
}
