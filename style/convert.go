package style

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/css/scanner"
	"github.com/npillmayer/pagedoc/tree"
)

// DefaultUnit is appended to numeric values of properties which are not
// unit-less.
const DefaultUnit = "px"

// ErrInvalidValue is wrapped by errors for property values which cannot be
// embedded into a declaration as they are.
var ErrInvalidValue = errors.New("invalid CSS value")

// errNoCSS flags values without a CSS representation. They are skipped
// silently.
var errNoCSS = errors.New("no CSS representation")

// FormatValue converts a node property value into a CSS value for CSS
// property cssName. Numbers get unit appended, except for unit-less
// properties. Strings are trimmed; strings denoting a plain number are
// treated as numbers. Bare URLs for image properties are wrapped into
// url("…").
//
// FormatValue returns false for values without a CSS representation
// (booleans, maps, slices, nil, empty strings) and for malformed strings,
// see CheckValue.
func FormatValue(cssName string, value any, unit string) (Property, bool) {
	p, err := formatValue(cssName, value, unit)
	return p, err == nil
}

func formatValue(cssName string, value any, unit string) (Property, error) {
	if unit == "" {
		unit = DefaultUnit
	}
	switch v := value.(type) {
	case string:
		return formatString(cssName, v, unit)
	case json.Number:
		x, err := v.Float64()
		if err != nil {
			return NullStyle, fmt.Errorf("%w: %q", ErrInvalidValue, v)
		}
		return formatDimen(cssName, Number(x), unit), nil
	case Dimen:
		if v.IsNone() {
			return NullStyle, errNoCSS
		}
		return formatDimen(cssName, v, unit), nil
	}
	if x, ok := toFloat(value); ok {
		return formatDimen(cssName, Number(x), unit), nil
	}
	return NullStyle, errNoCSS
}

func formatString(cssName, s, unit string) (Property, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NullStyle, errNoCSS
	}
	if err := CheckValue(s); err != nil {
		tracer().Debugf("style: rejecting value for %s: %v", cssName, err)
		return NullStyle, err
	}
	if d, ok := ParseDimen(s); ok {
		var x float64
		if m := d.Match(); m.Number(&x) != nil {
			return formatDimen(cssName, d, unit), nil
		}
		return Property(s), nil
	}
	if _, ok := urlValued[cssName]; ok && isBareURL(s) {
		return Property(`url("` + strings.ReplaceAll(s, `"`, `\"`) + `")`), nil
	}
	return Property(s), nil
}

// CheckValue tokenizes a CSS value and returns an error wrapping
// ErrInvalidValue if the value cannot stand on its own inside a
// declaration, e.g. for unterminated strings or unbalanced brackets.
// Comments are not allowed in values.
func CheckValue(s string) error {
	var open []byte // expected closing brackets
	sc := scanner.New(s)
	for {
		tok := sc.Next()
		switch tok.Type {
		case scanner.TokenEOF:
			if len(open) > 0 {
				return fmt.Errorf("%w: %q: missing %q", ErrInvalidValue, s, open[len(open)-1])
			}
			return nil
		case scanner.TokenError:
			return fmt.Errorf("%w: %q: %s", ErrInvalidValue, s, tok.Value)
		case scanner.TokenComment, scanner.TokenCDO, scanner.TokenCDC, scanner.TokenBOM:
			return fmt.Errorf("%w: %q: unexpected %s", ErrInvalidValue, s, tok.Type)
		case scanner.TokenFunction:
			open = append(open, ')')
		case scanner.TokenChar:
			switch c := tok.Value; c {
			case "(":
				open = append(open, ')')
			case "[":
				open = append(open, ']')
			case ")", "]":
				if len(open) == 0 || open[len(open)-1] != c[0] {
					return fmt.Errorf("%w: %q: unbalanced %q", ErrInvalidValue, s, c)
				}
				open = open[:len(open)-1]
			case "{", "}", ";", "\\":
				return fmt.Errorf("%w: %q: unexpected %q", ErrInvalidValue, s, c)
			}
		}
	}
}

func formatDimen(cssName string, d Dimen, unit string) Property {
	if !IsUnitless(cssName) {
		d = d.WithUnit(unit)
	}
	return Property(d.String())
}

func isBareURL(s string) bool {
	if strings.HasPrefix(s, "url(") || strings.Contains(s, "gradient(") {
		return false
	}
	for _, prefix := range []string{"http://", "https://", "//", "/", "./", "../", "data:"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		x, err := strconv.ParseFloat(strconv.FormatFloat(float64(v), 'g', -1, 32), 64)
		return x, err == nil
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}

// Declaration converts a single node property into a CSS declaration.
func Declaration(key string, value any, unit string) (KeyValue, bool) {
	kv, err := declaration(key, value, unit)
	return kv, err == nil
}

func declaration(key string, value any, unit string) (KeyValue, error) {
	name, ok := CSSName(key)
	if !ok {
		return KeyValue{}, errNoCSS
	}
	v, err := formatValue(name, value, unit)
	if err != nil {
		return KeyValue{}, err
	}
	return KeyValue{Key: name, Value: v}, nil
}

// Declarations converts a bag of node properties into CSS declarations,
// ordered by CSS property name. If more than one key maps to the same CSS
// property (e.g. "bgColor" and "backgroundColor"), the key sorting last wins.
// Malformed values are dropped; use Convert to learn about them.
func Declarations(props tree.Props, unit string) []KeyValue {
	decls, _ := Convert(props, unit)
	return decls
}

// Convert is Declarations, additionally returning an error for every
// property whose value has been rejected as malformed. Errors wrap
// ErrInvalidValue and are ordered by property key.
func Convert(props tree.Props, unit string) ([]KeyValue, []error) {
	if len(props) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	byName := make(map[string]Property, len(keys))
	var errs []error
	for _, k := range keys {
		kv, err := declaration(k, props[k], unit)
		switch {
		case err == nil:
			byName[kv.Key] = kv.Value
		case errors.Is(err, ErrInvalidValue):
			errs = append(errs, fmt.Errorf("property %s: %w", k, err))
		}
	}
	return sortedDeclarations(byName), errs
}

func sortedDeclarations(byName map[string]Property) []KeyValue {
	if len(byName) == 0 {
		return nil
	}
	decls := make([]KeyValue, 0, len(byName))
	for k, v := range byName {
		decls = append(decls, KeyValue{Key: k, Value: v})
	}
	sort.Slice(decls, func(i, j int) bool { return decls[i].Key < decls[j].Key })
	return decls
}

// Merge appends override declarations to decls, replacing declarations of
// the same CSS property. Declarations not overridden keep their position.
func Merge(decls []KeyValue, overrides []KeyValue) []KeyValue {
	merged := make([]KeyValue, 0, len(decls)+len(overrides))
	index := make(map[string]int, len(decls)+len(overrides))
	for _, list := range [][]KeyValue{decls, overrides} {
		for _, kv := range list {
			if i, ok := index[kv.Key]; ok {
				merged[i].Value = kv.Value
				continue
			}
			index[kv.Key] = len(merged)
			merged = append(merged, kv)
		}
	}
	return merged
}

// CustomCSS returns the raw declaration text of the "customCss" property.
func CustomCSS(props tree.Props) (string, bool) {
	s, ok := props[CustomCSSKey].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// Overrides extracts the per-breakpoint property overrides of the
// "responsive" property:
//
//     "responsive": { "tablet": { "fontSize": 14 }, "mobile": { … } }
//
// Entries for unknown breakpoints and for the primary breakpoint are
// ignored, as are entries which are not property maps.
func Overrides(props tree.Props) map[Breakpoint]tree.Props {
	var raw map[string]any
	switch r := props[ResponsiveKey].(type) {
	case map[string]any:
		raw = r
	case tree.Props:
		raw = r
	default:
		return nil
	}
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)
	overrides := make(map[Breakpoint]tree.Props)
	for _, name := range names {
		v := raw[name]
		bp, err := ParseBreakpoint(name)
		if err != nil || bp == Desktop {
			tracer().Debugf("style: ignoring responsive entry %q", name)
			continue
		}
		switch p := v.(type) {
		case map[string]any:
			overrides[bp] = tree.Props(p)
		case tree.Props:
			overrides[bp] = p
		}
	}
	if len(overrides) == 0 {
		return nil
	}
	return overrides
}
