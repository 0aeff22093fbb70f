package style

import (
	"encoding/json"
	"strconv"
	"strings"
)

const (
	dimenNone uint32 = 0

	dimenAbsolute uint32 = 0x0001 // number with unit
	dimenAuto     uint32 = 0x0002
	dimenInherit  uint32 = 0x0003
	dimenInitial  uint32 = 0x0004
	dimenNumber   uint32 = 0x0005 // number without unit
	dimenPercent  uint32 = 0x0006
	kindMask      uint32 = 0x000f
)

// Dimen is an option type for CSS dimensions as used by node properties.
type Dimen struct {
	x     float64
	unit  string
	flags uint32
}

/*
type Dimen
	= Auto
	| Inherit
	| Initial
	| Just x unit
	| Number x
	| Percentage x
*/

// Auto creates a dimension of value "auto".
func Auto() Dimen {
	return Dimen{flags: dimenAuto}
}

// Inherit creates a dimension of value "inherit".
func Inherit() Dimen {
	return Dimen{flags: dimenInherit}
}

// Initial creates a dimension of value "initial".
func Initial() Dimen {
	return Dimen{flags: dimenInitial}
}

// Just creates a dimension with a fixed value of x, measured in unit.
func Just(x float64, unit string) Dimen {
	return Dimen{x: x, unit: unit, flags: dimenAbsolute}
}

// Number creates a plain number without a unit.
func Number(x float64) Dimen {
	return Dimen{x: x, flags: dimenNumber}
}

// Percentage creates a %-relative dimension.
func Percentage(x float64) Dimen {
	return Dimen{x: x, flags: dimenPercent}
}

// IsNone is a predicate wether d is unset.
func (d Dimen) IsNone() bool {
	return d.flags == dimenNone
}

// WithUnit turns a plain number into a dimension measured in unit.
// Other dimensions are returned unchanged.
func (d Dimen) WithUnit(unit string) Dimen {
	if d.flags&kindMask == dimenNumber && unit != "" {
		return Just(d.x, unit)
	}
	return d
}

func (d Dimen) String() string {
	var x float64
	var unit string
	switch m := d.Match(); m {
	case m.Just(&x, &unit):
		return formatNumber(x) + unit
	case m.Number(&x):
		return formatNumber(x)
	case m.Percentage(&x):
		return formatNumber(x) + "%"
	case m.IsKind(Auto()):
		return "auto"
	case m.IsKind(Inherit()):
		return "inherit"
	case m.IsKind(Initial()):
		return "initial"
	}
	return ""
}

// MarshalJSON encodes a dimension as its CSS text, e.g. "2rem". An unset
// dimension encodes as null.
func (d Dimen) MarshalJSON() ([]byte, error) {
	if d.IsNone() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// ---------------------------------------------------------------------------

// Match starts a pattern match on d:
//
//     switch m := d.Match(); m {
//     case m.Just(&x, &unit):
//         …
//     case m.IsKind(style.Auto()):
//         …
//     }
//
func (d Dimen) Match() *Matcher {
	return &Matcher{dimen: d}
}

// Matcher matches a dimension against patterns. Every pattern method returns
// the matcher itself on success and nil otherwise.
type Matcher struct {
	dimen Dimen
}

// IsKind matches dimensions of the same kind as d.
func (m *Matcher) IsKind(d Dimen) *Matcher {
	if m.dimen.flags&kindMask == d.flags&kindMask {
		return m
	}
	return nil
}

// Just matches numbers with a unit and extracts value and unit.
func (m *Matcher) Just(x *float64, unit *string) *Matcher {
	if m.dimen.flags&kindMask == dimenAbsolute {
		if x != nil {
			*x = m.dimen.x
		}
		if unit != nil {
			*unit = m.dimen.unit
		}
		return m
	}
	return nil
}

// Number matches plain numbers and extracts the value.
func (m *Matcher) Number(x *float64) *Matcher {
	if m.dimen.flags&kindMask == dimenNumber {
		if x != nil {
			*x = m.dimen.x
		}
		return m
	}
	return nil
}

// Percentage matches %-relative dimensions and extracts the value.
func (m *Matcher) Percentage(p *float64) *Matcher {
	if m.dimen.flags&kindMask == dimenPercent {
		if p != nil {
			*p = m.dimen.x
		}
		return m
	}
	return nil
}

// --- Parsing ---------------------------------------------------------------

var knownUnits = []string{
	"px", "rem", "em", "vw", "vh", "vmin", "vmax", "ch", "ex", "pt", "pc",
	"cm", "mm", "in", "fr", "deg", "s", "ms",
}

// ParseDimen reads a single CSS dimension, e.g. "12px", "50%", "1.5" or
// "auto". It returns false for anything else, including compound values
// like "4px 8px".
func ParseDimen(s string) (Dimen, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "":
		return Dimen{}, false
	case "auto":
		return Auto(), true
	case "inherit":
		return Inherit(), true
	case "initial":
		return Initial(), true
	}
	if strings.HasSuffix(s, "%") {
		if x, ok := parseNumber(s[:len(s)-1]); ok {
			return Percentage(x), true
		}
		return Dimen{}, false
	}
	if x, ok := parseNumber(s); ok {
		return Number(x), true
	}
	for _, unit := range knownUnits {
		if strings.HasSuffix(s, unit) {
			if x, ok := parseNumber(s[:len(s)-len(unit)]); ok {
				return Just(x, unit), true
			}
		}
	}
	return Dimen{}, false
}

// parseNumber accepts decimal CSS numbers only, e.g. "-1.5" or ".5".
func parseNumber(s string) (float64, bool) {
	if s == "" || strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.' && r != '-' && r != '+' && r != 'e'
	}) >= 0 {
		return 0, false
	}
	x, err := strconv.ParseFloat(s, 64)
	return x, err == nil
}

func formatNumber(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
