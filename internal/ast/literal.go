package ast

import (
	"strconv"

	"github.com/hashicorp/hcl/v2"
)

// SlotType is the declared type of a dependency slot.
type SlotType int

const (
	TypeReal SlotType = iota
	TypePower
	TypeTime
)

var slotTypeNames = map[string]SlotType{
	"real":  TypeReal,
	"Power": TypePower,
	"Time":  TypeTime,
}

// ParseSlotType maps a type name as written in source to a SlotType.
func ParseSlotType(name string) (SlotType, bool) {
	t, ok := slotTypeNames[name]
	return t, ok
}

func (t SlotType) String() string {
	switch t {
	case TypePower:
		return "Power"
	case TypeTime:
		return "Time"
	default:
		return "real"
	}
}

// Accepts reports whether a literal of kind k may be bound to a slot of
// type t.
func (t SlotType) Accepts(k LiteralKind) bool {
	switch t {
	case TypePower:
		return k == KindPower
	case TypeTime:
		return k == KindTime
	default:
		return k == KindNumber
	}
}

// LiteralKind classifies a literal by its unit suffix.
type LiteralKind int

const (
	KindNumber LiteralKind = iota
	KindPower
	KindTime
)

func (k LiteralKind) String() string {
	switch k {
	case KindPower:
		return "power"
	case KindTime:
		return "time"
	default:
		return "number"
	}
}

type unit struct {
	kind   LiteralKind
	factor float64
}

// Canonical units are kW for power and ms for time.
var units = map[string]unit{
	"W":   {KindPower, 0.001},
	"kW":  {KindPower, 1},
	"MW":  {KindPower, 1000},
	"GW":  {KindPower, 1_000_000},
	"ms":  {KindTime, 1},
	"s":   {KindTime, 1000},
	"min": {KindTime, 60_000},
	"h":   {KindTime, 3_600_000},
}

// LookupUnit returns the kind of a unit suffix. It reports false for
// unknown suffixes.
func LookupUnit(suffix string) (LiteralKind, bool) {
	u, ok := units[suffix]
	return u.kind, ok
}

// CanonicalUnit names the unit Canonical values are expressed in.
func (k LiteralKind) CanonicalUnit() string {
	switch k {
	case KindPower:
		return "kW"
	case KindTime:
		return "ms"
	default:
		return ""
	}
}

// Literal is a number with an optional unit suffix, kept as written.
type Literal struct {
	Kind     LiteralKind
	Value    float64
	Unit     string
	SrcRange hcl.Range
}

// NewLiteral builds a literal from a value and suffix. An empty suffix
// yields a bare number. It reports false for an unknown suffix.
func NewLiteral(value float64, suffix string, rng hcl.Range) (Literal, bool) {
	if suffix == "" {
		return Literal{Kind: KindNumber, Value: value, SrcRange: rng}, true
	}
	kind, ok := LookupUnit(suffix)
	if !ok {
		return Literal{}, false
	}
	return Literal{Kind: kind, Value: value, Unit: suffix, SrcRange: rng}, true
}

// Canonical returns the value converted to the canonical unit of its kind.
func (l Literal) Canonical() float64 {
	if l.Unit == "" {
		return l.Value
	}
	return l.Value * units[l.Unit].factor
}

func (l Literal) String() string {
	return strconv.FormatFloat(l.Value, 'f', -1, 64) + l.Unit
}
