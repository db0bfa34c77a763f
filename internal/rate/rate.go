// Package rate evaluates bound recipe formulas against a machine's resolved
// dependency values.
package rate

import (
	"github.com/vk/prodchain/internal/ast"
	"github.com/vk/prodchain/internal/hierarchy"
	"github.com/vk/prodchain/internal/registry"
	"github.com/vk/prodchain/internal/template"
)

// PartRate is one recipe part with its flow in items per second.
type PartRate struct {
	Product   string
	Quantity  int
	PerSecond float64
}

// Figure is the throughput and power record of one (machine, recipe) pair.
type Figure struct {
	Recipe     string
	Signature  string
	Inputs     []PartRate
	Outputs    []PartRate
	DurationMs float64
	Scale      float64
	PerMs      float64
	PerSecond  float64
	PowerKW    float64
}

// Calculator computes figures. It only reads the product registry and is
// safe for concurrent use.
type Calculator struct {
	products *registry.Products
}

// NewCalculator returns a calculator over the given registry.
func NewCalculator(products *registry.Products) *Calculator {
	return &Calculator{products: products}
}

// Compute evaluates x for a machine whose effective dependencies are eff.
// Throughput is q / d * s items per millisecond, where q is the quantity of
// the primary output, d the duration in ms and s the product of the formula
// factors. It reports false when the recipe references an unknown product
// or a formula operand has no usable binding; both are reported elsewhere.
func (c *Calculator) Compute(x *template.Expanded, eff *hierarchy.Effective) (Figure, bool) {
	r := x.Recipe
	for _, parts := range [][]ast.Part{r.Inputs, r.Outputs} {
		for _, p := range parts {
			if !c.products.Has(p.Product.Name) {
				return Figure{}, false
			}
		}
	}

	scale := 1.0
	for _, f := range x.Formula.Factors {
		v, ok := evaluate(f, ast.TypeReal, eff)
		if !ok {
			return Figure{}, false
		}
		scale *= v
	}
	power := 0.0
	if x.Formula.Power != nil {
		v, ok := evaluate(*x.Formula.Power, ast.TypePower, eff)
		if !ok {
			return Figure{}, false
		}
		power = v
	}

	d := r.Duration.Canonical()
	q := float64(r.Outputs[0].Quantity)
	return Figure{
		Recipe:     r.Name.Name,
		Signature:  x.Signature,
		Inputs:     partRates(r.Inputs, scale, d),
		Outputs:    partRates(r.Outputs, scale, d),
		DurationMs: d,
		Scale:      scale,
		PerMs:      q * scale / d,
		PerSecond:  q * scale * 1000 / d,
		PowerKW:    power,
	}, true
}

func partRates(parts []ast.Part, scale, d float64) []PartRate {
	out := make([]PartRate, len(parts))
	for i, p := range parts {
		out[i] = PartRate{
			Product:   p.Product.Name,
			Quantity:  p.Quantity,
			PerSecond: float64(p.Quantity) * scale * 1000 / d,
		}
	}
	return out
}

// evaluate returns the canonical value of op. A Self:: reference resolves
// to the machine's binding, which must have the kind the position expects.
func evaluate(op ast.Operand, want ast.SlotType, eff *hierarchy.Effective) (float64, bool) {
	lit := op.Literal
	if op.IsSelf() {
		d, ok := eff.Bound(op.SelfDep)
		if !ok {
			return 0, false
		}
		lit = d.Value
	}
	if !want.Accepts(lit.Kind) {
		return 0, false
	}
	return lit.Canonical(), true
}
