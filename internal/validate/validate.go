package validate

import (
	"github.com/vk/prodchain/internal/ast"
	"github.com/vk/prodchain/internal/diag"
	"github.com/vk/prodchain/internal/hierarchy"
	"github.com/vk/prodchain/internal/model"
	"github.com/vk/prodchain/internal/rate"
	"github.com/vk/prodchain/internal/registry"
	"github.com/vk/prodchain/internal/template"
)

// CheckDependencies reports, for node id, every binding in its own body
// whose literal does not fit the slot type, and for machines every slot of
// the effective set left unbound.
func CheckDependencies(tree *hierarchy.Tree, id int, eff *hierarchy.Effective, c *diag.Collector) {
	node := tree.Node(id)
	for _, d := range node.Body.Deps {
		if !d.IsBinding() {
			continue
		}
		slot, ok := eff.Slots[d.Name.Name]
		if !ok {
			continue
		}
		if !slot.Type.Accepts(d.Value.Kind) {
			c.Add(&diag.TypeMismatchError{
				Subject:  d.Value.SrcRange,
				Node:     node.Name,
				Slot:     d.Name.Name,
				Expected: slot.Type.String(),
				Got:      d.Value.Kind.String(),
			})
		}
	}

	if !node.IsMachine() {
		return
	}
	for _, slot := range eff.Unbound() {
		c.Add(&diag.UnboundDependencyError{
			Subject: node.Range,
			Machine: node.Name,
			Slot:    slot.Name,
			Owner:   tree.Node(slot.Owner).Name,
		})
	}
}

// CheckProducts reports every recipe part naming a product outside the
// registry. Each declaring node is checked once, however many machines
// inherit the recipe.
func CheckProducts(tree *hierarchy.Tree, expanded [][]*template.Expanded, products *registry.Products, c *diag.Collector) {
	for id, xs := range expanded {
		for _, x := range xs {
			for _, parts := range [][]ast.Part{x.Recipe.Inputs, x.Recipe.Outputs} {
				for _, p := range parts {
					if products.Has(p.Product.Name) {
						continue
					}
					c.Add(&diag.UnknownProductError{
						Subject:    p.Product.SrcRange,
						Producer:   tree.Node(id).Name,
						Recipe:     x.Recipe.Name.Name,
						Product:    p.Product.Name,
						Suggestion: products.Suggest(p.Product.Name),
					})
				}
			}
		}
	}
}

// Entry pairs an expanded recipe with its computed figure.
type Entry struct {
	Recipe *template.Expanded
	Figure rate.Figure
}

// Resolved is what a worker produced for one machine.
type Resolved struct {
	ID      int
	Eff     *hierarchy.Effective
	Entries []Entry
}

// Assemble builds the immutable model from the per-machine results, which
// must be in declaration order.
func Assemble(tree *hierarchy.Tree, products *registry.Products, machines []Resolved) *model.Model {
	out := make([]model.Machine, 0, len(machines))
	for _, r := range machines {
		node := tree.Node(r.ID)
		m := model.Machine{
			Name: node.Name,
			Deps: make(map[string]model.Value, len(r.Eff.Bindings)),
		}
		if node.Base != nil {
			m.Base = node.Base.Name
		}
		for _, p := range tree.Chain(r.ID) {
			m.Chain = append(m.Chain, tree.Node(p).Name)
		}
		for name, d := range r.Eff.Bindings {
			m.Deps[name] = value(*d.Value)
		}
		for _, e := range r.Entries {
			fig := e.Figure
			m.Recipes = append(m.Recipes, model.Recipe{
				Name:       fig.Recipe,
				Signature:  fig.Signature,
				DeclaredBy: tree.Node(e.Recipe.Declarer).Name,
				Inputs:     parts(fig.Inputs),
				Outputs:    parts(fig.Outputs),
				DurationMs: fig.DurationMs,
				Rate:       fig.PerSecond,
				PowerKW:    fig.PowerKW,
			})
		}
		out = append(out, m)
	}
	return model.New(products.Names(), out)
}

func value(lit ast.Literal) model.Value {
	return model.Value{
		Literal: lit.String(),
		Kind:    lit.Kind.String(),
		Value:   lit.Canonical(),
		Unit:    lit.Kind.CanonicalUnit(),
	}
}

func parts(in []rate.PartRate) []model.Part {
	out := make([]model.Part, len(in))
	for i, p := range in {
		out[i] = model.Part{Product: p.Product, Quantity: p.Quantity, PerSecond: p.PerSecond}
	}
	return out
}
