package hierarchy

import (
	"github.com/vk/prodchain/internal/ast"
	"github.com/vk/prodchain/internal/diag"
)

// Slot is a typed dependency slot together with the node that declared it.
type Slot struct {
	Name  string
	Type  ast.SlotType
	Owner int
	Decl  *ast.DepDecl
}

// Effective is the resolved view of a node's dependencies: every slot
// declared on its chain and the most-derived binding for each of them.
type Effective struct {
	Slots    map[string]Slot
	Order    []string
	Bindings map[string]*ast.DepDecl
}

// Bound returns the binding in effect for slot name.
func (e *Effective) Bound(name string) (*ast.DepDecl, bool) {
	d, ok := e.Bindings[name]
	return d, ok
}

// Unbound returns the slots without a binding, in declaration order.
func (e *Effective) Unbound() []Slot {
	var out []Slot
	for _, name := range e.Order {
		if _, ok := e.Bindings[name]; !ok {
			out = append(out, e.Slots[name])
		}
	}
	return out
}

// Shadow applies the bodies of a chain from root to leaf and keeps, per
// slot, the last binding seen. An ancestor's binding is replaced, never
// merged.
func Shadow(chain []*ast.Body) map[string]*ast.DepDecl {
	out := make(map[string]*ast.DepDecl)
	for _, body := range chain {
		for _, d := range body.Deps {
			if d.IsBinding() {
				out[d.Name.Name] = d
			}
		}
	}
	return out
}

// Effective computes the effective slots of node id from its parent's
// result, which must be nil for roots. Only the node's own body is checked,
// so calling it once per node reports each problem once:
// SlotRedeclarationError for a slot typed again, DuplicateDeclarationError
// for a slot bound twice in the same body, UndeclaredDependencyError for a
// binding of a slot no node on the chain declares. Undeclared bindings are
// left out of the result.
func (t *Tree) Effective(id int, parent *Effective, c *diag.Collector) *Effective {
	n := &t.nodes[id]
	eff := &Effective{Slots: make(map[string]Slot)}
	if parent != nil {
		for name, s := range parent.Slots {
			eff.Slots[name] = s
		}
		eff.Order = append(eff.Order, parent.Order...)
	}

	for _, d := range n.Body.Deps {
		if d.Type == nil {
			continue
		}
		if prev, dup := eff.Slots[d.Name.Name]; dup {
			c.Add(&diag.SlotRedeclarationError{
				Subject:  d.SrcRange,
				Node:     n.Name,
				Slot:     d.Name.Name,
				Owner:    t.nodes[prev.Owner].Name,
				Previous: prev.Decl.SrcRange,
			})
			continue
		}
		eff.Slots[d.Name.Name] = Slot{Name: d.Name.Name, Type: d.Type.Type, Owner: id, Decl: d}
		eff.Order = append(eff.Order, d.Name.Name)
	}

	bound := make(map[string]*ast.DepDecl)
	for _, d := range n.Body.Deps {
		if !d.IsBinding() {
			continue
		}
		if prev, dup := bound[d.Name.Name]; dup {
			c.Add(&diag.DuplicateDeclarationError{
				Subject:  d.SrcRange,
				What:     "binding",
				Name:     d.Name.Name,
				Previous: prev.SrcRange,
			})
			continue
		}
		bound[d.Name.Name] = d
		if _, ok := eff.Slots[d.Name.Name]; !ok {
			c.Add(&diag.UndeclaredDependencyError{Subject: d.SrcRange, Node: n.Name, Slot: d.Name.Name})
		}
	}

	chain := t.Chain(id)
	bodies := make([]*ast.Body, len(chain))
	for i, p := range chain {
		bodies[i] = t.nodes[p].Body
	}
	eff.Bindings = Shadow(bodies)
	for name := range eff.Bindings {
		if _, ok := eff.Slots[name]; !ok {
			delete(eff.Bindings, name)
		}
	}
	return eff
}
