package template

import (
	"github.com/vk/prodchain/internal/ast"
	"github.com/vk/prodchain/internal/diag"
	"github.com/vk/prodchain/internal/hierarchy"
)

// Formula is the rate formula bound to a recipe. Template is nil for the
// implicit identity formula, which has no factors and no power term.
type Formula struct {
	Template *ast.TemplateDecl
	Owner    int
	Factors  []ast.Operand
	Power    *ast.Operand
}

// Identity is the formula of recipes whose chain declares no template.
var Identity = Formula{Owner: hierarchy.NoParent}

// IsIdentity reports whether f is the implicit identity formula.
func (f Formula) IsIdentity() bool { return f.Template == nil }

// Expanded is a recipe with its formula bound. Self:: operands are still
// symbolic.
type Expanded struct {
	Recipe    *ast.RecipeDecl
	Declarer  int
	Signature string
	Formula   Formula
}

// Expander expands the recipes of individual nodes of a tree. It is safe for
// concurrent use as long as the collector is.
type Expander struct {
	tree *hierarchy.Tree
	c    *diag.Collector
}

// NewExpander returns an expander reporting to c.
func NewExpander(tree *hierarchy.Tree, c *diag.Collector) *Expander {
	return &Expander{tree: tree, c: c}
}

// Expand checks the templates declared on node id against its effective
// slots and binds a formula to each recipe the node declares itself.
// Recipes with a duplicate signature or without a matching template are
// reported and dropped.
func (e *Expander) Expand(id int, eff *hierarchy.Effective) []*Expanded {
	node := e.tree.Node(id)
	for _, t := range node.Body.Templates {
		e.checkTemplate(node.Name, t, eff)
	}

	var out []*Expanded
	seen := make(map[string]*ast.RecipeDecl)
	for _, r := range node.Body.Recipes {
		sig := r.Signature()
		if prev, dup := seen[sig]; dup {
			e.c.Add(&diag.DuplicateRecipeSignatureError{
				Subject:   r.SrcRange,
				Producer:  node.Name,
				Signature: sig,
				Previous:  prev.SrcRange,
			})
			continue
		}
		seen[sig] = r

		formula, ok := e.bind(id, r)
		if !ok {
			e.c.Add(&diag.UnmatchedTemplateError{Subject: r.SrcRange, Producer: node.Name, Signature: sig})
			continue
		}
		out = append(out, &Expanded{Recipe: r, Declarer: id, Signature: sig, Formula: formula})
	}
	return out
}

// bind finds the formula for r, starting at the declaring node and walking
// towards the root. It reports false when templates exist on the chain but
// none matches.
func (e *Expander) bind(id int, r *ast.RecipeDecl) (Formula, bool) {
	sawTemplate := false
	for p := id; p != hierarchy.NoParent; p = e.tree.Node(p).Parent {
		for _, t := range e.tree.Node(p).Body.Templates {
			sawTemplate = true
			if Matches(t, r) {
				return Formula{Template: t, Owner: p, Factors: t.Factors, Power: t.Power}, true
			}
		}
	}
	if sawTemplate {
		return Formula{}, false
	}
	return Identity, true
}

func (e *Expander) checkTemplate(owner string, t *ast.TemplateDecl, eff *hierarchy.Effective) {
	for _, f := range t.Factors {
		e.checkOperand(owner, f, ast.TypeReal, eff)
	}
	if t.Power != nil {
		e.checkOperand(owner, *t.Power, ast.TypePower, eff)
	}
}

func (e *Expander) checkOperand(owner string, op ast.Operand, want ast.SlotType, eff *hierarchy.Effective) {
	if !op.IsSelf() {
		if !want.Accepts(op.Literal.Kind) {
			e.c.Add(&diag.TypeMismatchError{
				Subject:  op.SrcRange,
				Node:     owner,
				Slot:     op.String(),
				Expected: want.String(),
				Got:      op.Literal.Kind.String(),
			})
		}
		return
	}
	slot, ok := eff.Slots[op.SelfDep]
	if !ok {
		e.c.Add(&diag.UndeclaredDependencyError{Subject: op.SrcRange, Node: owner, Slot: op.SelfDep})
		return
	}
	if slot.Type != want {
		e.c.Add(&diag.TypeMismatchError{
			Subject:  op.SrcRange,
			Node:     owner,
			Slot:     op.SelfDep,
			Expected: want.String(),
			Got:      slot.Type.String(),
		})
	}
}

// Collect gathers the recipes available on a chain ordered root to leaf,
// given the expansion of every node on it. A recipe whose signature an
// ancestor already declared replaces the ancestor's recipe in place.
func Collect(chain []int, perNode map[int][]*Expanded) []*Expanded {
	var out []*Expanded
	index := make(map[string]int)
	for _, id := range chain {
		for _, x := range perNode[id] {
			if i, ok := index[x.Signature]; ok {
				out[i] = x
				continue
			}
			index[x.Signature] = len(out)
			out = append(out, x)
		}
	}
	return out
}
