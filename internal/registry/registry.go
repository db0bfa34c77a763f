package registry

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/hashicorp/hcl/v2"
	"github.com/vk/prodchain/internal/ast"
	"github.com/vk/prodchain/internal/diag"
)

// Products is the immutable product registry.
type Products struct {
	order []string
	decls map[string]hcl.Range
}

// NewProducts collects the products of every Products block in f, in
// declaration order. A name declared twice is reported to c as a
// DuplicateDeclarationError and registered once.
func NewProducts(f *ast.File, c *diag.Collector) *Products {
	p := &Products{decls: make(map[string]hcl.Range)}
	for _, block := range f.Blocks {
		decl, ok := block.(*ast.ProductsDecl)
		if !ok {
			continue
		}
		for _, name := range decl.Names {
			if prev, dup := p.decls[name.Name]; dup {
				c.Add(&diag.DuplicateDeclarationError{
					Subject:  name.SrcRange,
					What:     "product",
					Name:     name.Name,
					Previous: prev,
				})
				continue
			}
			p.decls[name.Name] = name.SrcRange
			p.order = append(p.order, name.Name)
		}
	}
	return p
}

// Has reports whether name is a registered product.
func (p *Products) Has(name string) bool {
	_, ok := p.decls[name]
	return ok
}

// Names returns the products in declaration order.
func (p *Products) Names() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Len returns the number of registered products.
func (p *Products) Len() int { return len(p.order) }

// Suggest returns the registered product closest to name, or "" when none
// is close enough to be a plausible typo.
func (p *Products) Suggest(name string) string {
	return Closest(name, p.order)
}

// Closest picks the candidate with the smallest edit distance to name.
// A case-insensitive match always wins. Candidates further than a third of
// the name's length (at least 2 edits) are ignored; ties go to the
// alphabetically first candidate.
func Closest(name string, candidates []string) string {
	limit := len(name) / 3
	if limit < 2 {
		limit = 2
	}

	sorted := make([]string, len(candidates))
	copy(sorted, candidates)
	sort.Strings(sorted)

	best, bestDist := "", limit+1
	for _, cand := range sorted {
		if cand == name {
			continue
		}
		if strings.EqualFold(cand, name) {
			return cand
		}
		if d := levenshtein.ComputeDistance(name, cand); d < bestDist {
			best, bestDist = cand, d
		}
	}
	return best
}
