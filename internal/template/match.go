package template

import "github.com/vk/prodchain/internal/ast"

// Matches reports whether t applies to recipe r.
func Matches(t *ast.TemplateDecl, r *ast.RecipeDecl) bool {
	if !t.Name.Wildcard && t.Name.Name != r.Name.Name {
		return false
	}
	return matchList(t.Inputs, r.Inputs) && matchList(t.Outputs, r.Outputs)
}

func matchList(pat ast.ListPattern, parts []ast.Part) bool {
	if pat.Wildcard {
		return true
	}
	if len(pat.Items) != len(parts) {
		return false
	}
	for i, item := range pat.Items {
		if item.Wildcard {
			continue
		}
		if item.Part.Product.Name != parts[i].Product.Name || item.Part.Quantity != parts[i].Quantity {
			return false
		}
	}
	return true
}
