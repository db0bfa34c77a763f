package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/prodchain/internal/ast"
	"github.com/vk/prodchain/internal/diag"
	"github.com/vk/prodchain/internal/lang"
	"github.com/zclconf/go-cty/cty"
)

// Parse reads one HCL source file. HCL syntax errors and schema violations
// become a *diag.ParseError; malformed attribute values become the
// *diag.LexError or *diag.ParseError of the native grammar.
func Parse(filename string, src []byte) (*ast.File, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fromDiagnostics(diags)
	}

	content, diags := file.Body.Content(rootSchema)
	if diags.HasErrors() {
		return nil, fromDiagnostics(diags)
	}

	out := &ast.File{}
	if attr, ok := content.Attributes["products"]; ok {
		decl, err := translateProducts(attr)
		if err != nil {
			return nil, err
		}
		out.Blocks = append(out.Blocks, decl)
	}

	for _, block := range content.Blocks {
		name, err := lang.ParseIdent(block.Labels[0], block.LabelRanges[0])
		if err != nil {
			return nil, err
		}
		base, body, err := translateType(block.Body)
		if err != nil {
			return nil, err
		}
		switch block.Type {
		case "producer":
			out.Blocks = append(out.Blocks, &ast.ProducerDecl{Name: name, Base: base, Body: body, SrcRange: block.DefRange})
		case "machine":
			out.Blocks = append(out.Blocks, &ast.MachineDecl{Name: name, Base: base, Body: body, SrcRange: block.DefRange})
		}
	}
	return out, nil
}

func translateProducts(attr *hcl.Attribute) (*ast.ProductsDecl, error) {
	items, err := stringList(attr.Expr)
	if err != nil {
		return nil, err
	}
	decl := &ast.ProductsDecl{SrcRange: attr.Range}
	for _, it := range items {
		id, err := lang.ParseIdent(it.text, it.rng)
		if err != nil {
			return nil, err
		}
		decl.Names = append(decl.Names, id)
	}
	return decl, nil
}

func translateType(body hcl.Body) (*ast.Ident, ast.Body, error) {
	var out ast.Body
	content, diags := body.Content(typeSchema)
	if diags.HasErrors() {
		return nil, out, fromDiagnostics(diags)
	}

	var base *ast.Ident
	if attr, ok := content.Attributes["base"]; ok {
		var name string
		if diags := gohcl.DecodeExpression(attr.Expr, nil, &name); diags.HasErrors() {
			return nil, out, fromDiagnostics(diags)
		}
		id, err := lang.ParseIdent(name, attr.Expr.Range())
		if err != nil {
			return nil, out, err
		}
		base = &id
	}

	for _, block := range content.Blocks {
		switch block.Type {
		case "dep":
			dep, err := translateDep(block)
			if err != nil {
				return nil, out, err
			}
			out.Deps = append(out.Deps, dep)
		case "recipe_template":
			tmpl, err := translateTemplate(block)
			if err != nil {
				return nil, out, err
			}
			out.Templates = append(out.Templates, tmpl)
		case "recipe":
			recipe, err := translateRecipe(block)
			if err != nil {
				return nil, out, err
			}
			out.Recipes = append(out.Recipes, recipe)
		}
	}
	return base, out, nil
}

func translateDep(block *hcl.Block) (*ast.DepDecl, error) {
	content, diags := block.Body.Content(depSchema)
	if diags.HasErrors() {
		return nil, fromDiagnostics(diags)
	}
	name, err := lang.ParseIdent(block.Labels[0], block.LabelRanges[0])
	if err != nil {
		return nil, err
	}
	dep := &ast.DepDecl{Name: name, SrcRange: block.DefRange}

	typeAttr, hasType := content.Attributes["type"]
	valueAttr, hasValue := content.Attributes["value"]
	if !hasType && !hasValue {
		return nil, &diag.ParseError{
			Subject: block.DefRange,
			Msg:     fmt.Sprintf("dependency %s needs a type, a value, or both", block.Labels[0]),
		}
	}

	if hasType {
		var name string
		if diags := gohcl.DecodeExpression(typeAttr.Expr, nil, &name); diags.HasErrors() {
			return nil, fromDiagnostics(diags)
		}
		st, ok := ast.ParseSlotType(name)
		if !ok {
			return nil, &diag.ParseError{
				Subject: typeAttr.Expr.Range(),
				Msg:     fmt.Sprintf("unknown dependency type %q; expected Power, real or Time", name),
			}
		}
		dep.Type = &ast.TypeRef{Type: st, SrcRange: typeAttr.Expr.Range()}
	}

	if hasValue {
		text, err := scalarText(valueAttr.Expr)
		if err != nil {
			return nil, err
		}
		lit, err := lang.ParseLiteral(text, valueAttr.Expr.Range())
		if err != nil {
			return nil, err
		}
		dep.Value = &lit
		dep.Form = ast.BindEquals
	}
	return dep, nil
}

func translateTemplate(block *hcl.Block) (*ast.TemplateDecl, error) {
	content, diags := block.Body.Content(templateSchema)
	if diags.HasErrors() {
		return nil, fromDiagnostics(diags)
	}
	tmpl := &ast.TemplateDecl{
		Name:     ast.NamePattern{Wildcard: true, SrcRange: block.DefRange},
		Inputs:   ast.ListPattern{Wildcard: true, SrcRange: block.DefRange},
		Outputs:  ast.ListPattern{Wildcard: true, SrcRange: block.DefRange},
		SrcRange: block.DefRange,
	}

	if attr, ok := content.Attributes["name"]; ok {
		var name string
		if diags := gohcl.DecodeExpression(attr.Expr, nil, &name); diags.HasErrors() {
			return nil, fromDiagnostics(diags)
		}
		tmpl.Name = ast.NamePattern{Wildcard: true, SrcRange: attr.Expr.Range()}
		if name != "_" {
			id, err := lang.ParseIdent(name, attr.Expr.Range())
			if err != nil {
				return nil, err
			}
			tmpl.Name = ast.NamePattern{Name: id.Name, SrcRange: id.SrcRange}
		}
	}

	var err error
	if attr, ok := content.Attributes["inputs"]; ok {
		if tmpl.Inputs, err = listPattern(attr.Expr); err != nil {
			return nil, err
		}
	}
	if attr, ok := content.Attributes["outputs"]; ok {
		if tmpl.Outputs, err = listPattern(attr.Expr); err != nil {
			return nil, err
		}
		if !tmpl.Outputs.Wildcard && len(tmpl.Outputs.Items) == 0 {
			return nil, &diag.ParseError{Subject: attr.Expr.Range(), Msg: "template outputs must not be empty"}
		}
	}

	if attr, ok := content.Attributes["factors"]; ok {
		items, err := stringList(attr.Expr)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			op, err := lang.ParseOperand(it.text, it.rng)
			if err != nil {
				return nil, err
			}
			tmpl.Factors = append(tmpl.Factors, op)
		}
	}
	if attr, ok := content.Attributes["power"]; ok {
		text, err := scalarText(attr.Expr)
		if err != nil {
			return nil, err
		}
		op, err := lang.ParseOperand(text, attr.Expr.Range())
		if err != nil {
			return nil, err
		}
		tmpl.Power = &op
	}
	return tmpl, nil
}

func translateRecipe(block *hcl.Block) (*ast.RecipeDecl, error) {
	content, diags := block.Body.Content(recipeSchema)
	if diags.HasErrors() {
		return nil, fromDiagnostics(diags)
	}
	name, err := lang.ParseIdent(block.Labels[0], block.LabelRanges[0])
	if err != nil {
		return nil, err
	}
	recipe := &ast.RecipeDecl{Name: name, SrcRange: block.DefRange}

	if attr, ok := content.Attributes["inputs"]; ok {
		if recipe.Inputs, err = parts(attr.Expr); err != nil {
			return nil, err
		}
	}
	outputs := content.Attributes["outputs"]
	if recipe.Outputs, err = parts(outputs.Expr); err != nil {
		return nil, err
	}
	if len(recipe.Outputs) == 0 {
		return nil, &diag.ParseError{Subject: outputs.Expr.Range(), Msg: fmt.Sprintf("recipe %s needs at least one output", block.Labels[0])}
	}

	durAttr := content.Attributes["duration"]
	text, err := scalarText(durAttr.Expr)
	if err != nil {
		return nil, err
	}
	dur, err := lang.ParseLiteral(text, durAttr.Expr.Range())
	if err != nil {
		return nil, err
	}
	if dur.Kind == ast.KindPower {
		return nil, &diag.ParseError{Subject: durAttr.Expr.Range(), Msg: fmt.Sprintf("duration of recipe %s must be a time, found %s", block.Labels[0], dur)}
	}
	if dur.Value <= 0 {
		return nil, &diag.ParseError{Subject: durAttr.Expr.Range(), Msg: fmt.Sprintf("duration of recipe %s must be positive", block.Labels[0])}
	}
	recipe.Duration = dur
	return recipe, nil
}

func parts(expr hcl.Expression) ([]ast.Part, error) {
	items, err := stringList(expr)
	if err != nil {
		return nil, err
	}
	out := make([]ast.Part, 0, len(items))
	for _, it := range items {
		p, err := lang.ParsePart(it.text, it.rng)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// listPattern accepts the string "_" or the list ["_"] for any list, or a
// list whose items are "_" or parts. ["_"] means any list, as _ does between
// the parentheses of the native syntax.
func listPattern(expr hcl.Expression) (ast.ListPattern, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return ast.ListPattern{}, fromDiagnostics(diags)
	}
	if val.Type() == cty.String {
		if val.IsKnown() && !val.IsNull() && val.AsString() == "_" {
			return ast.ListPattern{Wildcard: true, SrcRange: expr.Range()}, nil
		}
		return ast.ListPattern{}, &diag.ParseError{Subject: expr.Range(), Msg: `a pattern list must be "_" or a list of patterns`}
	}

	items, err := stringList(expr)
	if err != nil {
		return ast.ListPattern{}, err
	}
	if len(items) == 1 && items[0].text == "_" {
		return ast.ListPattern{Wildcard: true, SrcRange: expr.Range()}, nil
	}
	out := ast.ListPattern{SrcRange: expr.Range()}
	for _, it := range items {
		p, err := lang.ParsePartPattern(it.text, it.rng)
		if err != nil {
			return ast.ListPattern{}, err
		}
		out.Items = append(out.Items, p)
	}
	return out, nil
}

type item struct {
	text string
	rng  hcl.Range
}

// stringList evaluates a static list of strings, keeping each element's
// range.
func stringList(expr hcl.Expression) ([]item, error) {
	elems, diags := hcl.ExprList(expr)
	if diags.HasErrors() {
		return nil, fromDiagnostics(diags)
	}
	out := make([]item, 0, len(elems))
	for _, el := range elems {
		var s string
		if diags := gohcl.DecodeExpression(el, nil, &s); diags.HasErrors() {
			return nil, fromDiagnostics(diags)
		}
		out = append(out, item{text: s, rng: el.Range()})
	}
	return out, nil
}

// scalarText renders a string or number attribute as native source text,
// so both value = "30kW" and value = 1.5 are accepted.
func scalarText(expr hcl.Expression) (string, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return "", fromDiagnostics(diags)
	}
	if val.IsNull() || !val.IsKnown() {
		return "", &diag.ParseError{Subject: expr.Range(), Msg: "value must not be null"}
	}
	switch val.Type() {
	case cty.String:
		return val.AsString(), nil
	case cty.Number:
		return val.AsBigFloat().Text('f', -1), nil
	default:
		return "", &diag.ParseError{
			Subject: expr.Range(),
			Msg:     fmt.Sprintf("expected a string or number, found %s", val.Type().FriendlyName()),
		}
	}
}

// fromDiagnostics turns the first error diagnostic into a ParseError.
func fromDiagnostics(diags hcl.Diagnostics) error {
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		err := &diag.ParseError{Msg: d.Summary}
		if d.Detail != "" {
			err.Msg += ": " + d.Detail
		}
		if d.Subject != nil {
			err.Subject = *d.Subject
		}
		return err
	}
	return diags
}
