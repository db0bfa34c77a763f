package ast

import (
	"bytes"
	"fmt"
	"strings"
)

const indent = "    "

// Format renders f in canonical native syntax. Parsing the output yields a
// tree equal to f apart from source ranges.
func Format(f *File) []byte {
	var buf bytes.Buffer
	for i, b := range f.Blocks {
		if i > 0 {
			buf.WriteByte('\n')
		}
		switch b := b.(type) {
		case *ProductsDecl:
			formatProducts(&buf, b)
		case *ProducerDecl:
			formatHeader(&buf, "producer", b.Name, b.Base)
			formatBody(&buf, &b.Body)
		case *MachineDecl:
			formatHeader(&buf, "machine", b.Name, b.Base)
			formatBody(&buf, &b.Body)
		}
	}
	return buf.Bytes()
}

func formatProducts(buf *bytes.Buffer, d *ProductsDecl) {
	names := make([]string, len(d.Names))
	for i, n := range d.Names {
		names[i] = n.Name
	}
	if len(names) == 0 {
		buf.WriteString("Products {}\n")
		return
	}
	fmt.Fprintf(buf, "Products { %s }\n", strings.Join(names, ", "))
}

func formatHeader(buf *bytes.Buffer, keyword string, name Ident, base *Ident) {
	buf.WriteString(keyword)
	buf.WriteByte(' ')
	buf.WriteString(name.Name)
	if base != nil {
		buf.WriteString(" : ")
		buf.WriteString(base.Name)
	}
	buf.WriteString(" {\n")
}

func formatBody(buf *bytes.Buffer, body *Body) {
	for _, d := range body.Deps {
		buf.WriteString(indent)
		buf.WriteString(FormatDep(d))
		buf.WriteByte('\n')
	}
	for _, t := range body.Templates {
		buf.WriteString(indent)
		buf.WriteString(FormatTemplate(t))
		buf.WriteByte('\n')
	}
	for _, r := range body.Recipes {
		buf.WriteString(indent)
		buf.WriteString(FormatRecipe(r))
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
}

// FormatDep renders a single dep item.
func FormatDep(d *DepDecl) string {
	var sb strings.Builder
	sb.WriteString("dep ")
	sb.WriteString(d.Name.Name)
	switch {
	case d.Type != nil && d.Value != nil:
		fmt.Fprintf(&sb, ": %s = %s", d.Type.Type, d.Value)
	case d.Type != nil:
		fmt.Fprintf(&sb, ": %s", d.Type.Type)
	case d.Form == BindColon:
		fmt.Fprintf(&sb, ": %s", d.Value)
	default:
		fmt.Fprintf(&sb, " = %s", d.Value)
	}
	sb.WriteByte(';')
	return sb.String()
}

// FormatRecipe renders a single recipe item.
func FormatRecipe(r *RecipeDecl) string {
	return fmt.Sprintf("recipe %s(%s) -> %s / %s;",
		r.Name.Name, FormatParts(r.Inputs), FormatParts(r.Outputs), r.Duration)
}

// FormatTemplate renders a single recipe_template item.
func FormatTemplate(t *TemplateDecl) string {
	var sb strings.Builder
	sb.WriteString("recipe_template ")
	if t.Name.Wildcard {
		sb.WriteByte('_')
	} else {
		sb.WriteString(t.Name.Name)
	}
	fmt.Fprintf(&sb, "(%s) -> %s", formatListPattern(t.Inputs), formatListPattern(t.Outputs))
	for _, f := range t.Factors {
		sb.WriteString(" * ")
		sb.WriteString(f.String())
	}
	if t.Power != nil {
		sb.WriteString(" @ ")
		sb.WriteString(t.Power.String())
	}
	sb.WriteByte(';')
	return sb.String()
}

// FormatParts renders a comma separated part list.
func FormatParts(parts []Part) string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = formatPart(p)
	}
	return strings.Join(out, ", ")
}

func formatPart(p Part) string {
	if p.Quantity == 1 {
		return p.Product.Name
	}
	return fmt.Sprintf("%dx %s", p.Quantity, p.Product.Name)
}

func formatListPattern(l ListPattern) string {
	if l.Wildcard {
		return "_"
	}
	out := make([]string, len(l.Items))
	for i, it := range l.Items {
		if it.Wildcard {
			out[i] = "_"
		} else {
			out[i] = formatPart(it.Part)
		}
	}
	return strings.Join(out, ", ")
}
