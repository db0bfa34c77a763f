package ast

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// File is the root of a parsed source unit. Blocks keep declaration order.
type File struct {
	Blocks []Block
}

// Merge appends the blocks of all given files, in order, into a single File.
func Merge(files ...*File) *File {
	out := &File{}
	for _, f := range files {
		if f == nil {
			continue
		}
		out.Blocks = append(out.Blocks, f.Blocks...)
	}
	return out
}

// Block is one of *ProductsDecl, *ProducerDecl or *MachineDecl.
type Block interface {
	isBlock()
	Range() hcl.Range
}

// Ident is a name together with where it was written.
type Ident struct {
	Name     string
	SrcRange hcl.Range
}

// ProductsDecl lists product symbols for the global registry.
type ProductsDecl struct {
	Names    []Ident
	SrcRange hcl.Range
}

// ProducerDecl declares an abstract or concrete producer type.
type ProducerDecl struct {
	Name     Ident
	Base     *Ident
	Body     Body
	SrcRange hcl.Range
}

// MachineDecl declares a leaf producer whose slots must all be bound.
type MachineDecl struct {
	Name     Ident
	Base     *Ident
	Body     Body
	SrcRange hcl.Range
}

func (*ProductsDecl) isBlock() {}
func (*ProducerDecl) isBlock() {}
func (*MachineDecl) isBlock()  {}

func (d *ProductsDecl) Range() hcl.Range { return d.SrcRange }
func (d *ProducerDecl) Range() hcl.Range { return d.SrcRange }
func (d *MachineDecl) Range() hcl.Range  { return d.SrcRange }

// Body holds the items declared inside a producer or machine block. Each
// list keeps its own declaration order.
type Body struct {
	Deps      []*DepDecl
	Templates []*TemplateDecl
	Recipes   []*RecipeDecl
}

// BindForm records which spelling a dependency binding used.
type BindForm int

const (
	BindNone   BindForm = iota // declaration only
	BindColon                  // dep X: 50kW;
	BindEquals                 // dep X = 50kW;
)

// DepDecl is a `dep` item. Type is nil when the item only binds a value and
// Value is nil when it only declares the slot type.
type DepDecl struct {
	Name     Ident
	Type     *TypeRef
	Value    *Literal
	Form     BindForm
	SrcRange hcl.Range
}

// IsBinding reports whether the item binds a value.
func (d *DepDecl) IsBinding() bool { return d.Value != nil }

// TypeRef is a slot type as written in a declaration.
type TypeRef struct {
	Type     SlotType
	SrcRange hcl.Range
}

// Part is one product occurrence in a recipe list.
type Part struct {
	Product  Ident
	Quantity int
}

// RecipeDecl is a concrete `recipe` item.
type RecipeDecl struct {
	Name     Ident
	Inputs   []Part
	Outputs  []Part
	Duration Literal
	SrcRange hcl.Range
}

// Signature identifies a recipe for overload resolution: its name and the
// ordered list of input products. Quantities do not take part.
func (r *RecipeDecl) Signature() string {
	return Signature(r.Name.Name, r.Inputs)
}

// Signature formats the overload key for a recipe name and input list.
func Signature(name string, inputs []Part) string {
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteByte('(')
	for i, in := range inputs {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(in.Product.Name)
	}
	sb.WriteByte(')')
	return sb.String()
}

// NamePattern matches a recipe name: any name, or exactly Name.
type NamePattern struct {
	Wildcard bool
	Name     string
	SrcRange hcl.Range
}

// PartPattern matches one list position: anything, or exactly Part.
type PartPattern struct {
	Wildcard bool
	Part     Part
	SrcRange hcl.Range
}

// ListPattern matches a whole part list. A wildcard list accepts any list;
// otherwise the arity must match and each position must match its item.
type ListPattern struct {
	Wildcard bool
	Items    []PartPattern
	SrcRange hcl.Range
}

// Operand is a formula term: either a reference to one of the owning
// machine's own slots (Self::<SelfDep>) or a literal.
type Operand struct {
	SelfDep  string
	Literal  *Literal
	SrcRange hcl.Range
}

// IsSelf reports whether the operand references a slot.
func (o Operand) IsSelf() bool { return o.Literal == nil }

func (o Operand) String() string {
	if o.IsSelf() {
		return "Self::" + o.SelfDep
	}
	return o.Literal.String()
}

// TemplateDecl is a `recipe_template` item. Its formula scales the output
// rate by every factor and reports Power as the draw while running.
type TemplateDecl struct {
	Name     NamePattern
	Inputs   ListPattern
	Outputs  ListPattern
	Factors  []Operand
	Power    *Operand
	SrcRange hcl.Range
}
