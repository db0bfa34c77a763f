package diag

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// Kind names an error category of the taxonomy.
type Kind string

const (
	KindLex                      Kind = "LexError"
	KindParse                    Kind = "ParseError"
	KindUnknownBase              Kind = "UnknownBaseError"
	KindUnboundDependency        Kind = "UnboundDependencyError"
	KindTypeMismatch             Kind = "TypeMismatchError"
	KindUnknownProduct           Kind = "UnknownProductError"
	KindDuplicateRecipeSignature Kind = "DuplicateRecipeSignatureError"
	KindInheritanceCycle         Kind = "InheritanceCycleError"
	KindDuplicateDeclaration     Kind = "DuplicateDeclarationError"
	KindSlotRedeclaration        Kind = "SlotRedeclarationError"
	KindUndeclaredDependency     Kind = "UndeclaredDependencyError"
	KindUnmatchedTemplate        Kind = "UnmatchedTemplateError"
)

// Error is implemented by every error of the taxonomy.
type Error interface {
	error
	Kind() Kind
	Range() hcl.Range
}

// Where formats a range as file:line:col, or line:col without a filename.
func Where(r hcl.Range) string {
	if r.Filename == "" {
		return fmt.Sprintf("%d:%d", r.Start.Line, r.Start.Column)
	}
	return fmt.Sprintf("%s:%d:%d", r.Filename, r.Start.Line, r.Start.Column)
}

// LexError reports a malformed token. It is always fatal.
type LexError struct {
	Subject hcl.Range
	Msg     string
}

func (e *LexError) Error() string    { return fmt.Sprintf("%s: %s", Where(e.Subject), e.Msg) }
func (e *LexError) Kind() Kind       { return KindLex }
func (e *LexError) Range() hcl.Range { return e.Subject }

// ParseError reports a grammar violation. It is always fatal.
type ParseError struct {
	Subject hcl.Range
	Msg     string
}

func (e *ParseError) Error() string    { return fmt.Sprintf("%s: %s", Where(e.Subject), e.Msg) }
func (e *ParseError) Kind() Kind       { return KindParse }
func (e *ParseError) Range() hcl.Range { return e.Subject }

// UnknownBaseError reports a producer or machine naming a base that is not
// a declared producer.
type UnknownBaseError struct {
	Subject    hcl.Range
	Node       string
	Base       string
	Reason     string
	Suggestion string
}

func (e *UnknownBaseError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "is never declared"
	}
	msg := fmt.Sprintf("%s: %q extends %q, which %s", Where(e.Subject), e.Node, e.Base, reason)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}
func (e *UnknownBaseError) Kind() Kind       { return KindUnknownBase }
func (e *UnknownBaseError) Range() hcl.Range { return e.Subject }

// InheritanceCycleError reports a base chain that loops back on itself.
type InheritanceCycleError struct {
	Subject hcl.Range
	Node    string
	Cycle   []string
}

func (e *InheritanceCycleError) Error() string {
	return fmt.Sprintf("%s: %q is part of an inheritance cycle: %s",
		Where(e.Subject), e.Node, strings.Join(e.Cycle, " -> "))
}
func (e *InheritanceCycleError) Kind() Kind       { return KindInheritanceCycle }
func (e *InheritanceCycleError) Range() hcl.Range { return e.Subject }

// DuplicateDeclarationError reports a name declared twice in one namespace.
type DuplicateDeclarationError struct {
	Subject  hcl.Range
	What     string
	Name     string
	Previous hcl.Range
}

func (e *DuplicateDeclarationError) Error() string {
	return fmt.Sprintf("%s: %s %q is already declared at %s", Where(e.Subject), e.What, e.Name, Where(e.Previous))
}
func (e *DuplicateDeclarationError) Kind() Kind       { return KindDuplicateDeclaration }
func (e *DuplicateDeclarationError) Range() hcl.Range { return e.Subject }

// SlotRedeclarationError reports a second type declaration of a slot that
// is already typed on the chain.
type SlotRedeclarationError struct {
	Subject  hcl.Range
	Node     string
	Slot     string
	Owner    string
	Previous hcl.Range
}

func (e *SlotRedeclarationError) Error() string {
	return fmt.Sprintf("%s: %q redeclares the type of dependency %q, already declared by %q at %s",
		Where(e.Subject), e.Node, e.Slot, e.Owner, Where(e.Previous))
}
func (e *SlotRedeclarationError) Kind() Kind       { return KindSlotRedeclaration }
func (e *SlotRedeclarationError) Range() hcl.Range { return e.Subject }

// UndeclaredDependencyError reports a binding or formula reference to a
// slot no producer on the chain declares.
type UndeclaredDependencyError struct {
	Subject hcl.Range
	Node    string
	Slot    string
}

func (e *UndeclaredDependencyError) Error() string {
	return fmt.Sprintf("%s: dependency %q is not declared on %q or any of its bases", Where(e.Subject), e.Slot, e.Node)
}
func (e *UndeclaredDependencyError) Kind() Kind       { return KindUndeclaredDependency }
func (e *UndeclaredDependencyError) Range() hcl.Range { return e.Subject }

// UnboundDependencyError reports a machine slot left without a value.
type UnboundDependencyError struct {
	Subject hcl.Range
	Machine string
	Slot    string
	Owner   string
}

func (e *UnboundDependencyError) Error() string {
	return fmt.Sprintf("%s: machine %q never binds dependency %q declared by %q", Where(e.Subject), e.Machine, e.Slot, e.Owner)
}
func (e *UnboundDependencyError) Kind() Kind       { return KindUnboundDependency }
func (e *UnboundDependencyError) Range() hcl.Range { return e.Subject }

// TypeMismatchError reports a literal whose kind does not fit the declared
// slot type or formula position.
type TypeMismatchError struct {
	Subject  hcl.Range
	Node     string
	Slot     string
	Expected string
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: %q: dependency %q expects %s but got %s", Where(e.Subject), e.Node, e.Slot, e.Expected, e.Got)
}
func (e *TypeMismatchError) Kind() Kind       { return KindTypeMismatch }
func (e *TypeMismatchError) Range() hcl.Range { return e.Subject }

// UnknownProductError reports a recipe part naming a product outside the
// registry.
type UnknownProductError struct {
	Subject    hcl.Range
	Producer   string
	Recipe     string
	Product    string
	Suggestion string
}

func (e *UnknownProductError) Error() string {
	msg := fmt.Sprintf("%s: recipe %q of producer %q references unknown product %q",
		Where(e.Subject), e.Recipe, e.Producer, e.Product)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}
func (e *UnknownProductError) Kind() Kind       { return KindUnknownProduct }
func (e *UnknownProductError) Range() hcl.Range { return e.Subject }

// DuplicateRecipeSignatureError reports two recipes of one producer with
// the same name and input signature.
type DuplicateRecipeSignatureError struct {
	Subject   hcl.Range
	Producer  string
	Signature string
	Previous  hcl.Range
}

func (e *DuplicateRecipeSignatureError) Error() string {
	return fmt.Sprintf("%s: producer %q declares recipe %s twice (first at %s)",
		Where(e.Subject), e.Producer, e.Signature, Where(e.Previous))
}
func (e *DuplicateRecipeSignatureError) Kind() Kind       { return KindDuplicateRecipeSignature }
func (e *DuplicateRecipeSignatureError) Range() hcl.Range { return e.Subject }

// UnmatchedTemplateError reports a recipe whose producer chain declares
// templates none of which matches the recipe.
type UnmatchedTemplateError struct {
	Subject   hcl.Range
	Producer  string
	Signature string
}

func (e *UnmatchedTemplateError) Error() string {
	return fmt.Sprintf("%s: no recipe_template on the chain of %q matches recipe %s",
		Where(e.Subject), e.Producer, e.Signature)
}
func (e *UnmatchedTemplateError) Kind() Kind       { return KindUnmatchedTemplate }
func (e *UnmatchedTemplateError) Range() hcl.Range { return e.Subject }
