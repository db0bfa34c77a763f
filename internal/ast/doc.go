// Package ast defines the syntax tree produced by the source parsers.
//
// The tree is format-agnostic: both the native production-chain syntax
// (package lang) and the HCL surface syntax (package hcl) translate into
// the same node types. Every node carries the hcl.Range it was read from so
// that later resolution errors can point back at the source.
//
// The tree is plain data. It performs no validation beyond what the grammar
// guarantees; the hierarchy, template and validate packages give it meaning.
package ast
