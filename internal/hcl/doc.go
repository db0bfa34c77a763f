// Package hcl reads source sets written in HCL syntax and translates them
// into the same syntax tree the native parser produces.
//
// Block structure comes from hcl.BodySchema so declaration order is kept.
// String attribute values that carry native grammar elements (literals,
// product parts, Self:: operands) are handed to the fragment parsers of
// package lang, anchored at the attribute's range.
package hcl
