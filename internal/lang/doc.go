// Package lang implements the native surface syntax: a hand-written lexer
// and a recursive-descent parser producing the tree defined in package ast.
//
// Parsing is fail-fast. The first malformed token is reported as a
// *diag.LexError and the first grammar violation as a *diag.ParseError,
// each anchored at the offending source range.
package lang
