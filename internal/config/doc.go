// Package config defines how declaration sources are found and turned into
// a single syntax tree, independent of their surface syntax.
//
// A Parser handles one syntax. The Dispatcher implements Loader by walking
// the given paths and routing every file to the Parser registered for its
// extension. Concrete parsers live in separate packages (lang for .pc, hcl
// for .hcl).
package config
