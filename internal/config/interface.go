package config

import (
	"context"

	"github.com/vk/prodchain/internal/ast"
)

// Loader is the interface for reading a source set from disk.
type Loader interface {
	// Load reads every source reachable from paths and merges them, in
	// file name order, into one Bundle.
	Load(ctx context.Context, paths ...string) (*Bundle, error)
}

// Parser is the interface for a format-specific parser.
type Parser interface {
	ParseFile(filename string, src []byte) (*ast.File, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(filename string, src []byte) (*ast.File, error)

// ParseFile calls f.
func (f ParserFunc) ParseFile(filename string, src []byte) (*ast.File, error) {
	return f(filename, src)
}

// Bundle is a loaded source set.
type Bundle struct {
	File *ast.File
	// Files lists the loaded files in merge order.
	Files []string
	// Sources keeps the raw contents by file name for diagnostics.
	Sources map[string][]byte
}
