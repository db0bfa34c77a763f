package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/vk/prodchain/internal/ast"
	"github.com/vk/prodchain/internal/ctxlog"
	"github.com/vk/prodchain/internal/fsutil"
)

// Dispatcher is a Loader routing files to parsers by extension.
type Dispatcher struct {
	parsers map[string]Parser
}

// NewDispatcher creates a loader for the given extension to parser map.
// Extensions include the leading dot.
func NewDispatcher(parsers map[string]Parser) *Dispatcher {
	d := &Dispatcher{parsers: make(map[string]Parser, len(parsers))}
	for ext, p := range parsers {
		d.parsers[ext] = p
	}
	return d
}

// Extensions returns the registered extensions, sorted.
func (d *Dispatcher) Extensions() []string {
	out := make([]string, 0, len(d.parsers))
	for ext := range d.parsers {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Load implements Loader. The first file that fails to read or parse
// aborts loading. Parse errors are returned unwrapped, together with the
// sources read so far, so the caller can render the failing snippet.
func (d *Dispatcher) Load(ctx context.Context, paths ...string) (*Bundle, error) {
	logger := ctxlog.FromContext(ctx)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no source paths given")
	}

	files, err := fsutil.FindFiles(paths, d.Extensions()...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no source files with extensions %v found", d.Extensions())
	}
	logger.Debug("Discovered source files.", "count", len(files))

	bundle := &Bundle{Files: files, Sources: make(map[string][]byte, len(files))}
	parsed := make([]*ast.File, 0, len(files))
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, ok := d.parsers[filepath.Ext(name)]
		if !ok {
			return nil, fmt.Errorf("no parser for %s: supported extensions are %v", name, d.Extensions())
		}
		src, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		bundle.Sources[name] = src

		f, err := p.ParseFile(name, src)
		if err != nil {
			return bundle, err
		}
		logger.Debug("Parsed source file.", "file", name, "blocks", len(f.Blocks))
		parsed = append(parsed, f)
	}

	bundle.File = ast.Merge(parsed...)
	return bundle, nil
}
