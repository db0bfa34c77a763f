package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/prodchain/internal/ast"
	"github.com/vk/prodchain/internal/config"
	"github.com/vk/prodchain/internal/diag"
	"github.com/vk/prodchain/internal/lang"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newDispatcher(calls *[]string) *config.Dispatcher {
	alt := func(filename string, src []byte) (*ast.File, error) {
		*calls = append(*calls, filepath.Base(filename))
		return &ast.File{}, nil
	}
	return config.NewDispatcher(map[string]config.Parser{
		".pc":  config.ParserFunc(lang.Parse),
		".alt": config.ParserFunc(alt),
	})
}

func TestDispatcher_LoadMergesInNameOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.pc", "producer B {}")
	writeFile(t, dir, "a.pc", "Products { Ore }")
	writeFile(t, dir, "sub/c.alt", "anything")
	writeFile(t, dir, "README.md", "ignored")

	var calls []string
	bundle, err := newDispatcher(&calls).Load(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, bundle.Files, 3)
	assert.Equal(t, []string{"c.alt"}, calls)
	require.Len(t, bundle.File.Blocks, 2)
	_, isProducts := bundle.File.Blocks[0].(*ast.ProductsDecl)
	assert.True(t, isProducts, "a.pc is merged before b.pc")
	assert.Equal(t, "producer B {}", string(bundle.Sources[filepath.Join(dir, "b.pc")]))
}

func TestDispatcher_ParseErrorKeepsSources(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.pc", "producer {}")

	var calls []string
	bundle, err := newDispatcher(&calls).Load(context.Background(), bad)
	require.Error(t, err)

	var parseErr *diag.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, bad, parseErr.Subject.Filename)
	require.NotNil(t, bundle)
	assert.Contains(t, bundle.Sources, bad)
}

func TestDispatcher_Errors(t *testing.T) {
	dir := t.TempDir()
	var calls []string
	d := newDispatcher(&calls)

	_, err := d.Load(context.Background())
	assert.ErrorContains(t, err, "no source paths given")

	_, err = d.Load(context.Background(), dir)
	assert.ErrorContains(t, err, "no source files with extensions [.alt .pc] found")

	txt := writeFile(t, dir, "notes.txt", "")
	_, err = d.Load(context.Background(), txt)
	assert.ErrorContains(t, err, "no parser for")

	_, err = d.Load(context.Background(), filepath.Join(dir, "missing.pc"))
	assert.ErrorContains(t, err, "error accessing path")
}
