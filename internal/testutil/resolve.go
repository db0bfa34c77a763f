package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/prodchain/internal/diag"
	"github.com/vk/prodchain/internal/lang"
	"github.com/vk/prodchain/internal/model"
	"github.com/vk/prodchain/internal/resolver"
)

// ResolveSource parses src as a single native source file and resolves it
// with the given worker count. Parse errors fail the test.
func ResolveSource(t *testing.T, src string, workers int) (*model.Model, error) {
	t.Helper()
	f, err := lang.Parse("test.pc", []byte(src))
	require.NoError(t, err, "source must parse")
	return resolver.New(resolver.Options{Workers: workers}).Resolve(context.Background(), f)
}

// ResolutionErrors resolves src and returns its resolution errors. A
// successful resolution fails the test.
func ResolutionErrors(t *testing.T, src string) []diag.Error {
	t.Helper()
	m, err := ResolveSource(t, src, 0)
	require.Error(t, err, "resolution must fail")
	require.Nil(t, m, "no model on failure")
	return diag.Flatten(err)
}

// Kinds lists the kinds of errs in order.
func Kinds(errs []diag.Error) []diag.Kind {
	out := make([]diag.Kind, len(errs))
	for i, e := range errs {
		out[i] = e.Kind()
	}
	return out
}
